package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-transpose/internal/bench"
	"github.com/cwbudde/algo-transpose/internal/cpu"
	"github.com/cwbudde/algo-transpose/internal/history"
	"github.com/cwbudde/algo-transpose/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

func (a *app) newServeCmd() *cobra.Command {
	var (
		listen     string
		historyDir string
		interval   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve metrics and recorded runs over HTTP",
		Long: `Serve Prometheus metrics on /metrics and recorded runs on /runs.

With --interval the configured sweep runs in the background at that period.
Its results feed the metrics and, when a history directory is set, are
recorded as runs.

Endpoints:
  GET    /metrics
  GET    /health
  GET    /runs?limit=N
  GET    /runs/{id}
  DELETE /runs/{id}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("listen") {
				a.cfg.Metrics.Listen = listen
			}

			if cmd.Flags().Changed("history") {
				a.cfg.History.Dir = historyDir
			}

			srv := &server{collector: metrics.New(), log: a.log}

			if a.cfg.History.Dir != "" {
				store, err := history.Open(a.cfg.History.Dir)
				if err != nil {
					return err
				}
				defer store.Close()

				srv.store = store
			}

			ctx := cmd.Context()

			if interval > 0 {
				cases, err := buildCases(a.cfg.Sweep, a.cfg.Options())
				if err != nil {
					return err
				}

				go a.sweepLoop(ctx, srv, cases, interval)
			}

			return a.listenAndServe(ctx, srv)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, 127.0.0.1:9464)")
	cmd.Flags().StringVar(&historyDir, "history", "", "history database to serve and record into")
	cmd.Flags().DurationVar(&interval, "interval", 0, "run the configured sweep at this period (0 disables)")

	return cmd
}

func (a *app) listenAndServe(ctx context.Context, srv *server) error {
	httpServer := &http.Server{
		Addr:              a.cfg.Metrics.Listen,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		a.log.Info("serving", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve %s: %w", httpServer.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	a.log.Info("server stopped")

	return nil
}

// sweepLoop runs cases once per interval until ctx is done.
func (a *app) sweepLoop(ctx context.Context, srv *server, cases []bench.Case, interval time.Duration) {
	features := cpu.DetectFeatures()

	runner := runnerFor(a.cfg.Sweep)
	runner.Observer = observers{srv.collector, logObserver{log: a.log}}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		started := time.Now()
		results, err := runner.RunAll(ctx, cases)

		switch {
		case errors.Is(err, context.Canceled):
			return
		case err != nil:
			a.log.Error("background sweep failed", "completed", len(results), "err", err)
		case srv.store != nil:
			id, err := srv.store.Record(&history.Run{
				Command:  "serve",
				Host:     features.String(),
				Started:  started,
				Finished: time.Now(),
				Results:  results,
			})
			if err != nil {
				a.log.Error("record run", "err", err)
			} else {
				a.log.Info("background sweep recorded", "id", id.String(), "cases", len(results))
			}
		default:
			a.log.Info("background sweep finished", "cases", len(results))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
