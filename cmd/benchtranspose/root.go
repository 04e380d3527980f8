package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-transpose/internal/config"
)

// app carries state shared by all subcommands.
type app struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "benchtranspose",
		Short: "Benchmark in-place square matrix transpose kernels",
		Long: `benchtranspose times the row, block, two-level block and recursive
in-place transpose kernels over size sweeps, tunes kernel choices into a
wisdom file, verifies the kernels against each other and serves recorded
runs and Prometheus metrics over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides the config file)")

	root.AddCommand(
		a.newRunCmd(),
		a.newTuneCmd(),
		a.newVerifyCmd(),
		a.newServeCmd(),
	)

	return root
}

// setup loads the configuration and builds the logger. Logs go to stderr so
// tables on stdout stay machine readable.
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.DefaultConfig()

	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}

		cfg = loaded
	}

	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}

	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}

	a.cfg = cfg
	a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	return nil
}

// parseSizes parses a comma-separated list of positive sizes.
func parseSizes(list string) ([]int, error) {
	parts := strings.Split(list, ",")

	out := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid size %q", part)
		}

		out = append(out, n)
	}

	return out, nil
}

// splitList splits a comma-separated flag value, dropping empty items.
func splitList(list string) []string {
	var out []string

	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
