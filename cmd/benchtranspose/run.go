package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	algotranspose "github.com/cwbudde/algo-transpose"
	"github.com/cwbudde/algo-transpose/internal/bench"
	"github.com/cwbudde/algo-transpose/internal/config"
	"github.com/cwbudde/algo-transpose/internal/cpu"
	"github.com/cwbudde/algo-transpose/internal/history"
)

// sweepFlags override the sweep section of the configuration. Only flags
// set on the command line take effect.
type sweepFlags struct {
	kind       string
	sizes      string
	strategies string
	start      int
	limit      int
	step       int
	blockN     int
	iters      int
	warmup     int
	verify     bool
	fill       string
}

func (f *sweepFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.kind, "sweep", config.SweepGeometric, "sweep kind: geometric, linear, block")
	flags.StringVar(&f.sizes, "sizes", "", "comma-separated sizes (replaces the sweep)")
	flags.StringVar(&f.strategies, "strategies", "", "comma-separated strategies (default all)")
	flags.IntVar(&f.start, "start", 0, "first size, or first tile width for block sweeps")
	flags.IntVar(&f.limit, "max", 0, "last size, or last tile width for block sweeps")
	flags.IntVar(&f.step, "step", 0, "step of linear and block sweeps")
	flags.IntVar(&f.blockN, "block-n", 0, "matrix edge of block sweeps")
	flags.IntVar(&f.iters, "iters", 0, "timed iterations per case")
	flags.IntVar(&f.warmup, "warmup", 0, "untimed iterations per case")
	flags.BoolVar(&f.verify, "verify", false, "verify every kernel after timing")
	flags.StringVar(&f.fill, "fill", "", "matrix contents: constant, sequential")
}

func (f *sweepFlags) apply(cmd *cobra.Command, sw config.Sweep) (config.Sweep, error) {
	flags := cmd.Flags()

	if flags.Changed("sweep") {
		d := config.SweepDefaults(f.kind)
		sw.Kind, sw.Start, sw.Max, sw.Step = d.Kind, d.Start, d.Max, d.Step
	}

	if flags.Changed("sizes") {
		sizes, err := parseSizes(f.sizes)
		if err != nil {
			return sw, err
		}

		sw.Kind, sw.Sizes = config.SweepList, sizes
	}

	if flags.Changed("strategies") {
		sw.Strategies = splitList(f.strategies)
	}

	for name, dst := range map[string]*int{
		"start":   &sw.Start,
		"max":     &sw.Max,
		"step":    &sw.Step,
		"block-n": &sw.BlockN,
		"iters":   &sw.Iterations,
		"warmup":  &sw.Warmup,
	} {
		if flags.Changed(name) {
			v, err := flags.GetInt(name)
			if err != nil {
				return sw, err
			}

			*dst = v
		}
	}

	if flags.Changed("verify") {
		sw.Verify = f.verify
	}

	if flags.Changed("fill") {
		sw.Fill = f.fill
	}

	return sw, nil
}

// buildCases expands a validated sweep into benchmark cases.
func buildCases(sw config.Sweep, opts algotranspose.Options) ([]bench.Case, error) {
	strategies, err := sw.ParseStrategies()
	if err != nil {
		return nil, err
	}

	var sizes []int

	switch sw.Kind {
	case config.SweepGeometric:
		sizes = bench.GeometricSweep(sw.Start, sw.Max)
	case config.SweepLinear:
		sizes = bench.LinearSweep(sw.Start, sw.Max, sw.Step)
	case config.SweepList:
		sizes = sw.Sizes
	case config.SweepBlock:
		return bench.BlockSweep(sw.BlockN, sw.Start, sw.Max, sw.Step, opts), nil
	default:
		return nil, fmt.Errorf("unknown sweep kind %q", sw.Kind)
	}

	return bench.Cases(sizes, strategies, opts), nil
}

func runnerFor(sw config.Sweep) bench.Runner {
	fill := bench.FillConstant
	if sw.Fill == config.FillSequential {
		fill = bench.FillSequential
	}

	return bench.Runner{
		Iterations: sw.Iterations,
		Warmup:     sw.Warmup,
		Fill:       fill,
		Verify:     sw.Verify,
	}
}

// logObserver logs each result at debug level.
type logObserver struct {
	log *slog.Logger
}

func (o logObserver) Observe(r bench.Result) {
	o.log.Debug("measured",
		"case", r.Case.String(),
		"stride", r.Stride,
		"ns_per_op", r.NsPerOp,
		"cycles_per_op", r.Cycles,
		"verified", r.Verified)
}

// observers fans a result out to several observers.
type observers []bench.Observer

func (obs observers) Observe(r bench.Result) {
	for _, o := range obs {
		o.Observe(r)
	}
}

func printResults(w io.Writer, results []bench.Result) {
	sorted := append([]bench.Result(nil), results...)
	bench.SortBySize(sorted)

	fmt.Fprintf(w, "%8s  %-10s  %6s  %8s  %14s  %8s\n", "size", "strategy", "block", "stride", "ns/op", "GB/s")

	for _, r := range sorted {
		fmt.Fprintf(w, "%8d  %-10s  %6d  %8d  %14.1f  %8.2f\n",
			r.Case.N, r.Strategy, r.Options.BlockSize, r.Stride, r.NsPerOp, r.BytesPerSecond/1e9)
	}
}

func (a *app) newRunCmd() *cobra.Command {
	var (
		flags      sweepFlags
		wisdomFile string
		historyDir string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Time the kernels over a size sweep",
		Long: `Time the kernels over a size sweep and print one line per size and
strategy, fastest first within each size.

Examples:
  benchtranspose run
  benchtranspose run --sweep linear --strategies row,block
  benchtranspose run --sweep block --block-n 4096
  benchtranspose run --sizes 1000,4096 --verify --wisdom transpose.wisdom`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sw, err := flags.apply(cmd, a.cfg.Sweep)
			if err != nil {
				return err
			}

			a.cfg.Sweep = sw
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			if cmd.Flags().Changed("wisdom") {
				a.cfg.Wisdom.File = wisdomFile
			}

			if cmd.Flags().Changed("history") {
				a.cfg.History.Dir = historyDir
			}

			cases, err := buildCases(sw, a.cfg.Options())
			if err != nil {
				return err
			}

			features := cpu.DetectFeatures()
			a.log.Info("starting sweep", "kind", sw.Kind, "cases", len(cases), "host", features.String())

			runner := runnerFor(sw)
			runner.Observer = logObserver{log: a.log}

			started := time.Now()
			results, runErr := runner.RunAll(cmd.Context(), cases)
			finished := time.Now()

			printResults(cmd.OutOrStdout(), results)

			if runErr != nil {
				a.log.Error("sweep stopped", "completed", len(results), "err", runErr)
				return runErr
			}

			a.log.Info("sweep finished", "cases", len(results), "elapsed", finished.Sub(started).Round(time.Millisecond))

			if err := a.exportWinners(results, features); err != nil {
				return err
			}

			return a.recordRun("run", features, started, finished, results)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&wisdomFile, "wisdom", "", "export the fastest strategy per size to this wisdom file")
	cmd.Flags().StringVar(&historyDir, "history", "", "record the run in this history database")

	return cmd
}

func (a *app) exportWinners(results []bench.Result, features cpu.Features) error {
	if a.cfg.Wisdom.File == "" {
		return nil
	}

	w := algotranspose.NewWisdom()
	n := bench.RecordWisdom(w, results, features.Mask(), time.Now())

	if err := algotranspose.ExportWisdomTo(a.cfg.Wisdom.File, w); err != nil {
		return err
	}

	a.log.Info("wisdom exported", "file", a.cfg.Wisdom.File, "entries", n)

	return nil
}

func (a *app) recordRun(command string, features cpu.Features, started, finished time.Time, results []bench.Result) error {
	if a.cfg.History.Dir == "" {
		return nil
	}

	store, err := history.Open(a.cfg.History.Dir)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Record(&history.Run{
		Command:  command,
		Host:     features.String(),
		Started:  started,
		Finished: finished,
		Results:  results,
	})
	if err != nil {
		return err
	}

	a.log.Info("run recorded", "id", id.String(), "dir", a.cfg.History.Dir)

	return nil
}
