package main

import (
	"fmt"

	"github.com/spf13/cobra"

	algotranspose "github.com/cwbudde/algo-transpose"
)

func (a *app) newTuneCmd() *cobra.Command {
	var (
		sizes   string
		patient bool
		iters   int
		output  string
	)

	cmd := &cobra.Command{
		Use:   "tune",
		Short: "Measure the fastest kernel per size and export wisdom",
		Long: `Time every strategy for each size with the measuring planner and write the
winners as wisdom. Without --output the wisdom file from the configuration
is used, and without either the wisdom is printed.

Examples:
  benchtranspose tune --sizes 512,1000,4096
  benchtranspose tune --sizes 2048 --patient --output transpose.wisdom`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := parseSizes(sizes)
			if err != nil {
				return err
			}

			if len(list) == 0 {
				return fmt.Errorf("no sizes given")
			}

			mode := algotranspose.PlannerMeasure
			if patient {
				mode = algotranspose.PlannerPatient
			}

			wisdom := algotranspose.NewWisdom()
			planner := algotranspose.NewPlanner(algotranspose.PlanOptions{
				Planner:    mode,
				Options:    a.cfg.Options(),
				Wisdom:     wisdom,
				Iterations: iters,
			})

			for _, n := range list {
				if err := cmd.Context().Err(); err != nil {
					return err
				}

				plan, err := planner.Plan(n)
				if err != nil {
					return fmt.Errorf("n=%d: %w", n, err)
				}

				opts := plan.Options()
				a.log.Info("tuned",
					"n", n,
					"planner", mode.String(),
					"strategy", plan.Strategy().String(),
					"block", opts.BlockSize,
					"stride", plan.Stride())
			}

			file := a.cfg.Wisdom.File
			if cmd.Flags().Changed("output") {
				file = output
			}

			if file == "" {
				return wisdom.Export(cmd.OutOrStdout())
			}

			if err := algotranspose.ExportWisdomTo(file, wisdom); err != nil {
				return err
			}

			a.log.Info("wisdom exported", "file", file, "entries", wisdom.Len())

			return nil
		},
	}

	cmd.Flags().StringVar(&sizes, "sizes", "1000,2048,4096", "comma-separated sizes to tune")
	cmd.Flags().BoolVar(&patient, "patient", false, "also sweep tile widths and recursion thresholds")
	cmd.Flags().IntVar(&iters, "iters", algotranspose.DefaultMeasureIterations, "timed runs per candidate")
	cmd.Flags().StringVarP(&output, "output", "o", "", "wisdom file to write")

	return cmd
}
