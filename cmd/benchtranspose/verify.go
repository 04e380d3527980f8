package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	algotranspose "github.com/cwbudde/algo-transpose"
)

var defaultVerifySizes = []int{1, 2, 3, 4, 5, 8, 17, 64, 65, 1000}

// verifySize checks every strategy at size n: each must pass
// algotranspose.Verify on a sequential matrix, and all strategies must
// produce the same logical result.
func verifySize(n int, strategies []algotranspose.KernelStrategy, opts algotranspose.Options) error {
	src, err := algotranspose.NewUnpaddedMatrix(n)
	if err != nil {
		return err
	}

	src.FillSequential()

	var (
		errs  []error
		first *algotranspose.Matrix
		name  algotranspose.KernelStrategy
	)

	for _, s := range strategies {
		if err := algotranspose.Verify(src, s, opts); err != nil {
			errs = append(errs, err)
			continue
		}

		plan, err := algotranspose.NewPlan(n, s, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		m := plan.NewMatrix()
		m.FillSequential()

		if err := plan.Transpose(m); err != nil {
			errs = append(errs, err)
			continue
		}

		if first == nil {
			first, name = m, s
			continue
		}

		if !m.Equal(first) {
			errs = append(errs, fmt.Errorf("%w: n=%d: %s and %s disagree", algotranspose.ErrVerification, n, s, name))
		}
	}

	return errors.Join(errs...)
}

func (a *app) newVerifyCmd() *cobra.Command {
	var (
		sizes      string
		strategies string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the kernels for correctness",
		Long: `Check that each kernel produces the exact transpose, that applying it twice
restores the input and that all kernels agree with each other.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := defaultVerifySizes
			if cmd.Flags().Changed("sizes") {
				parsed, err := parseSizes(sizes)
				if err != nil {
					return err
				}

				list = parsed
			}

			sw := a.cfg.Sweep
			if cmd.Flags().Changed("strategies") {
				sw.Strategies = splitList(strategies)
			}

			chosen, err := sw.ParseStrategies()
			if err != nil {
				return err
			}

			opts := a.cfg.Options()
			failed := 0

			for _, n := range list {
				if err := cmd.Context().Err(); err != nil {
					return err
				}

				if err := verifySize(n, chosen, opts); err != nil {
					failed++
					a.log.Error("verification failed", "n", n, "err", err)
					fmt.Fprintf(cmd.OutOrStdout(), "%8d  FAIL\n", n)

					continue
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%8d  ok\n", n)
			}

			if failed > 0 {
				return fmt.Errorf("%w: %d of %d sizes failed", algotranspose.ErrVerification, failed, len(list))
			}

			a.log.Info("all kernels verified", "sizes", len(list), "strategies", len(chosen))

			return nil
		},
	}

	cmd.Flags().StringVar(&sizes, "sizes", "", "comma-separated sizes (default 1,2,3,4,5,8,17,64,65,1000)")
	cmd.Flags().StringVar(&strategies, "strategies", "", "comma-separated strategies (default all)")

	return cmd
}
