package bench

import (
	"fmt"

	algotranspose "github.com/cwbudde/algo-transpose"
)

// GeometricSweep returns sizes from start to limit growing by a factor of
// 12/11 per step, so sizes hit every residue class mod 64 instead of only
// powers of two. Growth is at least one per step.
func GeometricSweep(start, limit int) []int {
	var sizes []int

	for i := start; i >= 1 && i <= limit; {
		sizes = append(sizes, i)

		next := i * 12 / 11
		if next == i {
			next++
		}

		i = next
	}

	return sizes
}

// LinearSweep returns start, start+step, ... up to limit.
func LinearSweep(start, limit, step int) []int {
	if step < 1 {
		return nil
	}

	var sizes []int
	for i := start; i >= 1 && i <= limit; i += step {
		sizes = append(sizes, i)
	}

	return sizes
}

// Case is one benchmark configuration.
type Case struct {
	N        int                          `json:"n"`
	Strategy algotranspose.KernelStrategy `json:"strategy"`
	Options  algotranspose.Options        `json:"options"`
}

func (c Case) String() string {
	if c.Strategy == algotranspose.KernelBlock {
		return fmt.Sprintf("%s/n=%d/b=%d", c.Strategy, c.N, c.Options.BlockSize)
	}

	return fmt.Sprintf("%s/n=%d", c.Strategy, c.N)
}

// Cases returns the cross product of sizes and strategies, size-major.
func Cases(sizes []int, strategies []algotranspose.KernelStrategy, opts algotranspose.Options) []Case {
	out := make([]Case, 0, len(sizes)*len(strategies))

	for _, n := range sizes {
		for _, s := range strategies {
			out = append(out, Case{N: n, Strategy: s, Options: opts})
		}
	}

	return out
}

// BlockSweep returns block-kernel cases for one n with the tile width
// running from..to in steps of step.
func BlockSweep(n, from, to, step int, opts algotranspose.Options) []Case {
	var out []Case

	for _, b := range LinearSweep(from, to, step) {
		o := opts
		o.BlockSize = b
		out = append(out, Case{N: n, Strategy: algotranspose.KernelBlock, Options: o})
	}

	return out
}
