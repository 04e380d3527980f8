// Package planner chooses and times transpose kernels.
//
// Estimate planning is free: it consults wisdom and falls back to a size
// heuristic. Measure planning runs every candidate on a scratch matrix and
// keeps the fastest, recording the decision as wisdom.
package planner

import (
	"runtime"

	"github.com/cwbudde/algo-transpose/internal/cpu"
	"github.com/cwbudde/algo-transpose/internal/layout"
	"github.com/cwbudde/algo-transpose/internal/tptypes"
	"github.com/cwbudde/algo-transpose/internal/transpose"
)

// KernelFunc transposes an n×n matrix with the given stride in place.
type KernelFunc func(m []tptypes.Element, n, stride int)

// Bind returns the kernel for strategy with its tuning parameters applied.
// KernelAuto has no kernel and yields nil.
func Bind(strategy tptypes.KernelStrategy, t Tuning) KernelFunc {
	switch strategy {
	case tptypes.KernelRow:
		return transpose.Row
	case tptypes.KernelBlock:
		b := t.BlockSize
		return func(m []tptypes.Element, n, stride int) { transpose.Block(m, n, stride, b) }
	case tptypes.KernelTwoLevel:
		b, b2 := t.InnerBlockSize, t.OuterBlockSize
		return func(m []tptypes.Element, n, stride int) { transpose.TwoLevel(m, n, stride, b, b2) }
	case tptypes.KernelRecursive:
		threshold := t.RecursionThreshold
		return func(m []tptypes.Element, n, stride int) { transpose.RecursiveStrided(m, n, stride, threshold) }
	default:
		return nil
	}
}

// Layout is the buffer layout strategy prefers for an n×n matrix. Padded
// strategies use t.PadResidue; the recursive kernel is cache-oblivious and
// gets a dense layout.
func Layout(strategy tptypes.KernelStrategy, n int, t Tuning) layout.Layout {
	if strategy.Padded() {
		return layout.New(n, t.PadResidue)
	}

	return layout.Unpadded(n)
}

// Estimate picks a strategy without running anything. A wisdom hit wins and
// brings its own tuning; otherwise small matrices use the row kernel,
// matrices spanning several outer tiles use the two-level kernel, and the
// rest use single-level tiles. A tuning without padding selects the
// recursive kernel, which does not need it.
func Estimate(n int, t Tuning, wisdom *Wisdom, features uint64) (tptypes.KernelStrategy, Tuning) {
	if wisdom != nil {
		if entry, ok := wisdom.Lookup(WisdomKey{Size: n, ElementBytes: tptypes.ElementBytes, CPUFeatures: features}); ok &&
			entry.Strategy != tptypes.KernelAuto {
			return entry.Strategy, entry.Tuning
		}
	}

	switch {
	case t.PadResidue == 0:
		return tptypes.KernelRecursive, t
	case n <= t.BlockSize:
		return tptypes.KernelRow, t
	case n >= 2*t.OuterBlockSize:
		return tptypes.KernelTwoLevel, t
	default:
		return tptypes.KernelBlock, t
	}
}

// Candidate is one configuration a measuring planner tries.
type Candidate struct {
	Strategy tptypes.KernelStrategy
	Tuning   Tuning
}

// Candidates returns one candidate per concrete strategy using t. With
// sweep set, tile widths and thresholds around the defaults are added.
func Candidates(t Tuning, sweep bool) []Candidate {
	out := make([]Candidate, 0, 16)
	for _, s := range tptypes.Strategies() {
		out = append(out, Candidate{Strategy: s, Tuning: t})
	}

	if !sweep {
		return out
	}

	for _, b := range []int{16, 32, 128} {
		if b == t.BlockSize {
			continue
		}

		tt := t
		tt.BlockSize = b
		out = append(out, Candidate{Strategy: tptypes.KernelBlock, Tuning: tt})
	}

	for _, pair := range [][2]int{{8, 256}, {8, 512}, {16, 1024}} {
		tt := t
		tt.InnerBlockSize, tt.OuterBlockSize = pair[0], pair[1]
		out = append(out, Candidate{Strategy: tptypes.KernelTwoLevel, Tuning: tt})
	}

	for _, threshold := range []int{8, 16, 32} {
		if threshold == t.RecursionThreshold {
			continue
		}

		tt := t
		tt.RecursionThreshold = threshold
		out = append(out, Candidate{Strategy: tptypes.KernelRecursive, Tuning: tt})
	}

	return out
}

// Measurement is the timing of one candidate.
type Measurement struct {
	Candidate
	NsPerOp float64
	Cycles  int64
}

// Measure times every candidate on an n×n matrix and returns the results in
// candidate order along with the index of the fastest. Each candidate is
// run once untimed, then iterations times under a stopwatch.
func Measure(n int, candidates []Candidate, iterations int) ([]Measurement, int) {
	if iterations < 1 {
		iterations = 1
	}

	results := make([]Measurement, 0, len(candidates))
	best := -1

	for _, c := range candidates {
		kernel := Bind(c.Strategy, c.Tuning)
		if kernel == nil {
			continue
		}

		l := Layout(c.Strategy, n, c.Tuning)
		m := make([]tptypes.Element, l.Len())

		kernel(m, l.N, l.Stride)
		runtime.GC()

		sw := cpu.StartStopwatch()
		for range iterations {
			kernel(m, l.N, l.Stride)
		}

		sample := sw.Stop()

		results = append(results, Measurement{
			Candidate: c,
			NsPerOp:   float64(sample.Wall.Nanoseconds()) / float64(iterations),
			Cycles:    sample.Cycles / int64(iterations),
		})

		if best < 0 || results[len(results)-1].NsPerOp < results[best].NsPerOp {
			best = len(results) - 1
		}
	}

	return results, best
}
