package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-transpose/internal/reference"
	"github.com/cwbudde/algo-transpose/internal/tptypes"
)

var defaultTuning = Tuning{
	BlockSize:          64,
	InnerBlockSize:     4,
	OuterBlockSize:     1040,
	PadResidue:         47,
	RecursionThreshold: 4,
}

func TestBind_TransposesEveryStrategy(t *testing.T) {
	t.Parallel()

	for _, s := range tptypes.Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			t.Parallel()

			kernel := Bind(s, defaultTuning)
			require.NotNil(t, kernel)

			for _, n := range []int{1, 7, 65, 300} {
				l := Layout(s, n, defaultTuning)
				m := reference.Sequential(n, l.Stride, -1)
				want := reference.Transposed(m, n, l.Stride)

				kernel(m, l.N, l.Stride)
				assert.Equal(t, want, m, "n=%d", n)
			}
		})
	}
}

func TestBind_AutoHasNoKernel(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Bind(tptypes.KernelAuto, defaultTuning))
}

func TestLayout(t *testing.T) {
	t.Parallel()

	l := Layout(tptypes.KernelBlock, 1000, defaultTuning)
	assert.Equal(t, 1007, l.Stride)

	l = Layout(tptypes.KernelRecursive, 1000, defaultTuning)
	assert.Equal(t, 1000, l.Stride)

	unpadded := defaultTuning
	unpadded.PadResidue = 0
	l = Layout(tptypes.KernelRow, 1000, unpadded)
	assert.Equal(t, 1000, l.Stride)
}

func TestEstimate_Heuristic(t *testing.T) {
	t.Parallel()

	unpadded := defaultTuning
	unpadded.PadResidue = 0

	tests := []struct {
		name string
		n    int
		t    Tuning
		want tptypes.KernelStrategy
	}{
		{"tiny", 8, defaultTuning, tptypes.KernelRow},
		{"one tile", 64, defaultTuning, tptypes.KernelRow},
		{"medium", 1000, defaultTuning, tptypes.KernelBlock},
		{"just below two outer tiles", 2079, defaultTuning, tptypes.KernelBlock},
		{"large", 2080, defaultTuning, tptypes.KernelTwoLevel},
		{"no padding", 1000, unpadded, tptypes.KernelRecursive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, tuning := Estimate(tt.n, tt.t, nil, 0)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.t, tuning)
		})
	}
}

func TestEstimate_WisdomWins(t *testing.T) {
	t.Parallel()

	w := NewWisdom()
	tuned := defaultTuning
	tuned.BlockSize = 32

	w.Store(WisdomEntry{
		Key:       WisdomKey{Size: 1000, ElementBytes: tptypes.ElementBytes, CPUFeatures: 5},
		Strategy:  tptypes.KernelRecursive,
		Tuning:    tuned,
		NsPerOp:   1,
		Timestamp: time.Unix(1, 0),
	})

	got, tuning := Estimate(1000, defaultTuning, w, 5)
	assert.Equal(t, tptypes.KernelRecursive, got)
	assert.Equal(t, tuned, tuning)

	// Different features miss.
	got, tuning = Estimate(1000, defaultTuning, w, 6)
	assert.Equal(t, tptypes.KernelBlock, got)
	assert.Equal(t, defaultTuning, tuning)
}

func TestCandidates(t *testing.T) {
	t.Parallel()

	base := Candidates(defaultTuning, false)
	require.Len(t, base, len(tptypes.Strategies()))

	for i, s := range tptypes.Strategies() {
		assert.Equal(t, s, base[i].Strategy)
		assert.Equal(t, defaultTuning, base[i].Tuning)
	}

	swept := Candidates(defaultTuning, true)
	assert.Greater(t, len(swept), len(base))

	for _, c := range swept {
		assert.NotNil(t, Bind(c.Strategy, c.Tuning), c.Strategy.String())
	}
}

func TestMeasure(t *testing.T) {
	t.Parallel()

	candidates := Candidates(defaultTuning, false)
	results, best := Measure(96, candidates, 3)

	require.Len(t, results, len(candidates))
	require.GreaterOrEqual(t, best, 0)
	require.Less(t, best, len(results))

	for i, r := range results {
		assert.Equal(t, candidates[i], r.Candidate)
		assert.GreaterOrEqual(t, r.NsPerOp, 0.0)
		assert.LessOrEqual(t, results[best].NsPerOp, r.NsPerOp)
	}
}

func TestMeasure_SkipsAuto(t *testing.T) {
	t.Parallel()

	results, best := Measure(16, []Candidate{{Strategy: tptypes.KernelAuto, Tuning: defaultTuning}}, 0)
	assert.Empty(t, results)
	assert.Equal(t, -1, best)
}
