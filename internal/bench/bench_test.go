package bench

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	algotranspose "github.com/cwbudde/algo-transpose"
)

func TestGeometricSweep(t *testing.T) {
	t.Parallel()

	sizes := GeometricSweep(1000, 26000)
	require.NotEmpty(t, sizes)
	assert.Equal(t, 1000, sizes[0])
	assert.Equal(t, 1090, sizes[1])
	assert.LessOrEqual(t, sizes[len(sizes)-1], 26000)

	for i := 1; i < len(sizes); i++ {
		assert.Equal(t, sizes[i-1]*12/11, sizes[i])
	}

	// Small starts still advance.
	assert.Equal(t, []int{1, 2, 3, 4, 5}, GeometricSweep(1, 5))
	assert.Empty(t, GeometricSweep(10, 5))
	assert.Empty(t, GeometricSweep(0, 5))
}

func TestLinearSweep(t *testing.T) {
	t.Parallel()

	sizes := LinearSweep(64, 4096, 64)
	assert.Len(t, sizes, 64)
	assert.Equal(t, 64, sizes[0])
	assert.Equal(t, 4096, sizes[63])

	assert.Nil(t, LinearSweep(1, 10, 0))
	assert.Equal(t, []int{4, 8}, LinearSweep(4, 10, 4))
}

func TestBlockSweep(t *testing.T) {
	t.Parallel()

	cases := BlockSweep(4096, 4, 80, 4, algotranspose.Options{PadResidue: 3})
	require.Len(t, cases, 20)

	for i, c := range cases {
		assert.Equal(t, 4096, c.N)
		assert.Equal(t, algotranspose.KernelBlock, c.Strategy)
		assert.Equal(t, 4*(i+1), c.Options.BlockSize)
		assert.Equal(t, 3, c.Options.PadResidue)
	}

	assert.Equal(t, "block/n=4096/b=4", cases[0].String())
}

func TestCases(t *testing.T) {
	t.Parallel()

	cases := Cases([]int{10, 20}, []algotranspose.KernelStrategy{algotranspose.KernelRow, algotranspose.KernelRecursive}, algotranspose.Options{})
	require.Len(t, cases, 4)
	assert.Equal(t, Case{N: 10, Strategy: algotranspose.KernelRow}, cases[0])
	assert.Equal(t, Case{N: 20, Strategy: algotranspose.KernelRecursive}, cases[3])
	assert.Equal(t, "recursive/n=20", cases[3].String())
}

type recorder struct {
	mu      sync.Mutex
	results []Result
}

func (r *recorder) Observe(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.results = append(r.results, res)
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	r := Runner{Iterations: 3, Warmup: 1, Fill: FillSequential, Verify: true, Observer: rec}

	for _, s := range algotranspose.Strategies() {
		res, err := r.Run(context.Background(), Case{N: 100, Strategy: s})
		require.NoError(t, err)

		assert.Equal(t, s, res.Strategy)
		assert.Equal(t, 3, res.Iterations)
		assert.True(t, res.Verified)
		assert.Equal(t, algotranspose.DefaultOptions(), res.Options)
		assert.GreaterOrEqual(t, res.NsPerOp, 0.0)

		if res.NsPerOp > 0 {
			assert.InDelta(t, res.ElementsPerSecond*float64(algotranspose.ElementBytes), res.BytesPerSecond, 1)
		}

		if s == algotranspose.KernelRecursive {
			assert.Equal(t, 100, res.Stride)
		} else {
			assert.Equal(t, 111, res.Stride)
		}
	}

	assert.Len(t, rec.results, len(algotranspose.Strategies()))
}

func TestRunner_NoWarmup(t *testing.T) {
	t.Parallel()

	r := Runner{Iterations: 2, Fill: FillSequential, Verify: true}

	for _, s := range algotranspose.Strategies() {
		res, err := r.Run(context.Background(), Case{N: 33, Strategy: s})
		require.NoError(t, err, s.String())
		assert.Equal(t, 2, res.Iterations)
		assert.True(t, res.Verified)
	}
}

func TestRunner_ZeroValueAndAuto(t *testing.T) {
	t.Parallel()

	res, err := Runner{}.Run(context.Background(), Case{N: 8, Strategy: algotranspose.KernelAuto, Options: algotranspose.Options{Unpadded: true}})
	require.NoError(t, err)
	assert.Equal(t, algotranspose.KernelAuto, res.Case.Strategy)
	assert.NotEqual(t, algotranspose.KernelAuto, res.Strategy)
	assert.Equal(t, 1, res.Iterations)
	assert.False(t, res.Verified)
}

func TestRunner_Errors(t *testing.T) {
	t.Parallel()

	_, err := Runner{}.Run(context.Background(), Case{N: 0, Strategy: algotranspose.KernelRow})
	require.ErrorIs(t, err, algotranspose.ErrInvalidSize)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := Runner{}.RunAll(ctx, Cases([]int{4, 8}, algotranspose.Strategies(), algotranspose.Options{}))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestRunner_RunAll(t *testing.T) {
	t.Parallel()

	cases := Cases([]int{16, 48}, algotranspose.Strategies(), algotranspose.Options{})
	results, err := Runner{Iterations: 2}.RunAll(context.Background(), cases)
	require.NoError(t, err)
	require.Len(t, results, len(cases))

	for i := range results {
		assert.Equal(t, cases[i], results[i].Case)
	}
}

func TestBestAndSort(t *testing.T) {
	t.Parallel()

	results := []Result{
		{Case: Case{N: 20}, Strategy: algotranspose.KernelRow, NsPerOp: 5, ElementsPerSecond: 80},
		{Case: Case{N: 10}, Strategy: algotranspose.KernelBlock, NsPerOp: 9, ElementsPerSecond: 10},
		{Case: Case{N: 10}, Strategy: algotranspose.KernelRow, NsPerOp: 3, ElementsPerSecond: 30},
		{Case: Case{N: 20}, Strategy: algotranspose.KernelRecursive, NsPerOp: 4, ElementsPerSecond: 100},
	}

	best := Best(results)
	require.Len(t, best, 2)
	assert.Equal(t, algotranspose.KernelRow, best[0].Strategy)
	assert.Equal(t, algotranspose.KernelRecursive, best[1].Strategy)

	sorted := append([]Result(nil), results...)
	SortBySize(sorted)
	assert.Equal(t, []float64{3, 9, 4, 5}, []float64{sorted[0].NsPerOp, sorted[1].NsPerOp, sorted[2].NsPerOp, sorted[3].NsPerOp})

	SortByThroughput(sorted)
	assert.InDelta(t, 100.0, sorted[0].ElementsPerSecond, 0)
	assert.InDelta(t, 10.0, sorted[3].ElementsPerSecond, 0)
}

func TestRecordWisdom(t *testing.T) {
	t.Parallel()

	unpadded := algotranspose.DefaultOptions()
	unpadded.Unpadded = true

	results := []Result{
		{Case: Case{N: 64}, Strategy: algotranspose.KernelRow, Options: algotranspose.DefaultOptions(), NsPerOp: 10},
		{Case: Case{N: 64}, Strategy: algotranspose.KernelRecursive, Options: unpadded, NsPerOp: 7},
		{Case: Case{N: 128}, Strategy: algotranspose.KernelBlock, Options: algotranspose.DefaultOptions(), NsPerOp: 50},
	}

	w := algotranspose.NewWisdom()
	now := time.Unix(1700000000, 0)
	require.Equal(t, 2, RecordWisdom(w, results, 9, now))
	require.Equal(t, 2, w.Len())

	e, ok := w.Lookup(algotranspose.WisdomKey{Size: 64, ElementBytes: algotranspose.ElementBytes, CPUFeatures: 9})
	require.True(t, ok)
	assert.Equal(t, algotranspose.KernelRecursive, e.Strategy)
	assert.Zero(t, e.Tuning.PadResidue)
	assert.InDelta(t, 7.0, e.NsPerOp, 0)
	assert.Equal(t, now, e.Timestamp)
}
