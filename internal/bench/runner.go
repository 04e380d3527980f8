// Package bench times the transpose kernels over size sweeps.
package bench

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	algotranspose "github.com/cwbudde/algo-transpose"
	"github.com/cwbudde/algo-transpose/internal/cpu"
)

// Fill selects the initial matrix contents.
type Fill uint8

const (
	// FillConstant sets every element to one.
	FillConstant Fill = iota

	// FillSequential sets element (i, j) to i*n + j.
	FillSequential
)

// Result is the timing of one case.
type Result struct {
	Case Case `json:"case"`

	// Strategy is the kernel that ran; it differs from Case.Strategy only
	// when the case asked for KernelAuto.
	Strategy algotranspose.KernelStrategy `json:"resolved"`
	Stride   int                          `json:"stride"`

	// Options is the normalized tuning the kernel ran with.
	Options algotranspose.Options `json:"tuning"`

	Iterations        int     `json:"iterations"`
	NsPerOp           float64 `json:"ns_per_op"`
	Cycles            int64   `json:"cycles_per_op"`
	BytesPerSecond    float64 `json:"bytes_per_second"`
	ElementsPerSecond float64 `json:"elements_per_second"`
	Verified          bool    `json:"verified"`
}

// Observer receives every result as soon as it is measured.
type Observer interface {
	Observe(Result)
}

// Runner runs cases. The zero value runs one untimed and one timed
// iteration on a constant matrix without verification.
type Runner struct {
	Iterations int
	Warmup     int
	Fill       Fill
	Verify     bool
	Observer   Observer
}

// Run times c. The matrix is allocated with the layout the case's plan
// prefers, warmed up, and transposed Iterations times after a GC.
func (r Runner) Run(ctx context.Context, c Case) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	plan, err := algotranspose.NewPlan(c.N, c.Strategy, c.Options)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", c, err)
	}

	m := plan.NewMatrix()
	fill(m, r.Fill)

	for range max(r.Warmup, 0) {
		if err := plan.Transpose(m); err != nil {
			return Result{}, err
		}
	}

	iterations := max(r.Iterations, 1)

	runtime.GC()

	sw := cpu.StartStopwatch()
	for range iterations {
		err = plan.Transpose(m)
	}

	sample := sw.Stop()

	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", c, err)
	}

	res := Result{
		Case:       c,
		Strategy:   plan.Strategy(),
		Stride:     plan.Stride(),
		Options:    plan.Options(),
		Iterations: iterations,
		NsPerOp:    float64(sample.Wall.Nanoseconds()) / float64(iterations),
		Cycles:     sample.Cycles / int64(iterations),
	}

	if res.NsPerOp > 0 {
		elements := float64(c.N) * float64(c.N)
		res.ElementsPerSecond = elements / res.NsPerOp * float64(time.Second)
		res.BytesPerSecond = res.ElementsPerSecond * float64(algotranspose.ElementBytes)
	}

	if r.Verify {
		check := plan.NewMatrix()
		check.FillSequential()

		if err := algotranspose.Verify(check, plan.Strategy(), plan.Options()); err != nil {
			return res, err
		}

		res.Verified = true
	}

	if r.Observer != nil {
		r.Observer.Observe(res)
	}

	return res, nil
}

// RunAll runs cases in order and stops at the first error or when ctx is
// done. Results gathered before the stop are returned with the error.
func (r Runner) RunAll(ctx context.Context, cases []Case) ([]Result, error) {
	results := make([]Result, 0, len(cases))

	for _, c := range cases {
		res, err := r.Run(ctx, c)
		if err != nil {
			return results, err
		}

		results = append(results, res)
	}

	return results, nil
}

func fill(m *algotranspose.Matrix, f Fill) {
	if f == FillSequential {
		m.FillSequential()
		return
	}

	m.Fill(func(_, _ int) algotranspose.Element { return 1 })
}

// SortBySize orders results by n, then by time per transpose.
func SortBySize(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Case.N != results[j].Case.N {
			return results[i].Case.N < results[j].Case.N
		}

		return results[i].NsPerOp < results[j].NsPerOp
	})
}

// SortByThroughput orders results from the highest to the lowest
// elements per second.
func SortByThroughput(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ElementsPerSecond > results[j].ElementsPerSecond
	})
}

// Best returns the fastest result per n, ordered by n.
func Best(results []Result) []Result {
	best := make(map[int]Result)

	for _, r := range results {
		if cur, ok := best[r.Case.N]; !ok || r.NsPerOp < cur.NsPerOp {
			best[r.Case.N] = r
		}
	}

	out := make([]Result, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}

	SortBySize(out)

	return out
}

// RecordWisdom stores the fastest result per n in w and returns the number
// of entries written.
func RecordWisdom(w *algotranspose.Wisdom, results []Result, features uint64, now time.Time) int {
	winners := Best(results)

	for _, r := range winners {
		w.Store(algotranspose.WisdomEntry{
			Key: algotranspose.WisdomKey{
				Size:         r.Case.N,
				ElementBytes: algotranspose.ElementBytes,
				CPUFeatures:  features,
			},
			Strategy:  r.Strategy,
			Tuning:    r.Options.Tuning(),
			NsPerOp:   r.NsPerOp,
			Timestamp: now,
		})
	}

	return len(winners)
}
