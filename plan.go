package algotranspose

import (
	"fmt"

	"github.com/cwbudde/algo-transpose/internal/cpu"
	"github.com/cwbudde/algo-transpose/internal/layout"
	"github.com/cwbudde/algo-transpose/internal/planner"
)

// Plan is a pre-resolved in-place transpose for one matrix edge. All
// validation and kernel selection happen at construction; a Plan is
// immutable and safe for concurrent use on distinct matrices.
type Plan struct {
	n        int
	strategy KernelStrategy
	opts     Options
	layout   layout.Layout
	kernel   planner.KernelFunc
}

// NewPlan creates a plan for n×n matrices. KernelAuto resolves through
// DefaultWisdom first and a size heuristic second.
//
// Returns ErrInvalidSize if n < 1.
// Returns ErrUnknownStrategy if strategy is not a known value.
// Returns the error of opts.Validate for invalid tuning.
func NewPlan(n int, strategy KernelStrategy, opts Options) (*Plan, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	opts = opts.normalize()
	tuning := opts.Tuning()

	switch strategy {
	case KernelAuto:
		features := cpu.DetectFeatures().Mask()
		strategy, tuning = planner.Estimate(n, tuning, planner.DefaultWisdom, features)
	case KernelRow, KernelBlock, KernelTwoLevel, KernelRecursive:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, uint32(strategy))
	}

	return newPlanWithTuning(n, strategy, tuning)
}

// newPlanWithTuning binds a concrete strategy. Tuning that came from wisdom
// may have been read from a file, so its raw fields are checked before any
// defaulting; a zero tile width must not reach a kernel.
func newPlanWithTuning(n int, strategy KernelStrategy, tuning planner.Tuning) (*Plan, error) {
	if err := checkTuning(tuning); err != nil {
		return nil, fmt.Errorf("tuning for %s: %w", strategy, err)
	}

	opts := optionsFromTuning(tuning).normalize()
	tuning = opts.Tuning()

	kernel := planner.Bind(strategy, tuning)
	if kernel == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, strategy)
	}

	return &Plan{
		n:        n,
		strategy: strategy,
		opts:     opts,
		layout:   planner.Layout(strategy, n, tuning),
		kernel:   kernel,
	}, nil
}

// MustNewPlan is like NewPlan but panics on error.
func MustNewPlan(n int, strategy KernelStrategy, opts Options) *Plan {
	p, err := NewPlan(n, strategy, opts)
	if err != nil {
		panic(err)
	}

	return p
}

// N returns the matrix edge the plan was built for.
func (p *Plan) N() int { return p.n }

// Strategy returns the resolved kernel strategy. It is never KernelAuto.
func (p *Plan) Strategy() KernelStrategy { return p.strategy }

// Options returns the normalized tuning the kernel was bound with.
func (p *Plan) Options() Options { return p.opts }

// Stride returns the row stride the plan's strategy prefers.
func (p *Plan) Stride() int { return p.layout.Stride }

// Layout returns the preferred row stride and the buffer length it needs.
func (p *Plan) Layout() (stride, length int) {
	return p.layout.Stride, p.layout.Len()
}

// NewMatrix allocates a matrix with the plan's preferred layout.
func (p *Plan) NewMatrix() *Matrix {
	return newMatrix(p.layout)
}

// Transpose transposes m in place. Any stride works; padding only affects
// speed.
//
// Returns ErrNilSlice if m is nil.
// Returns ErrLengthMismatch if m.N() differs from the plan's edge.
func (p *Plan) Transpose(m *Matrix) error {
	if m == nil {
		return ErrNilSlice
	}

	if m.l.N != p.n {
		return fmt.Errorf("%w: matrix is %d×%d, plan is %d×%d", ErrLengthMismatch, m.l.N, m.l.N, p.n, p.n)
	}

	p.kernel(m.data, m.l.N, m.l.Stride)

	return nil
}

// TransposeSlice transposes the n×n matrix held in buf with the given row
// stride.
//
// Returns ErrNilSlice if buf is nil.
// Returns ErrInvalidStride if stride < N or stride*N overflows.
// Returns ErrLengthMismatch if buf is shorter than stride*N.
func (p *Plan) TransposeSlice(buf []Element, stride int) error {
	m, err := WrapMatrix(buf, p.n, stride)
	if err != nil {
		return err
	}

	p.kernel(m.data, p.n, stride)

	return nil
}

// Transpose transposes m in place with a one-off plan.
func Transpose(m *Matrix, strategy KernelStrategy, opts Options) error {
	if m == nil {
		return ErrNilSlice
	}

	p, err := NewPlan(m.N(), strategy, opts)
	if err != nil {
		return err
	}

	return p.Transpose(m)
}

// Verify checks strategy on a copy of m: one application must produce the
// exact transpose and a second must restore the original. m itself is not
// modified. A failure wraps ErrVerification and names the first mismatch.
func Verify(m *Matrix, strategy KernelStrategy, opts Options) error {
	if m == nil {
		return ErrNilSlice
	}

	p, err := NewPlan(m.N(), strategy, opts)
	if err != nil {
		return err
	}

	work := m.Clone()
	if err := p.Transpose(work); err != nil {
		return err
	}

	n := m.N()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if got, want := work.At(i, j), m.At(j, i); got != want {
				return fmt.Errorf("%w: %s n=%d: (%d,%d) = %d after one pass, want %d",
					ErrVerification, p.strategy, n, i, j, got, want)
			}
		}
	}

	if err := p.Transpose(work); err != nil {
		return err
	}

	if !work.Equal(m) {
		return fmt.Errorf("%w: %s n=%d: second pass did not restore the input", ErrVerification, p.strategy, n)
	}

	return nil
}
