package algotranspose

import (
	"fmt"
	"time"

	"github.com/cwbudde/algo-transpose/internal/cpu"
	"github.com/cwbudde/algo-transpose/internal/planner"
	"github.com/cwbudde/algo-transpose/internal/tptypes"
)

// PlannerMode controls how much work a Planner spends choosing a kernel.
type PlannerMode uint8

const (
	// PlannerEstimate uses wisdom, then a size heuristic. Nothing is run.
	PlannerEstimate PlannerMode = iota

	// PlannerMeasure times each strategy with the default tuning and keeps
	// the fastest.
	PlannerMeasure

	// PlannerPatient additionally sweeps tile widths and recursion
	// thresholds around the defaults.
	PlannerPatient
)

func (m PlannerMode) String() string {
	switch m {
	case PlannerEstimate:
		return "estimate"
	case PlannerMeasure:
		return "measure"
	case PlannerPatient:
		return "patient"
	default:
		return "unknown"
	}
}

// DefaultMeasureIterations is the number of timed runs per candidate when
// PlanOptions.Iterations is zero.
const DefaultMeasureIterations = 5

// PlanOptions configures a Planner.
type PlanOptions struct {
	Planner PlannerMode

	// Strategy forces a kernel. KernelAuto lets the planner choose.
	Strategy KernelStrategy

	Options Options

	// Wisdom is consulted and, in measuring modes, updated. Nil means
	// DefaultWisdom.
	Wisdom *Wisdom

	// Iterations is the number of timed runs per candidate in measuring
	// modes.
	Iterations int
}

func normalizePlanOptions(opts PlanOptions) PlanOptions {
	if opts.Wisdom == nil {
		opts.Wisdom = planner.DefaultWisdom
	}

	if opts.Iterations <= 0 {
		opts.Iterations = DefaultMeasureIterations
	}

	opts.Options = opts.Options.normalize()

	return opts
}

// Planner creates plans according to PlanOptions.
type Planner struct {
	opts     PlanOptions
	features uint64
}

// NewPlanner returns a planner. Zero options mean estimate planning with
// default tuning against DefaultWisdom.
func NewPlanner(opts PlanOptions) *Planner {
	return &Planner{
		opts:     normalizePlanOptions(opts),
		features: cpu.DetectFeatures().Mask(),
	}
}

// Options returns the normalized planner options.
func (p *Planner) Options() PlanOptions { return p.opts }

// Plan returns a plan for n×n matrices. A forced strategy is bound
// directly. Otherwise estimate mode consults wisdom and the heuristic,
// and the measuring modes time candidates and store the winner in wisdom.
func (p *Planner) Plan(n int) (*Plan, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}

	if err := p.opts.Options.Validate(); err != nil {
		return nil, err
	}

	tuning := p.opts.Options.Tuning()

	if p.opts.Strategy != KernelAuto {
		return NewPlan(n, p.opts.Strategy, p.opts.Options)
	}

	switch p.opts.Planner {
	case PlannerEstimate:
		strategy, t := planner.Estimate(n, tuning, p.opts.Wisdom, p.features)
		return newPlanWithTuning(n, strategy, t)
	case PlannerMeasure, PlannerPatient:
		return p.measure(n, tuning)
	default:
		return nil, fmt.Errorf("algotranspose: unknown planner mode %d", p.opts.Planner)
	}
}

func (p *Planner) measure(n int, tuning planner.Tuning) (*Plan, error) {
	candidates := planner.Candidates(tuning, p.opts.Planner == PlannerPatient)
	results, best := planner.Measure(n, candidates, p.opts.Iterations)
	if best < 0 {
		return nil, fmt.Errorf("%w: no candidate could be measured", ErrUnknownStrategy)
	}

	winner := results[best]
	p.opts.Wisdom.Store(planner.WisdomEntry{
		Key: planner.WisdomKey{
			Size:         n,
			ElementBytes: tptypes.ElementBytes,
			CPUFeatures:  p.features,
		},
		Strategy:  winner.Strategy,
		Tuning:    winner.Tuning,
		NsPerOp:   winner.NsPerOp,
		Timestamp: time.Now(),
	})

	return newPlanWithTuning(n, winner.Strategy, winner.Tuning)
}
