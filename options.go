package algotranspose

import (
	"fmt"

	"github.com/cwbudde/algo-transpose/internal/layout"
	"github.com/cwbudde/algo-transpose/internal/planner"
	"github.com/cwbudde/algo-transpose/internal/transpose"
)

// Default tuning values. They were measured on x86 machines with 32 KiB L1
// and 64-byte lines and are a starting point, not an invariant.
const (
	DefaultBlockSize          = 64
	DefaultInnerBlockSize     = 4
	DefaultOuterBlockSize     = 1040
	DefaultPadResidue         = 47
	DefaultRecursionThreshold = transpose.DefaultThreshold
)

// Options holds the tuning parameters of the kernels.
//
// Zero fields are replaced by their defaults. Because a zero PadResidue
// therefore means "default", padding is switched off with Unpadded.
type Options struct {
	// BlockSize is the tile edge of the single-level block kernel.
	BlockSize int `json:"block_size"`

	// InnerBlockSize and OuterBlockSize are the tile edges of the two-level
	// kernel. OuterBlockSize must be a larger multiple of InnerBlockSize.
	InnerBlockSize int `json:"inner_block_size"`
	OuterBlockSize int `json:"outer_block_size"`

	// PadResidue is the target stride residue modulo 64 for padded
	// layouts. It must lie in [1, 64).
	PadResidue int `json:"pad_residue"`

	// Unpadded makes every layout dense (stride == n).
	Unpadded bool `json:"unpadded,omitempty"`

	// RecursionThreshold is the edge at or below which the recursive
	// kernel stops splitting.
	RecursionThreshold int `json:"recursion_threshold"`
}

// DefaultOptions returns the default tuning.
func DefaultOptions() Options {
	return Options{
		BlockSize:          DefaultBlockSize,
		InnerBlockSize:     DefaultInnerBlockSize,
		OuterBlockSize:     DefaultOuterBlockSize,
		PadResidue:         DefaultPadResidue,
		RecursionThreshold: DefaultRecursionThreshold,
	}
}

func (o Options) normalize() Options {
	if o.BlockSize == 0 {
		o.BlockSize = DefaultBlockSize
	}

	if o.InnerBlockSize == 0 {
		o.InnerBlockSize = DefaultInnerBlockSize
	}

	if o.OuterBlockSize == 0 {
		o.OuterBlockSize = DefaultOuterBlockSize
	}

	if o.PadResidue == 0 {
		o.PadResidue = DefaultPadResidue
	}

	if o.RecursionThreshold == 0 {
		o.RecursionThreshold = DefaultRecursionThreshold
	}

	return o
}

// Validate reports the first invalid field after zero fields have been
// defaulted. The error wraps one of the package's sentinel errors.
func (o Options) Validate() error {
	o = o.normalize()

	if o.BlockSize < 1 {
		return fmt.Errorf("%w: block size %d", ErrInvalidBlock, o.BlockSize)
	}

	if err := transpose.CheckTiles(o.InnerBlockSize, o.OuterBlockSize); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBlock, err)
	}

	if o.PadResidue < 1 || o.PadResidue >= layout.Period {
		return fmt.Errorf("%w: %d outside [1,%d)", ErrInvalidPadding, o.PadResidue, layout.Period)
	}

	if o.RecursionThreshold < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidThreshold, o.RecursionThreshold)
	}

	return nil
}

// Tuning returns the normalized options in the form wisdom stores them. An
// unpadded layout is recorded as a zero pad residue.
func (o Options) Tuning() Tuning {
	o = o.normalize()
	t := planner.Tuning{
		BlockSize:          o.BlockSize,
		InnerBlockSize:     o.InnerBlockSize,
		OuterBlockSize:     o.OuterBlockSize,
		PadResidue:         o.PadResidue,
		RecursionThreshold: o.RecursionThreshold,
	}
	if o.Unpadded {
		t.PadResidue = 0
	}

	return t
}

func optionsFromTuning(t planner.Tuning) Options {
	o := Options{
		BlockSize:          t.BlockSize,
		InnerBlockSize:     t.InnerBlockSize,
		OuterBlockSize:     t.OuterBlockSize,
		PadResidue:         t.PadResidue,
		RecursionThreshold: t.RecursionThreshold,
	}
	if t.PadResidue == 0 {
		o.PadResidue = DefaultPadResidue
		o.Unpadded = true
	}

	return o
}

// checkTuning validates tuning as stored, without defaulting zero fields.
// A zero pad residue is valid and means an unpadded layout.
func checkTuning(t planner.Tuning) error {
	if t.BlockSize < 1 {
		return fmt.Errorf("%w: block size %d", ErrInvalidBlock, t.BlockSize)
	}

	if err := transpose.CheckTiles(t.InnerBlockSize, t.OuterBlockSize); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBlock, err)
	}

	if t.PadResidue < 0 || t.PadResidue >= layout.Period {
		return fmt.Errorf("%w: %d outside [0,%d)", ErrInvalidPadding, t.PadResidue, layout.Period)
	}

	if t.RecursionThreshold < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidThreshold, t.RecursionThreshold)
	}

	return nil
}
