package algotranspose

import (
	"fmt"

	"github.com/cwbudde/algo-transpose/internal/tptypes"
)

// Element is the matrix element type.
// The canonical definition is in internal/tptypes.
type Element = tptypes.Element

// ElementBytes is the size of one Element in bytes.
const ElementBytes = tptypes.ElementBytes

// KernelStrategy selects a transpose kernel.
type KernelStrategy = tptypes.KernelStrategy

// Kernel strategies.
const (
	KernelAuto      = tptypes.KernelAuto
	KernelRow       = tptypes.KernelRow
	KernelBlock     = tptypes.KernelBlock
	KernelTwoLevel  = tptypes.KernelTwoLevel
	KernelRecursive = tptypes.KernelRecursive
)

// Strategies returns every concrete strategy in a stable order.
func Strategies() []KernelStrategy {
	return tptypes.Strategies()
}

// ParseKernelStrategy parses a strategy name as printed by String. It wraps
// ErrUnknownStrategy on failure.
func ParseKernelStrategy(name string) (KernelStrategy, error) {
	s, err := tptypes.ParseKernelStrategy(name)
	if err != nil {
		return KernelAuto, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}

	return s, nil
}
