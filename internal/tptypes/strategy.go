package tptypes

import (
	"fmt"
	"strings"
)

// KernelStrategy selects which in-place transpose kernel a plan runs.
type KernelStrategy uint32

const (
	KernelAuto KernelStrategy = iota
	KernelRow
	KernelBlock
	KernelTwoLevel
	KernelRecursive
)

// Strategies lists the concrete (non-auto) strategies in a stable order.
func Strategies() []KernelStrategy {
	return []KernelStrategy{KernelRow, KernelBlock, KernelTwoLevel, KernelRecursive}
}

// String returns the short name used in wisdom files and CLI flags.
func (s KernelStrategy) String() string {
	switch s {
	case KernelAuto:
		return "auto"
	case KernelRow:
		return "row"
	case KernelBlock:
		return "block"
	case KernelTwoLevel:
		return "block2"
	case KernelRecursive:
		return "recursive"
	default:
		return "unknown"
	}
}

// Padded reports whether the strategy operates on a padded row stride.
// The recursive kernel addresses an unpadded N×N buffer.
func (s KernelStrategy) Padded() bool {
	return s == KernelRow || s == KernelBlock || s == KernelTwoLevel
}

// ParseKernelStrategy is the inverse of String. It also accepts the
// aliases "rec" and "twolevel".
func ParseKernelStrategy(name string) (KernelStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "auto", "":
		return KernelAuto, nil
	case "row":
		return KernelRow, nil
	case "block":
		return KernelBlock, nil
	case "block2", "twolevel":
		return KernelTwoLevel, nil
	case "recursive", "rec":
		return KernelRecursive, nil
	default:
		return KernelAuto, fmt.Errorf("unknown kernel strategy %q", name)
	}
}

// MarshalText encodes the strategy by name.
func (s KernelStrategy) MarshalText() ([]byte, error) {
	if s > KernelRecursive {
		return nil, fmt.Errorf("cannot marshal kernel strategy %d", uint32(s))
	}

	return []byte(s.String()), nil
}

// UnmarshalText accepts every name ParseKernelStrategy does.
func (s *KernelStrategy) UnmarshalText(text []byte) error {
	parsed, err := ParseKernelStrategy(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}
