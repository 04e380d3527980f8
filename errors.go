package algotranspose

import "errors"

// Sentinel errors returned by plan construction and plan execution.
// Kernels in internal/transpose panic instead; these cover input that
// arrives from outside the program (options, flags, files).
var (
	// ErrInvalidSize is returned when the matrix edge is < 1.
	ErrInvalidSize = errors.New("algotranspose: invalid matrix size")

	// ErrInvalidStride is returned when a stride is smaller than the matrix
	// edge or stride*n overflows.
	ErrInvalidStride = errors.New("algotranspose: invalid stride")

	// ErrInvalidBlock is returned for tile widths < 1 or an outer tile that
	// is not a larger multiple of the inner tile.
	ErrInvalidBlock = errors.New("algotranspose: invalid block size")

	// ErrInvalidPadding is returned when the pad residue is outside [0, 64).
	ErrInvalidPadding = errors.New("algotranspose: invalid pad residue")

	// ErrInvalidThreshold is returned when the recursion threshold is < 1.
	ErrInvalidThreshold = errors.New("algotranspose: invalid recursion threshold")

	// ErrNilSlice is returned when a nil buffer or matrix is passed in.
	ErrNilSlice = errors.New("algotranspose: nil slice")

	// ErrLengthMismatch is returned when a matrix or buffer does not match
	// the plan's size or is too short for its stride.
	ErrLengthMismatch = errors.New("algotranspose: slice length mismatch")

	// ErrUnknownStrategy is returned for strategy names that do not parse.
	ErrUnknownStrategy = errors.New("algotranspose: unknown kernel strategy")

	// ErrVerification is returned by Verify when a round trip does not
	// restore the input.
	ErrVerification = errors.New("algotranspose: verification failed")
)
