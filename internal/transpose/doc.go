// Package transpose implements in-place transposes of dense square
// matrices stored row-major in a flat slice.
//
// All kernels perform the same permutation: element (i, j) is exchanged
// with element (j, i) through pairwise swaps, diagonal elements stay put,
// and no second N×N buffer is allocated. They differ only in the order the
// swaps are issued, which is what decides cache behavior:
//
//   - Row walks the upper triangle row by row. The far operand strides by a
//     full row per element.
//   - Block tiles the index space with B×B tiles so a tile and its mirror
//     fit in the fastest cache level.
//   - TwoLevel nests B×B tiles inside B2×B2 tiles to reuse data in two cache
//     levels in one pass.
//   - Recursive halves the problem until it fits any cache, without a tuning
//     parameter beyond the base-case threshold.
//
// Violated preconditions (short buffer, stride < n, non-positive tile
// sizes) are programming errors and panic.
package transpose
