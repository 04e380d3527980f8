package algotranspose

import (
	"fmt"

	"github.com/cwbudde/algo-transpose/internal/layout"
)

// Matrix is a square row-major matrix stored in a flat buffer whose rows
// may be longer than the matrix edge. Columns past N are padding and never
// part of the logical contents.
type Matrix struct {
	data []Element
	l    layout.Layout
}

// NewMatrix allocates an n×n matrix padded so that its stride has the given
// residue modulo 64. A padResidue of zero allocates a dense matrix.
func NewMatrix(n, padResidue int) (*Matrix, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}

	if padResidue < 0 || padResidue >= layout.Period {
		return nil, fmt.Errorf("%w: %d outside [0,%d)", ErrInvalidPadding, padResidue, layout.Period)
	}

	return newMatrix(layout.New(n, padResidue)), nil
}

// NewUnpaddedMatrix allocates a dense n×n matrix.
func NewUnpaddedMatrix(n int) (*Matrix, error) {
	return NewMatrix(n, 0)
}

// WrapMatrix views buf as an n×n matrix with the given row stride. The
// buffer is shared, not copied.
func WrapMatrix(buf []Element, n, stride int) (*Matrix, error) {
	if buf == nil {
		return nil, ErrNilSlice
	}

	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}

	if stride < n {
		return nil, fmt.Errorf("%w: stride %d < n %d", ErrInvalidStride, stride, n)
	}

	if err := layout.CheckBuffer(len(buf), n, stride); err != nil {
		if stride > int(^uint(0)>>1)/n {
			return nil, fmt.Errorf("%w: %w", ErrInvalidStride, err)
		}

		return nil, fmt.Errorf("%w: %w", ErrLengthMismatch, err)
	}

	l := layout.Layout{N: n, Stride: stride}

	return &Matrix{data: buf[:l.Len()], l: l}, nil
}

func newMatrix(l layout.Layout) *Matrix {
	return &Matrix{data: make([]Element, l.Len()), l: l}
}

// N returns the matrix edge.
func (m *Matrix) N() int { return m.l.N }

// Stride returns the row stride in elements.
func (m *Matrix) Stride() int { return m.l.Stride }

// Data returns the backing buffer including padding columns.
func (m *Matrix) Data() []Element { return m.data }

// At returns element (i, j).
func (m *Matrix) At(i, j int) Element {
	return m.data[m.l.Index(i, j)]
}

// Set stores v at (i, j).
func (m *Matrix) Set(i, j int, v Element) {
	m.data[m.l.Index(i, j)] = v
}

// Fill sets every logical element to f(i, j). Padding is left alone.
func (m *Matrix) Fill(f func(i, j int) Element) {
	for i := 0; i < m.l.N; i++ {
		row := m.data[i*m.l.Stride : i*m.l.Stride+m.l.N]
		for j := range row {
			row[j] = f(i, j)
		}
	}
}

// FillSequential sets element (i, j) to i*N + j.
func (m *Matrix) FillSequential() {
	n := m.l.N
	m.Fill(func(i, j int) Element { return Element(i*n + j) })
}

// FillPadding sets every padding column to v.
func (m *Matrix) FillPadding(v Element) {
	for i := 0; i < m.l.N; i++ {
		pad := m.data[i*m.l.Stride+m.l.N : (i+1)*m.l.Stride]
		for j := range pad {
			pad[j] = v
		}
	}
}

// Logical returns a dense copy of the N×N logical region.
func (m *Matrix) Logical() []Element {
	n := m.l.N
	out := make([]Element, n*n)

	for i := 0; i < n; i++ {
		copy(out[i*n:(i+1)*n], m.data[i*m.l.Stride:i*m.l.Stride+n])
	}

	return out
}

// Clone returns a deep copy with the same layout.
func (m *Matrix) Clone() *Matrix {
	c := newMatrix(m.l)
	copy(c.data, m.data)

	return c
}

// Equal reports whether both matrices have the same edge and the same
// logical contents. Strides and padding are ignored.
func (m *Matrix) Equal(other *Matrix) bool {
	if other == nil || m.l.N != other.l.N {
		return false
	}

	n := m.l.N
	for i := 0; i < n; i++ {
		a := m.data[i*m.l.Stride : i*m.l.Stride+n]
		b := other.data[i*other.l.Stride : i*other.l.Stride+n]

		for j := range a {
			if a[j] != b[j] {
				return false
			}
		}
	}

	return true
}
