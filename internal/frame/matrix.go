// Package frame reconstructs complete tactile-sensor grids from the
// line-oriented serial protocol emitted by the sensor board:
//
//	Row <r>: <v0> <v1> ... <v_{cols-1}>
//
// A Reader consumes lines until a full sweep of rows has been parsed into a
// Matrix. Completed sweeps are handed between goroutines through Latest.
package frame

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Default grid dimensions of the tactile board.
const (
	DefaultRows = 16
	DefaultCols = 4
)

// Matrix is a fixed-size grid of sensor readings stored row-major. Rows are
// only ever replaced as a whole, so every row always holds one complete
// reading.
type Matrix struct {
	rows, cols int
	data       []int
}

// NewMatrix returns a zeroed rows x cols matrix. It panics on non-positive
// dimensions, which are rejected earlier by configuration validation.
func NewMatrix(rows, cols int) *Matrix {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("frame: invalid matrix dimensions %dx%d", rows, cols))
	}
	return &Matrix{rows: rows, cols: cols, data: make([]int, rows*cols)}
}

// NewMatrixFromRows builds a matrix from a slice of equally sized rows.
func NewMatrixFromRows(rows [][]int) (*Matrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("frame: empty matrix")
	}
	m := NewMatrix(len(rows), len(rows[0]))
	for i, r := range rows {
		if err := m.SetRow(i, r); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

// At returns the reading at (row, col).
func (m *Matrix) At(row, col int) int {
	return m.data[row*m.cols+col]
}

// Row returns a copy of the given row.
func (m *Matrix) Row(row int) []int {
	out := make([]int, m.cols)
	copy(out, m.data[row*m.cols:(row+1)*m.cols])
	return out
}

// SetRow replaces an entire row. The row is left untouched unless the index
// is in range and exactly Cols values are supplied.
func (m *Matrix) SetRow(row int, values []int) error {
	if row < 0 || row >= m.rows {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrRowOutOfRange, row, m.rows)
	}
	if len(values) != m.cols {
		return fmt.Errorf("%w: got %d values, want %d", ErrValueCount, len(values), m.cols)
	}
	copy(m.data[row*m.cols:], values)
	return nil
}

// Reset zeroes every reading.
func (m *Matrix) Reset() {
	clear(m.data)
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	c := &Matrix{rows: m.rows, cols: m.cols, data: make([]int, len(m.data))}
	copy(c.data, m.data)
	return c
}

// CopyFrom overwrites m with the contents of src. Both matrices must have the
// same shape.
func (m *Matrix) CopyFrom(src *Matrix) error {
	if src.rows != m.rows || src.cols != m.cols {
		return fmt.Errorf("frame: shape mismatch %dx%d vs %dx%d", src.rows, src.cols, m.rows, m.cols)
	}
	copy(m.data, src.data)
	return nil
}

// Equal reports whether two matrices have the same shape and readings.
func (m *Matrix) Equal(o *Matrix) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}
	for i := range m.data {
		if m.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

// ToRows returns the readings as a freshly allocated slice of rows.
func (m *Matrix) ToRows() [][]int {
	out := make([][]int, m.rows)
	for r := range out {
		out[r] = m.Row(r)
	}
	return out
}

// Dense converts the readings into a gonum dense matrix for plotting and
// statistics.
func (m *Matrix) Dense() *mat.Dense {
	vals := make([]float64, len(m.data))
	for i, v := range m.data {
		vals[i] = float64(v)
	}
	return mat.NewDense(m.rows, m.cols, vals)
}
