package frame

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatrix_ZeroInitialised(t *testing.T) {
	m := NewMatrix(DefaultRows, DefaultCols)
	assert.Equal(t, DefaultRows, m.Rows())
	assert.Equal(t, DefaultCols, m.Cols())
	for r := 0; r < m.Rows(); r++ {
		assert.Equal(t, []int{0, 0, 0, 0}, m.Row(r))
	}
}

func TestNewMatrix_PanicsOnBadShape(t *testing.T) {
	assert.Panics(t, func() { NewMatrix(0, 4) })
	assert.Panics(t, func() { NewMatrix(4, -1) })
}

func TestMatrix_SetRowIsAllOrNothing(t *testing.T) {
	m := NewMatrix(2, 3)
	require.NoError(t, m.SetRow(1, []int{4, 5, 6}))

	assert.ErrorIs(t, m.SetRow(1, []int{9, 9}), ErrValueCount)
	assert.ErrorIs(t, m.SetRow(2, []int{9, 9, 9}), ErrRowOutOfRange)
	assert.ErrorIs(t, m.SetRow(-1, []int{9, 9, 9}), ErrRowOutOfRange)

	if diff := cmp.Diff([][]int{{0, 0, 0}, {4, 5, 6}}, m.ToRows()); diff != "" {
		t.Errorf("matrix mismatch (-want +got):\n%s", diff)
	}
}

func TestMatrix_RowReturnsCopy(t *testing.T) {
	m := NewMatrix(1, 2)
	row := m.Row(0)
	row[0] = 42
	assert.Equal(t, 0, m.At(0, 0))
}

func TestMatrix_CloneAndEqual(t *testing.T) {
	m, err := NewMatrixFromRows([][]int{{1, 2}, {3, 4}})
	require.NoError(t, err)

	c := m.Clone()
	assert.True(t, m.Equal(c))

	require.NoError(t, c.SetRow(0, []int{9, 9}))
	assert.False(t, m.Equal(c))
	assert.Equal(t, []int{1, 2}, m.Row(0))

	assert.False(t, m.Equal(NewMatrix(2, 1)))
	assert.False(t, m.Equal(nil))
	var nilM *Matrix
	assert.True(t, nilM.Equal(nil))
}

func TestMatrix_CopyFromAndReset(t *testing.T) {
	src, err := NewMatrixFromRows([][]int{{1, 2}, {3, 4}})
	require.NoError(t, err)

	dst := NewMatrix(2, 2)
	require.NoError(t, dst.CopyFrom(src))
	assert.True(t, dst.Equal(src))

	assert.Error(t, dst.CopyFrom(NewMatrix(3, 2)))

	dst.Reset()
	assert.True(t, dst.Equal(NewMatrix(2, 2)))
}

func TestNewMatrixFromRows_Errors(t *testing.T) {
	_, err := NewMatrixFromRows(nil)
	assert.Error(t, err)

	_, err = NewMatrixFromRows([][]int{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrValueCount)
}

func TestMatrix_Dense(t *testing.T) {
	m, err := NewMatrixFromRows([][]int{{1, 2}, {3, 30001}})
	require.NoError(t, err)

	d := m.Dense()
	r, c := d.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 30001.0, d.At(1, 1))
	assert.Equal(t, 2.0, d.At(0, 1))
}
