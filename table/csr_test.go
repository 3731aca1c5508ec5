package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/numtable/pkg/errors"
)

// 5x5 の疎行列 (1始まりのインデックス)
//
//	 1 -1  0 -3  0
//	-2  5  0  0  0
//	 0  0  4  6  4
//	-4  0  2  7  0
//	 0  8  0  0 -5
func newSampleCSR(t *testing.T) *CSRTable[float64] {
	t.Helper()
	values := []float64{1, -1, -3, -2, 5, 4, 6, 4, -4, 2, 7, 8, -5}
	colIndices := []int{1, 2, 4, 1, 2, 3, 4, 5, 1, 3, 4, 2, 5}
	rowOffsets := []int{1, 4, 6, 9, 12, 14}
	c, err := FromCSR(values, colIndices, rowOffsets, 5, 5)
	require.NoError(t, err)
	return c
}

func TestCSR_RowBlock(t *testing.T) {
	c := newSampleCSR(t)

	b, err := AcquireRowBlock[float64](c, 1, 3, ReadOnly)
	require.NoError(t, err)
	defer b.Release()

	assert.Equal(t, []float64{
		-2, 5, 0, 0, 0,
		0, 0, 4, 6, 4,
		-4, 0, 2, 7, 0,
	}, b.Data())
}

func TestCSR_ColumnBlock(t *testing.T) {
	c := newSampleCSR(t)

	b, err := AcquireColumnBlock[int32](c, 2, 0, 5, ReadOnly)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 0, 4, 2, 0}, b.Data())
	require.NoError(t, b.Release())
	assert.Equal(t, 13, c.NNZ())
}

func TestCSR_Arrays(t *testing.T) {
	c, err := FromCSR([]float64{5, 6}, []int{1, 2}, []int{1, 2, 3}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, c.NNZ())

	values, cols, offsets := c.Arrays()
	assert.Equal(t, []float64{5, 6}, values)
	assert.Equal(t, []int{1, 2}, cols)
	assert.Equal(t, []int{1, 2, 3}, offsets)
}

func TestCSR_ZeroBased(t *testing.T) {
	c, err := FromCSR([]int64{7, 9}, []int{2, 0}, []int{0, 1, 2}, 3, 2, WithCSRIndexing(ZeroBased))
	require.NoError(t, err)

	got, err := ReadAll[int64](c)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 0, 7, 9, 0, 0}, got)
}

func TestCSR_IsReadOnly(t *testing.T) {
	c := newSampleCSR(t)

	for _, mode := range []AccessMode{WriteOnly, ReadWrite} {
		_, err := AcquireRowBlock[float64](c, 0, 1, mode)
		var unsupported *errors.UnsupportedAccessError
		require.ErrorAs(t, err, &unsupported)
		assert.Equal(t, LayoutCSR, unsupported.Layout)

		_, err = AcquireColumnBlock[float64](c, 0, 0, 1, mode)
		assert.ErrorAs(t, err, &unsupported)
	}
	assert.False(t, Busy(c))
}

func TestFromCSR_Validation(t *testing.T) {
	tests := []struct {
		name       string
		values     []float32
		colIndices []int
		rowOffsets []int
		nCols      int
		nRows      int
	}{
		{"offsets too short", []float32{1}, []int{1}, []int{1}, 2, 1},
		{"values and indices differ", []float32{1, 2}, []int{1}, []int{1, 3}, 2, 1},
		{"zero-based first offset", []float32{1}, []int{1}, []int{0, 1}, 2, 1},
		{"decreasing offsets", []float32{1, 2}, []int{1, 2}, []int{1, 3, 2, 3}, 2, 3},
		{"last offset mismatch", []float32{1, 2}, []int{1, 2}, []int{1, 2}, 2, 1},
		{"column index too large", []float32{1}, []int{3}, []int{1, 2}, 2, 1},
		{"column index zero", []float32{1}, []int{0}, []int{1, 2}, 2, 1},
		{"no columns", nil, nil, []int{1}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromCSR(tt.values, tt.colIndices, tt.rowOffsets, tt.nCols, tt.nRows)
			var layoutErr *errors.InvalidLayoutError
			assert.ErrorAs(t, err, &layoutErr)
		})
	}
}

func TestToDense(t *testing.T) {
	d, err := ToDense(newSampleCSR(t))
	require.NoError(t, err)
	assert.Equal(t, 6.0, d.At(2, 3))
	assert.Equal(t, -5.0, d.At(4, 4))

	empty, _ := NewEmptyHomogenTable[float64](3)
	_, err = ToDense(empty)
	assert.ErrorIs(t, err, errors.ErrEmptyData)
}
