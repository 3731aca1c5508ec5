package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/numtable/pkg/errors"
)

// 対称行列 [[1 2 4] [2 3 5] [4 5 6]] の下三角と上三角
var (
	lowerPacked = []float64{1, 2, 3, 4, 5, 6}
	upperPacked = []float64{1, 2, 4, 3, 5, 6}
	fullMatrix  = []float64{1, 2, 4, 2, 3, 5, 4, 5, 6}
)

func clone(s []float64) []float64 { return append([]float64(nil), s...) }

func TestPacked_SymmetricRows(t *testing.T) {
	for _, tc := range []struct {
		tri Triangle
		buf []float64
	}{
		{Lower, lowerPacked},
		{Upper, upperPacked},
	} {
		t.Run(tc.tri.String(), func(t *testing.T) {
			p, err := FromPacked(clone(tc.buf), 3, Symmetric, tc.tri)
			require.NoError(t, err)

			got, err := ReadAll[float64](p)
			require.NoError(t, err)
			assert.Equal(t, fullMatrix, got)

			b, err := AcquireColumnBlock[float64](p, 2, 0, 3, ReadOnly)
			require.NoError(t, err)
			assert.Equal(t, []float64{4, 5, 6}, b.Data())
			require.NoError(t, b.Release())
		})
	}
}

func TestPacked_TriangularRows(t *testing.T) {
	lower, err := FromPacked(clone(lowerPacked), 3, Triangular, Lower)
	require.NoError(t, err)
	got, err := ReadAll[float64](lower)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0, 2, 3, 0, 4, 5, 6}, got)

	upper, err := FromPacked(clone(upperPacked), 3, Triangular, Upper)
	require.NoError(t, err)
	got, err = ReadAll[float64](upper)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 4, 0, 3, 5, 0, 0, 6}, got)
}

func TestPacked_TriangularColumnOutsideTriangle(t *testing.T) {
	lower, _ := FromPacked(clone(lowerPacked), 3, Triangular, Lower)
	upper, _ := FromPacked(clone(upperPacked), 3, Triangular, Upper)

	tests := []struct {
		name    string
		table   NumericTable
		col     int
		start   int
		n       int
		want    []float64
		wantErr bool
	}{
		{"lower inside", lower, 1, 1, 2, []float64{3, 5}, false},
		{"lower above diagonal", lower, 1, 0, 2, nil, true},
		{"upper inside", upper, 1, 0, 2, []float64{2, 3}, false},
		{"upper below diagonal", upper, 1, 0, 3, nil, true},
		{"empty request", lower, 2, 0, 0, []float64{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := AcquireColumnBlock[float64](tt.table, tt.col, tt.start, tt.n, ReadOnly)
			if tt.wantErr {
				var rangeErr *errors.OutOfRangeError
				require.ErrorAs(t, err, &rangeErr)
				assert.False(t, Busy(tt.table))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, b.Data())
			require.NoError(t, b.Release())
		})
	}
}

func TestPacked_SymmetricWriteBack(t *testing.T) {
	buf := clone(lowerPacked)
	p, _ := FromPacked(buf, 3, Symmetric, Lower)

	// (0,1) だけを変更し、鏡像の (1,0) は元の値のまま
	err := WithRowBlock(p, 0, 2, ReadWrite, func(b *Block[float64]) error {
		b.Set(0, 1, 20)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 20, 3, 4, 5, 6}, buf)

	err = WithColumnBlock(p, 0, 2, 1, WriteOnly, func(b *Block[float64]) error {
		b.Set(0, 0, 40)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 40.0, buf[3])
}

func TestPacked_SymmetricWriteBackNarrowerBlock(t *testing.T) {
	buf := []float64{0.1, 0.2, 0.3}
	p, err := FromPacked(buf, 2, Symmetric, Lower)
	require.NoError(t, err)

	// float32 に丸めた未変更のセルが書き戻されてはいけない
	err = WithRowBlock(p, 0, 2, ReadWrite, func(b *Block[float32]) error {
		b.Set(0, 1, 5)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 5, 0.3}, buf)

	ibuf := []float64{1.5, 2.5, 3.5}
	ip, err := FromPacked(ibuf, 2, Symmetric, Lower)
	require.NoError(t, err)
	err = WithRowBlock(ip, 0, 2, ReadWrite, func(b *Block[int32]) error {
		b.Set(0, 1, 9)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 9, 3.5}, ibuf)
}

func TestPacked_TriangularWriteBackSkipsOutside(t *testing.T) {
	buf := clone(lowerPacked)
	p, _ := FromPacked(buf, 3, Triangular, Lower)

	err := WithRowBlock(p, 0, 3, ReadWrite, func(b *Block[float64]) error {
		b.Set(0, 2, 99)
		b.Set(2, 0, 40)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 40, 5, 6}, buf)
}

func TestFromPacked_Validation(t *testing.T) {
	_, err := FromPacked(make([]int32, 5), 3, Symmetric, Lower)
	var layoutErr *errors.InvalidLayoutError
	assert.ErrorAs(t, err, &layoutErr)

	_, err = FromPacked(make([]int32, 1), 0, Symmetric, Lower)
	assert.ErrorAs(t, err, &layoutErr)
}

func TestPacked_ToGonum(t *testing.T) {
	sym, _ := FromPacked(clone(lowerPacked), 3, Symmetric, Lower)
	m := sym.ToGonum()
	_, ok := m.(*mat.SymDense)
	require.True(t, ok)
	assert.True(t, mat.Equal(m, mat.NewDense(3, 3, fullMatrix)))

	tri, _ := FromPacked(clone(upperPacked), 3, Triangular, Upper)
	tm, ok := tri.ToGonum().(*mat.TriDense)
	require.True(t, ok)
	assert.Equal(t, 0.0, tm.At(2, 0))
	assert.Equal(t, 4.0, tm.At(0, 2))
}
