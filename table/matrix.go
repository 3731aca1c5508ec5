package table

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/numtable/pkg/errors"
)

// MatrixTable is a float64 dense table backed by a gonum *mat.Dense.
// Besides blocks it offers single-cell reads and writes, and it satisfies
// mat.Matrix so it can be handed straight to gonum routines.
type MatrixTable struct {
	base
	m *mat.Dense
}

var _ mat.Matrix = (*MatrixTable)(nil)

// NewMatrixTable wraps buf (nRows x nCols, row-major) without copying.
func NewMatrixTable(buf []float64, nCols, nRows int) (*MatrixTable, error) {
	const op = "NewMatrixTable"
	if nCols <= 0 || nRows <= 0 {
		return nil, errors.NewInvalidLayoutError(op, "matrix needs positive dimensions, got %d x %d", nRows, nCols)
	}
	if len(buf) != nCols*nRows {
		return nil, errors.NewInvalidLayoutError(op,
			"buffer has %d elements, want %d (%d rows x %d columns)", len(buf), nCols*nRows, nRows, nCols)
	}
	return FromDense(mat.NewDense(nRows, nCols, buf)), nil
}

// FromDense wraps m; the table and m share storage.
func FromDense(m *mat.Dense) *MatrixTable {
	_, c := m.Dims()
	return &MatrixTable{base: newBase(c, Float64), m: m}
}

func (t *MatrixTable) NumRows() int {
	r, _ := t.m.Dims()
	return r
}

func (t *MatrixTable) NumColumns() int {
	_, c := t.m.Dims()
	return c
}

func (t *MatrixTable) Layout() string { return LayoutMatrix }

// Dims implements mat.Matrix.
func (t *MatrixTable) Dims() (r, c int) { return t.m.Dims() }

// At implements mat.Matrix. It panics on out-of-range indices like gonum does.
func (t *MatrixTable) At(i, j int) float64 { return t.m.At(i, j) }

// T implements mat.Matrix.
func (t *MatrixTable) T() mat.Matrix { return t.m.T() }

// Dense returns the underlying matrix.
func (t *MatrixTable) Dense() *mat.Dense { return t.m }

// Set stores v at row i, column j. Like a one-cell block it fails while
// another block is outstanding.
func (t *MatrixTable) Set(i, j int, v float64) error {
	const op = "MatrixTable.Set"
	r, c := t.m.Dims()
	if i < 0 || i >= r {
		return errors.NewOutOfRangeError(op, 0, i, 1, r)
	}
	if j < 0 || j >= c {
		return errors.NewOutOfRangeError(op, 1, j, 1, c)
	}
	if err := claim(op, t); err != nil {
		return err
	}
	defer unclaim(t)
	t.m.Set(i, j, v)
	return nil
}

func (t *MatrixTable) raw(start, col int) ([]float64, int) {
	rm := t.m.RawMatrix()
	return rm.Data, start*rm.Stride + col
}

func (t *MatrixTable) readRows(start, n int, dst any) error {
	data, off := t.raw(start, 0)
	rm := t.m.RawMatrix()
	gatherAny(dst, data, rect{off: off, rowStride: rm.Stride, colStride: 1, cols: rm.Cols})
	return nil
}

func (t *MatrixTable) writeRows(start, n int, src any) error {
	data, off := t.raw(start, 0)
	rm := t.m.RawMatrix()
	scatterAny(data, rect{off: off, rowStride: rm.Stride, colStride: 1, cols: rm.Cols}, src)
	return nil
}

func (t *MatrixTable) readColumn(col, start, n int, dst any) error {
	data, off := t.raw(start, col)
	gatherAny(dst, data, rect{off: off, rowStride: t.m.RawMatrix().Stride, colStride: 1, cols: 1})
	return nil
}

func (t *MatrixTable) writeColumn(col, start, n int, src any) error {
	data, off := t.raw(start, col)
	scatterAny(data, rect{off: off, rowStride: t.m.RawMatrix().Stride, colStride: 1, cols: 1}, src)
	return nil
}
