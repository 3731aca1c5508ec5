package table

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/numtable/pkg/errors"
)

// ToDense copies t into a new gonum matrix.
// gonum has no empty matrices, so tables without rows or columns are rejected.
func ToDense(t NumericTable) (*mat.Dense, error) {
	r, c := t.NumRows(), t.NumColumns()
	if r == 0 || c == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "ToDense: %s table is %d x %d", t.Layout(), r, c)
	}
	data, err := ReadAll[float64](t)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(r, c, data), nil
}
