package table

import (
	"github.com/YuminosukeSato/numtable/pkg/errors"
)

// CSRIndexing selects whether CSR column indices and row offsets count from 1 or 0.
type CSRIndexing int

const (
	OneBased CSRIndexing = iota
	ZeroBased
)

// CSROption configures FromCSR.
type CSROption func(*csrConfig)

type csrConfig struct {
	indexing CSRIndexing
}

// WithCSRIndexing sets the index base. The default is OneBased.
func WithCSRIndexing(ix CSRIndexing) CSROption {
	return func(c *csrConfig) {
		c.indexing = ix
	}
}

// CSRTable stores a sparse matrix as values, column indices and row offsets.
// Row i holds values[rowOffsets[i]-b : rowOffsets[i+1]-b] where b is the
// index base. Blocks are always dense; the table is read-only through
// blocks.
type CSRTable[S Number] struct {
	base
	values     []S
	colIndices []int
	rowOffsets []int
	origin     int
	rows       int
	cols       int
}

// FromCSR validates the three arrays against nCols x nRows and wraps them without copying.
func FromCSR[S Number](values []S, colIndices, rowOffsets []int, nCols, nRows int, opts ...CSROption) (*CSRTable[S], error) {
	const op = "FromCSR"
	cfg := csrConfig{indexing: OneBased}
	for _, opt := range opts {
		opt(&cfg)
	}
	origin := 1
	if cfg.indexing == ZeroBased {
		origin = 0
	}

	if nCols <= 0 || nRows < 0 {
		return nil, errors.NewInvalidLayoutError(op, "invalid dimensions %d x %d", nRows, nCols)
	}
	if len(rowOffsets) != nRows+1 {
		return nil, errors.NewInvalidLayoutError(op, "rowOffsets has length %d, want %d", len(rowOffsets), nRows+1)
	}
	if len(values) != len(colIndices) {
		return nil, errors.NewInvalidLayoutError(op,
			"values has %d elements but colIndices has %d", len(values), len(colIndices))
	}
	if rowOffsets[0] != origin {
		return nil, errors.NewInvalidLayoutError(op, "rowOffsets[0] is %d, want %d", rowOffsets[0], origin)
	}
	for i := 1; i <= nRows; i++ {
		if rowOffsets[i] < rowOffsets[i-1] {
			return nil, errors.NewInvalidLayoutError(op, "rowOffsets decreases at row %d", i-1)
		}
	}
	if got := rowOffsets[nRows] - origin; got != len(values) {
		return nil, errors.NewInvalidLayoutError(op,
			"rowOffsets ends at %d values, but %d values were given", got, len(values))
	}
	for k, c := range colIndices {
		if c < origin || c >= nCols+origin {
			return nil, errors.NewInvalidLayoutError(op,
				"colIndices[%d] = %d outside [%d, %d)", k, c, origin, nCols+origin)
		}
	}

	return &CSRTable[S]{
		base:       newBase(nCols, ElementTypeOf[S]()),
		values:     values,
		colIndices: colIndices,
		rowOffsets: rowOffsets,
		origin:     origin,
		rows:       nRows,
		cols:       nCols,
	}, nil
}

func (t *CSRTable[S]) NumRows() int        { return t.rows }
func (t *CSRTable[S]) NumColumns() int     { return t.cols }
func (t *CSRTable[S]) Layout() string      { return LayoutCSR }
func (t *CSRTable[S]) supportsWrite() bool { return false }

// NNZ returns the number of stored values.
func (t *CSRTable[S]) NNZ() int { return len(t.values) }

// Arrays returns the wrapped values, column indices and row offsets.
func (t *CSRTable[S]) Arrays() (values []S, colIndices, rowOffsets []int) {
	return t.values, t.colIndices, t.rowOffsets
}

func (t *CSRTable[S]) span(row int) (int, int) {
	return t.rowOffsets[row] - t.origin, t.rowOffsets[row+1] - t.origin
}

func (t *CSRTable[S]) readRows(start, n int, dst any) error {
	dense := make([]S, n*t.cols)
	for r := 0; r < n; r++ {
		lo, hi := t.span(start + r)
		row := dense[r*t.cols : (r+1)*t.cols]
		for k := lo; k < hi; k++ {
			row[t.colIndices[k]-t.origin] = t.values[k]
		}
	}
	convertInto(dst, dense)
	return nil
}

func (t *CSRTable[S]) readColumn(col, start, n int, dst any) error {
	column := make([]S, n)
	want := col + t.origin
	for r := 0; r < n; r++ {
		lo, hi := t.span(start + r)
		for k := lo; k < hi; k++ {
			if t.colIndices[k] == want {
				column[r] = t.values[k]
			}
		}
	}
	convertInto(dst, column)
	return nil
}

func (t *CSRTable[S]) writeRows(int, int, any) error {
	return errors.NewUnsupportedAccessError("CSRTable.writeRows", LayoutCSR, "write")
}

func (t *CSRTable[S]) writeColumn(int, int, int, any) error {
	return errors.NewUnsupportedAccessError("CSRTable.writeColumn", LayoutCSR, "write")
}
