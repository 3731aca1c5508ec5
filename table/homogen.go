package table

import (
	"github.com/YuminosukeSato/numtable/pkg/errors"
	"github.com/YuminosukeSato/numtable/pkg/log"
)

// HomogenTable stores every column with the same element type S in one
// flat row-major slice.
//
// A table built with FromDenseBuffer aliases the caller's slice: writes
// released through blocks show up in the caller's slice, and edits the
// caller makes to the slice show up in later blocks.
type HomogenTable[S Number] struct {
	base
	data []S
	cols int
	rows int
}

// FromDenseBuffer wraps buf, which holds nRows rows of nCols values, without copying.
func FromDenseBuffer[S Number](buf []S, nCols, nRows int) (*HomogenTable[S], error) {
	const op = "FromDenseBuffer"
	if nCols <= 0 {
		return nil, errors.NewInvalidLayoutError(op, "nCols must be positive, got %d", nCols)
	}
	if nRows < 0 {
		return nil, errors.NewInvalidLayoutError(op, "nRows must be non-negative, got %d", nRows)
	}
	if len(buf) != nCols*nRows {
		return nil, errors.NewInvalidLayoutError(op,
			"buffer has %d elements, want %d (%d rows x %d columns)", len(buf), nCols*nRows, nRows, nCols)
	}
	return &HomogenTable[S]{
		base: newBase(nCols, ElementTypeOf[S]()),
		data: buf[:len(buf):len(buf)],
		cols: nCols,
		rows: nRows,
	}, nil
}

// NewHomogenTable allocates a zero-filled table of nRows x nCols.
func NewHomogenTable[S Number](nCols, nRows int) (*HomogenTable[S], error) {
	if nRows < 0 {
		return nil, errors.NewInvalidLayoutError("NewHomogenTable", "nRows must be non-negative, got %d", nRows)
	}
	if nCols <= 0 {
		return nil, errors.NewInvalidLayoutError("NewHomogenTable", "nCols must be positive, got %d", nCols)
	}
	return FromDenseBuffer(make([]S, nCols*nRows), nCols, nRows)
}

// NewEmptyHomogenTable creates a table with nCols columns and no rows,
// to be filled with AppendRows when the row count is not known up front.
func NewEmptyHomogenTable[S Number](nCols int) (*HomogenTable[S], error) {
	return NewHomogenTable[S](nCols, 0)
}

func (h *HomogenTable[S]) NumRows() int    { return h.rows }
func (h *HomogenTable[S]) NumColumns() int { return h.cols }
func (h *HomogenTable[S]) Layout() string  { return LayoutHomogen }

// Buffer returns the backing slice. For tables built with FromDenseBuffer
// this is the caller's slice until AppendRows or Resize has to grow it.
func (h *HomogenTable[S]) Buffer() []S { return h.data }

// AppendRows appends whole rows to the table. Composite tables holding h
// reject further access after its row count changes.
func (h *HomogenTable[S]) AppendRows(rows []S) error {
	const op = "HomogenTable.AppendRows"
	if len(rows)%h.cols != 0 {
		return errors.NewInvalidLayoutError(op,
			"%d values is not a whole number of %d-column rows", len(rows), h.cols)
	}
	if err := claim(op, h); err != nil {
		return err
	}
	defer unclaim(h)

	h.data = append(h.data, rows...)
	h.rows += len(rows) / h.cols
	logger().Debug("rows appended",
		log.OperationKey, log.OperationAppend,
		log.LayoutKey, LayoutHomogen,
		log.RowsKey, h.rows,
	)
	return nil
}

// Resize changes the row count, zero-filling new rows.
func (h *HomogenTable[S]) Resize(nRows int) error {
	const op = "HomogenTable.Resize"
	if nRows < 0 {
		return errors.NewInvalidLayoutError(op, "nRows must be non-negative, got %d", nRows)
	}
	if err := claim(op, h); err != nil {
		return err
	}
	defer unclaim(h)

	need := nRows * h.cols
	if need <= cap(h.data) {
		old := len(h.data)
		h.data = h.data[:need]
		if need > old {
			clear(h.data[old:])
		}
	} else {
		grown := make([]S, need)
		copy(grown, h.data)
		h.data = grown
	}
	h.rows = nRows
	return nil
}

func (h *HomogenTable[S]) readRows(start, n int, dst any) error {
	convertInto(dst, h.data[start*h.cols:(start+n)*h.cols])
	return nil
}

func (h *HomogenTable[S]) writeRows(start, n int, src any) error {
	convertFrom(h.data[start*h.cols:(start+n)*h.cols], src)
	return nil
}

func (h *HomogenTable[S]) readColumn(col, start, n int, dst any) error {
	gatherAny(dst, h.data, rect{off: start*h.cols + col, rowStride: h.cols, colStride: 1, cols: 1})
	return nil
}

func (h *HomogenTable[S]) writeColumn(col, start, n int, src any) error {
	scatterAny(h.data, rect{off: start*h.cols + col, rowStride: h.cols, colStride: 1, cols: 1}, src)
	return nil
}
