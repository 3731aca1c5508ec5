package table

import (
	"github.com/YuminosukeSato/numtable/pkg/errors"
)

// RowMergedTable stacks its constituents vertically: every constituent has
// the same number of columns and rows follow one another in order.
//
// Ownership and invalidation work as for MergedTable. Column metadata is
// taken from the first constituent; metadata updates are applied to all
// of them so that every part keeps describing the same columns.
type RowMergedTable struct {
	composite
}

// NewRowMergedTable creates a row-merged table from tables, in order.
func NewRowMergedTable(tables ...NumericTable) (*RowMergedTable, error) {
	m := &RowMergedTable{}
	for _, t := range tables {
		if err := m.AddTable(t); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// AddTable appends the rows of t. The first table fixes the column count.
func (m *RowMergedTable) AddTable(t NumericTable) error {
	const op = "RowMergedTable.AddTable"
	return m.attach(op, m, t,
		func(s shape) int { return s.rows },
		func(s shape) error {
			if cols := m.NumColumns(); s.cols != cols {
				return errors.NewDimensionMismatchError(op, 1, cols, s.cols)
			}
			return nil
		})
}

func (m *RowMergedTable) NumRows() int { return m.total() }

func (m *RowMergedTable) NumColumns() int {
	if len(m.shapes) == 0 {
		return 0
	}
	return m.shapes[0].cols
}

func (m *RowMergedTable) Layout() string { return LayoutRowMerged }

func (m *RowMergedTable) Feature(col int) (Feature, error) {
	if len(m.tables) == 0 {
		return Feature{}, errors.NewOutOfRangeError("Feature", 1, col, 1, 0)
	}
	return m.tables[0].Feature(col)
}

func (m *RowMergedTable) setFeature(col int, f Feature) {
	for _, t := range m.tables {
		t.setFeature(col, f)
	}
}

// segment is the part of a row range served by one constituent.
type segment struct {
	table NumericTable
	local int // first row inside the constituent
	off   int // first row inside the requested range
	n     int
}

// split cuts rows [start, start+n) at constituent boundaries.
func (m *RowMergedTable) split(start, n int) []segment {
	var segs []segment
	for r, end := start, start+n; r < end; {
		i := m.locate(r)
		take := min(end, m.offsets[i+1]) - r
		segs = append(segs, segment{table: m.tables[i], local: r - m.offsets[i], off: r - start, n: take})
		r += take
	}
	return segs
}

func (m *RowMergedTable) checkColumn(op string, col, start, n int) error {
	for _, s := range m.split(start, n) {
		if err := s.table.checkColumn(op, col, s.local, s.n); err != nil {
			return err
		}
	}
	return nil
}

func (m *RowMergedTable) readRows(start, n int, dst any) error {
	cols := m.NumColumns()
	for _, s := range m.split(start, n) {
		sub := subslice(dst, s.off*cols, (s.off+s.n)*cols)
		if err := s.table.readRows(s.local, s.n, sub); err != nil {
			return err
		}
	}
	return nil
}

func (m *RowMergedTable) writeRows(start, n int, src any) error {
	cols := m.NumColumns()
	for _, s := range m.split(start, n) {
		sub := subslice(src, s.off*cols, (s.off+s.n)*cols)
		if err := s.table.writeRows(s.local, s.n, sub); err != nil {
			return err
		}
	}
	return nil
}

func (m *RowMergedTable) readColumn(col, start, n int, dst any) error {
	for _, s := range m.split(start, n) {
		if err := s.table.readColumn(col, s.local, s.n, subslice(dst, s.off, s.off+s.n)); err != nil {
			return err
		}
	}
	return nil
}

func (m *RowMergedTable) writeColumn(col, start, n int, src any) error {
	for _, s := range m.split(start, n) {
		if err := s.table.writeColumn(col, s.local, s.n, subslice(src, s.off, s.off+s.n)); err != nil {
			return err
		}
	}
	return nil
}
