package table

import (
	"slices"
	"sort"

	"github.com/YuminosukeSato/numtable/pkg/errors"
	"github.com/YuminosukeSato/numtable/pkg/log"
)

// shape is the size of a constituent when it was attached.
type shape struct {
	rows, cols int
}

// composite holds what column- and row-merged tables have in common:
// a guard, non-owning references to the constituents and their recorded
// shapes, and the running offsets along the merge axis.
type composite struct {
	g       accessGuard
	tables  []NumericTable
	shapes  []shape
	offsets []int // len(tables)+1, offsets[0] == 0
}

func (c *composite) guard() *accessGuard      { return &c.g }
func (c *composite) children() []NumericTable { return c.tables }

// Tables returns the constituents in merge order.
func (c *composite) Tables() []NumericTable { return slices.Clone(c.tables) }

func (c *composite) supportsWrite() bool {
	for _, t := range c.tables {
		if !t.supportsWrite() {
			return false
		}
	}
	return true
}

// validate fails once a constituent no longer has its recorded shape.
func (c *composite) validate(op string) error {
	for i, t := range c.tables {
		want := c.shapes[i]
		if got := t.NumRows(); got != want.rows {
			return errors.NewDimensionMismatchError(op, 0, want.rows, got)
		}
		if got := t.NumColumns(); got != want.cols {
			return errors.NewDimensionMismatchError(op, 1, want.cols, got)
		}
		if err := t.validate(op); err != nil {
			return err
		}
	}
	return nil
}

// locate returns the constituent covering position p along the merge axis.
// A position on a boundary belongs to the later constituent.
func (c *composite) locate(p int) int {
	return sort.Search(len(c.tables), func(i int) bool {
		return c.offsets[i+1] > p
	})
}

// attach appends t after the common checks. check runs with the composite
// claimed and rejects tables whose size does not fit.
func (c *composite) attach(op string, self, t NumericTable, extent func(shape) int, check func(shape) error) error {
	if t == nil {
		return errors.NewValidationError("table", "cannot merge a nil table", nil)
	}
	if reaches(t, self) {
		return errors.NewInvalidLayoutError(op, "a %s table cannot contain itself", self.Layout())
	}
	if !c.g.tryClaim() {
		return errors.NewConcurrentAccessError(op)
	}
	defer c.g.release()

	s := shape{rows: t.NumRows(), cols: t.NumColumns()}
	if len(c.tables) > 0 {
		if err := check(s); err != nil {
			return err
		}
	}
	if len(c.offsets) == 0 {
		c.offsets = []int{0}
	}
	c.tables = append(c.tables, t)
	c.shapes = append(c.shapes, s)
	c.offsets = append(c.offsets, c.offsets[len(c.offsets)-1]+extent(s))

	logger().Debug("table attached",
		log.OperationKey, log.OperationAttach,
		log.LayoutKey, self.Layout(),
		log.ConstituentsKey, len(c.tables),
		log.RowsKey, s.rows,
		log.ColumnsKey, s.cols,
	)
	return nil
}

func (c *composite) total() int {
	if len(c.offsets) == 0 {
		return 0
	}
	return c.offsets[len(c.offsets)-1]
}

// ===========================================================================
// Column-merged
// ===========================================================================

// MergedTable places its constituents side by side: every constituent has
// the same number of rows and the columns are concatenated left to right.
//
// The merged table does not own its constituents. While a block of the
// merged table is outstanding, every constituent is busy too. If a
// constituent changes shape after it was added, the merged table fails
// every later acquire with DimensionMismatchError.
type MergedTable struct {
	composite
}

// NewMergedTable creates a column-merged table from tables, in order.
func NewMergedTable(tables ...NumericTable) (*MergedTable, error) {
	m := &MergedTable{}
	for _, t := range tables {
		if err := m.AddTable(t); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// AddTable appends the columns of t. The first table fixes the row count;
// later tables must match it.
func (m *MergedTable) AddTable(t NumericTable) error {
	const op = "MergedTable.AddTable"
	return m.attach(op, m, t,
		func(s shape) int { return s.cols },
		func(s shape) error {
			if rows := m.NumRows(); s.rows != rows {
				return errors.NewDimensionMismatchError(op, 0, rows, s.rows)
			}
			return nil
		})
}

func (m *MergedTable) NumRows() int {
	if len(m.shapes) == 0 {
		return 0
	}
	return m.shapes[0].rows
}

func (m *MergedTable) NumColumns() int { return m.total() }
func (m *MergedTable) Layout() string  { return LayoutMerged }

func (m *MergedTable) owner(col int) (NumericTable, int) {
	i := m.locate(col)
	return m.tables[i], col - m.offsets[i]
}

func (m *MergedTable) Feature(col int) (Feature, error) {
	if col < 0 || col >= m.NumColumns() {
		return Feature{}, errors.NewOutOfRangeError("Feature", 1, col, 1, m.NumColumns())
	}
	t, local := m.owner(col)
	return t.Feature(local)
}

func (m *MergedTable) setFeature(col int, f Feature) {
	t, local := m.owner(col)
	t.setFeature(local, f)
}

func (m *MergedTable) checkColumn(op string, col, start, n int) error {
	t, local := m.owner(col)
	return t.checkColumn(op, local, start, n)
}

// region is where constituent i's columns sit inside a merged row block.
func (m *MergedTable) region(i int) rect {
	w := m.shapes[i].cols
	return rect{off: m.offsets[i], rowStride: m.NumColumns(), colStride: 1, cols: w}
}

func (m *MergedTable) readRows(start, n int, dst any) error {
	for i, t := range m.tables {
		w := m.shapes[i].cols
		buf := scratchLike(dst, n*w)
		if err := t.readRows(start, n, buf); err != nil {
			putScratch(buf)
			return err
		}
		copyRect(dst, m.region(i), buf, contiguous(0, w), n)
		putScratch(buf)
	}
	return nil
}

func (m *MergedTable) writeRows(start, n int, src any) error {
	for i, t := range m.tables {
		w := m.shapes[i].cols
		buf := scratchLike(src, n*w)
		copyRect(buf, contiguous(0, w), src, m.region(i), n)
		err := t.writeRows(start, n, buf)
		putScratch(buf)
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *MergedTable) readColumn(col, start, n int, dst any) error {
	t, local := m.owner(col)
	return t.readColumn(local, start, n, dst)
}

func (m *MergedTable) writeColumn(col, start, n int, src any) error {
	t, local := m.owner(col)
	return t.writeColumn(local, start, n, src)
}
