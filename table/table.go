package table

import (
	"sync/atomic"

	"github.com/YuminosukeSato/numtable/pkg/errors"
)

// NumericTable is the uniform logical view over every storage layout.
//
// Data is read and written only through blocks: see AcquireRowBlock and
// AcquireColumnBlock. A table allows one outstanding block at a time.
// The interface is sealed; the layouts in this package are its only
// implementations.
type NumericTable interface {
	NumRows() int
	NumColumns() int
	// Feature returns the dictionary entry of column col.
	Feature(col int) (Feature, error)
	// Layout names the storage layout.
	Layout() string

	// Transfer methods. Arguments are already bounds-checked and the table
	// is claimed. dst/src are []float32, []float64, []int32 or []int64 of
	// exactly n*NumColumns() (rows) or n (column) elements.
	readRows(start, n int, dst any) error
	writeRows(start, n int, src any) error
	readColumn(col, start, n int, dst any) error
	writeColumn(col, start, n int, src any) error

	supportsWrite() bool
	// checkColumn rejects column requests a layout cannot serve
	// even though they are inside the table bounds.
	checkColumn(op string, col, start, n int) error
	// validate reports whether the table still has the shape its
	// owners rely on.
	validate(op string) error
	setFeature(col int, f Feature)

	guard() *accessGuard
	children() []NumericTable
}

// accessGuard enforces one outstanding block per table.
type accessGuard struct {
	busy atomic.Bool
}

func (g *accessGuard) tryClaim() bool { return g.busy.CompareAndSwap(false, true) }
func (g *accessGuard) release()       { g.busy.Store(false) }

// Busy reports whether t has an outstanding block or is claimed by a
// composite table with an outstanding block.
func Busy(t NumericTable) bool {
	return t.guard().busy.Load()
}

// nodes returns t and every table it references, each once, parents first.
func nodes(t NumericTable) []NumericTable {
	seen := make(map[NumericTable]struct{})
	var out []NumericTable
	var walk func(NumericTable)
	walk = func(n NumericTable) {
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		out = append(out, n)
		for _, c := range n.children() {
			walk(c)
		}
	}
	walk(t)
	return out
}

// claim marks t and everything it references as busy. On conflict nothing
// stays claimed.
func claim(op string, t NumericTable) error {
	all := nodes(t)
	for i, n := range all {
		if !n.guard().tryClaim() {
			for _, prev := range all[:i] {
				prev.guard().release()
			}
			return errors.NewConcurrentAccessError(op)
		}
	}
	return nil
}

func unclaim(t NumericTable) {
	for _, n := range nodes(t) {
		n.guard().release()
	}
}

// reaches reports whether target is t or referenced by t.
func reaches(t, target NumericTable) bool {
	for _, n := range nodes(t) {
		if n == target {
			return true
		}
	}
	return false
}

// base carries the guard and dictionary shared by the leaf layouts.
type base struct {
	g     accessGuard
	feats []Feature
}

func newBase(cols int, typ ElementType) base {
	feats := make([]Feature, cols)
	for i := range feats {
		feats[i].Type = typ
	}
	return base{feats: feats}
}

func (b *base) Feature(col int) (Feature, error) {
	if col < 0 || col >= len(b.feats) {
		return Feature{}, errors.NewOutOfRangeError("Feature", 1, col, 1, len(b.feats))
	}
	return b.feats[col], nil
}

func (b *base) setFeature(col int, f Feature)           { b.feats[col] = f }
func (b *base) guard() *accessGuard                     { return &b.g }
func (b *base) children() []NumericTable                { return nil }
func (b *base) validate(string) error                   { return nil }
func (b *base) checkColumn(string, int, int, int) error { return nil }
func (b *base) supportsWrite() bool                     { return true }

// ===========================================================================
// Dictionary helpers
// ===========================================================================

func updateFeature(op string, t NumericTable, col int, fn func(*Feature)) error {
	if col < 0 || col >= t.NumColumns() {
		return errors.NewOutOfRangeError(op, 1, col, 1, t.NumColumns())
	}
	f, err := t.Feature(col)
	if err != nil {
		return err
	}
	fn(&f)
	t.setFeature(col, f)
	return nil
}

// SetColumnCategorical flags column col as categorical. Storage is untouched.
func SetColumnCategorical(t NumericTable, col int) error {
	return updateFeature("SetColumnCategorical", t, col, func(f *Feature) {
		f.Kind = Categorical
	})
}

// SetColumnOrdinal flags column col as ordinal.
func SetColumnOrdinal(t NumericTable, col int) error {
	return updateFeature("SetColumnOrdinal", t, col, func(f *Feature) {
		f.Kind = Ordinal
	})
}

// SetNumCategories records the number of distinct categories of column col.
func SetNumCategories(t NumericTable, col, n int) error {
	if n < 0 {
		return errors.NewValidationError("n", "number of categories must be non-negative", n)
	}
	return updateFeature("SetNumCategories", t, col, func(f *Feature) {
		f.NumCategories = n
	})
}

// SetFeatureName names column col.
func SetFeatureName(t NumericTable, col int, name string) error {
	return updateFeature("SetFeatureName", t, col, func(f *Feature) {
		f.Name = name
	})
}

// Features returns the dictionary of t, one entry per column.
func Features(t NumericTable) []Feature {
	out := make([]Feature, t.NumColumns())
	for i := range out {
		out[i], _ = t.Feature(i)
	}
	return out
}
