package table

import (
	"github.com/YuminosukeSato/numtable/pkg/errors"
	"github.com/YuminosukeSato/numtable/pkg/log"
)

type blockKind int

const (
	rowBlock blockKind = iota
	columnBlock
)

// Block is a region of a table checked out for reading or writing.
//
// Data is a private buffer of T values; it never aliases table storage.
// Writes reach the table when the block is released, and only for blocks
// acquired with WriteOnly or ReadWrite. Every acquired block must be
// released exactly once, on every path:
//
//	b, err := table.AcquireRowBlock[float32](t, 0, 10, table.ReadWrite)
//	if err != nil {
//	    return err
//	}
//	defer b.Release()
type Block[T Number] struct {
	table    NumericTable
	kind     blockKind
	mode     AccessMode
	start    int
	rows     int
	cols     int
	column   int
	data     []T
	released bool
}

// Data returns the block values, row-major. It returns nil after Release.
func (b *Block[T]) Data() []T { return b.data }

// At returns the value at block-relative row r and column c.
func (b *Block[T]) At(r, c int) T { return b.data[r*b.cols+c] }

// Set stores v at block-relative row r and column c.
func (b *Block[T]) Set(r, c int, v T) { b.data[r*b.cols+c] = v }

// Row returns the values of block-relative row r, sharing memory with Data.
func (b *Block[T]) Row(r int) []T { return b.data[r*b.cols : (r+1)*b.cols] }

// NumRows returns the number of rows in the block.
func (b *Block[T]) NumRows() int { return b.rows }

// NumColumns returns the number of columns in the block; 1 for column blocks.
func (b *Block[T]) NumColumns() int { return b.cols }

// StartRow returns the first table row covered by the block.
func (b *Block[T]) StartRow() int { return b.start }

// Column returns the table column of a column block, or -1 for a row block.
func (b *Block[T]) Column() int {
	if b.kind == rowBlock {
		return -1
	}
	return b.column
}

// Mode returns the access mode the block was acquired with.
func (b *Block[T]) Mode() AccessMode { return b.mode }

// Released reports whether Release has been called.
func (b *Block[T]) Released() bool { return b.released }

// Release writes the block back if it was acquired for writing, then frees
// the table for the next block. The table is freed even when write-back
// fails. Releasing a block twice is a no-op.
func (b *Block[T]) Release() error {
	if b == nil || b.released {
		return nil
	}
	b.released = true
	defer unclaim(b.table)

	op := log.OperationReleaseRows
	if b.kind == columnBlock {
		op = log.OperationReleaseColumn
	}
	traceBlock(op, b.table, b.start, b.rows, b.Column(), b.mode)

	var err error
	if b.mode.writes() && b.rows > 0 {
		if err = b.table.validate("Release"); err == nil {
			if b.kind == rowBlock {
				err = b.table.writeRows(b.start, b.rows, b.data)
			} else {
				err = b.table.writeColumn(b.column, b.start, b.rows, b.data)
			}
		}
		if err != nil {
			logger().Error("block write-back failed", err,
				log.LayoutKey, b.table.Layout(),
				log.OperationKey, op,
			)
		}
	}
	b.data = nil
	return err
}

// ReleaseRowBlock releases a block obtained from AcquireRowBlock.
func ReleaseRowBlock[T Number](b *Block[T]) error {
	if b != nil && b.kind != rowBlock {
		return errors.NewValidationError("block", "ReleaseRowBlock called with a column block", b.column)
	}
	return b.Release()
}

// ReleaseColumnBlock releases a block obtained from AcquireColumnBlock.
func ReleaseColumnBlock[T Number](b *Block[T]) error {
	if b != nil && b.kind != columnBlock {
		return errors.NewValidationError("block", "ReleaseColumnBlock called with a row block", b.start)
	}
	return b.Release()
}

func checkMode(op string, t NumericTable, mode AccessMode) error {
	if !mode.valid() {
		return errors.NewValidationError("mode", "unknown access mode", int(mode))
	}
	if mode.writes() && !t.supportsWrite() {
		return errors.NewUnsupportedAccessError(op, t.Layout(), mode.String())
	}
	return nil
}

func checkRows(op string, t NumericTable, start, n int) error {
	rows := t.NumRows()
	if start < 0 || n < 0 || start > rows || n > rows-start {
		return errors.NewOutOfRangeError(op, 0, start, n, rows)
	}
	return nil
}

// AcquireRowBlock checks out rows [start, start+n) of t converted to T.
//
// It fails with OutOfRangeError if the range exceeds the table, and with
// ConcurrentAccessError if t (or a table it is composed of, or a table it is
// part of) already has an outstanding block. On failure nothing changes.
func AcquireRowBlock[T Number](t NumericTable, start, n int, mode AccessMode) (*Block[T], error) {
	const op = "AcquireRowBlock"
	if err := checkMode(op, t, mode); err != nil {
		return nil, err
	}
	if err := t.validate(op); err != nil {
		return nil, err
	}
	if err := checkRows(op, t, start, n); err != nil {
		return nil, err
	}
	if err := claim(op, t); err != nil {
		warnConflict(op, t, err)
		return nil, err
	}

	cols := t.NumColumns()
	b := &Block[T]{
		table:  t,
		kind:   rowBlock,
		mode:   mode,
		start:  start,
		rows:   n,
		cols:   cols,
		column: -1,
		data:   make([]T, n*cols),
	}
	if mode.reads() && n > 0 && cols > 0 {
		if err := t.readRows(start, n, b.data); err != nil {
			unclaim(t)
			return nil, err
		}
	}
	traceBlock(log.OperationAcquireRows, t, start, n, -1, mode)
	return b, nil
}

// AcquireColumnBlock checks out rows [start, start+n) of column col converted to T.
// Failure modes match AcquireRowBlock; packed triangular tables also reject
// ranges that leave the stored triangle.
func AcquireColumnBlock[T Number](t NumericTable, col, start, n int, mode AccessMode) (*Block[T], error) {
	const op = "AcquireColumnBlock"
	if err := checkMode(op, t, mode); err != nil {
		return nil, err
	}
	if err := t.validate(op); err != nil {
		return nil, err
	}
	if col < 0 || col >= t.NumColumns() {
		return nil, errors.NewOutOfRangeError(op, 1, col, 1, t.NumColumns())
	}
	if err := checkRows(op, t, start, n); err != nil {
		return nil, err
	}
	if err := t.checkColumn(op, col, start, n); err != nil {
		return nil, err
	}
	if err := claim(op, t); err != nil {
		warnConflict(op, t, err)
		return nil, err
	}

	b := &Block[T]{
		table:  t,
		kind:   columnBlock,
		mode:   mode,
		start:  start,
		rows:   n,
		cols:   1,
		column: col,
		data:   make([]T, n),
	}
	if mode.reads() && n > 0 {
		if err := t.readColumn(col, start, n, b.data); err != nil {
			unclaim(t)
			return nil, err
		}
	}
	traceBlock(log.OperationAcquireColumn, t, start, n, col, mode)
	return b, nil
}

// WithRowBlock acquires a row block, passes it to fn and releases it on
// every path. The release error is returned when fn succeeds.
func WithRowBlock[T Number](t NumericTable, start, n int, mode AccessMode, fn func(*Block[T]) error) (err error) {
	b, err := AcquireRowBlock[T](t, start, n, mode)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := b.Release(); err == nil {
			err = rerr
		}
	}()
	return fn(b)
}

// WithColumnBlock is WithRowBlock for column blocks.
func WithColumnBlock[T Number](t NumericTable, col, start, n int, mode AccessMode, fn func(*Block[T]) error) (err error) {
	b, err := AcquireColumnBlock[T](t, col, start, n, mode)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := b.Release(); err == nil {
			err = rerr
		}
	}()
	return fn(b)
}

// ReadAll returns a row-major copy of the whole table converted to T.
func ReadAll[T Number](t NumericTable) ([]T, error) {
	b, err := AcquireRowBlock[T](t, 0, t.NumRows(), ReadOnly)
	if err != nil {
		return nil, err
	}
	data := b.Data()
	// block buffers are never pooled, so data stays valid after release
	return data, b.Release()
}
