// Package numtable provides numeric tables for Go: one block-access
// protocol over several in-memory layouts, designed for algorithms that
// stream data through fixed-size row or column blocks.
//
// A table is a rows × columns grid of numbers with per-column metadata
// (element type, continuous/categorical/ordinal kind, category count).
// Algorithms never touch the storage directly. They acquire a block in the
// element type they want, work on it, and release it.
//
// # Layouts
//
//   - HomogenTable: dense row-major buffer of one element type (aliases the caller's slice)
//   - MatrixTable: float64 storage backed by gonum mat.Dense
//   - AOSTable: slice of structs, one numeric field per column
//   - CSRTable: compressed sparse rows, read-only
//   - PackedTable: symmetric or triangular matrix stored as one triangle
//   - MergedTable / RowMergedTable: column-wise or row-wise concatenation of other tables
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/numtable/table"
//	)
//
//	func main() {
//	    // 3 columns × 2 rows
//	    t, err := table.FromDenseBuffer([]float64{1, 2, 3, 4, 5, 6}, 3, 2)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    // read row 1 as float32
//	    b, err := table.AcquireRowBlock[float32](t, 1, 1, table.ReadOnly)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(b.Data()) // [4 5 6]
//	    if err := b.Release(); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// Read-write and write-only blocks copy their contents back into the table on
// Release. While a block is outstanding the table (and, for composites, every
// constituent) refuses further acquisitions with a ConcurrentAccessError.
//
// # Packages
//
//   - table: layouts, block protocol, composites, gonum export
//   - datasource: CSV loading and Apache Arrow interchange
//   - preprocessing: StandardScaler and MinMaxScaler over tables
//   - core/model: estimator base, interfaces and gob persistence
//   - core/parallel: parallel helpers
//   - core/pool: typed scratch buffer pools
//   - pkg/errors: error types on cockroachdb/errors
//   - pkg/log: structured logging on zerolog
//   - cmd/ntable: command line tool (inspect, convert, scale)
package numtable
