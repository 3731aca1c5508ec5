package datasource

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/YuminosukeSato/numtable/pkg/errors"
	"github.com/YuminosukeSato/numtable/pkg/log"
	"github.com/YuminosukeSato/numtable/table"
)

// Field metadata keys carrying the column dictionary through Arrow.
const (
	MetaKind          = "numtable.kind"
	MetaNumCategories = "numtable.num_categories"
)

func arrowType(e table.ElementType) arrow.DataType {
	switch e {
	case table.Float32:
		return arrow.PrimitiveTypes.Float32
	case table.Int32:
		return arrow.PrimitiveTypes.Int32
	case table.Int64:
		return arrow.PrimitiveTypes.Int64
	default:
		return arrow.PrimitiveTypes.Float64
	}
}

func fieldFor(col int, f table.Feature) arrow.Field {
	name := f.Name
	if name == "" {
		name = "x" + strconv.Itoa(col)
	}
	return arrow.Field{
		Name: name,
		Type: arrowType(f.Type),
		Metadata: arrow.NewMetadata(
			[]string{MetaKind, MetaNumCategories},
			[]string{f.Kind.String(), strconv.Itoa(f.NumCategories)},
		),
	}
}

// ToArrowRecord exports t as one record batch. Each column keeps the
// element type of its dictionary entry. A nil mem uses the default allocator.
// The caller must Release the record.
func ToArrowRecord(t table.NumericTable, mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	feats := table.Features(t)
	fields := make([]arrow.Field, len(feats))
	cols := make([]arrow.Array, 0, len(feats))
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	for j, f := range feats {
		fields[j] = fieldFor(j, f)
		var (
			arr arrow.Array
			err error
		)
		switch f.Type {
		case table.Float32:
			arr, err = columnArray[float32](t, j, mem)
		case table.Int32:
			arr, err = columnArray[int32](t, j, mem)
		case table.Int64:
			arr, err = columnArray[int64](t, j, mem)
		default:
			arr, err = columnArray[float64](t, j, mem)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "export column %d", j)
		}
		cols = append(cols, arr)
	}

	schema := arrow.NewSchema(fields, nil)
	// NewRecord retains the columns; the deferred Release drops our references.
	return array.NewRecord(schema, cols, int64(t.NumRows())), nil
}

func columnArray[T table.Number](t table.NumericTable, col int, mem memory.Allocator) (arrow.Array, error) {
	var data []T
	if n := t.NumRows(); n > 0 {
		err := table.WithColumnBlock(t, col, 0, n, table.ReadOnly, func(b *table.Block[T]) error {
			data = b.Data()
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	switch d := any(data).(type) {
	case []float32:
		b := array.NewFloat32Builder(mem)
		defer b.Release()
		b.AppendValues(d, nil)
		return b.NewArray(), nil
	case []int32:
		b := array.NewInt32Builder(mem)
		defer b.Release()
		b.AppendValues(d, nil)
		return b.NewArray(), nil
	case []int64:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		b.AppendValues(d, nil)
		return b.NewArray(), nil
	case []float64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		b.AppendValues(d, nil)
		return b.NewArray(), nil
	default:
		return nil, errors.Newf("unsupported element type %T", data)
	}
}

// FromArrowRecord imports rec into a new float64 table. Nulls become NaN.
// Column names and kinds are restored from the field metadata.
func FromArrowRecord(rec arrow.Record) (*table.HomogenTable[float64], error) {
	t, err := emptyFor(rec.Schema())
	if err != nil {
		return nil, err
	}
	if err := appendRecord(t, rec); err != nil {
		return nil, err
	}
	return t, nil
}

func emptyFor(schema *arrow.Schema) (*table.HomogenTable[float64], error) {
	const op = "FromArrowRecord"
	if schema.NumFields() == 0 {
		return nil, errors.NewInvalidLayoutError(op, "schema has no fields")
	}
	t, err := table.NewEmptyHomogenTable[float64](schema.NumFields())
	if err != nil {
		return nil, err
	}
	for j, f := range schema.Fields() {
		if err := applyField(t, j, f); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func applyField(t table.NumericTable, col int, f arrow.Field) error {
	if err := table.SetFeatureName(t, col, f.Name); err != nil {
		return err
	}
	var kind table.FeatureKind
	if i := f.Metadata.FindKey(MetaKind); i >= 0 {
		kind = table.ParseFeatureKind(f.Metadata.Values()[i])
	}
	switch kind {
	case table.Categorical:
		if err := table.SetColumnCategorical(t, col); err != nil {
			return err
		}
		if i := f.Metadata.FindKey(MetaNumCategories); i >= 0 {
			n, err := strconv.Atoi(f.Metadata.Values()[i])
			if err != nil {
				return errors.Wrapf(err, "field %s: bad %s", f.Name, MetaNumCategories)
			}
			return table.SetNumCategories(t, col, n)
		}
	case table.Ordinal:
		return table.SetColumnOrdinal(t, col)
	}
	return nil
}

// appendRecord appends the rows of rec to t, converting every column to float64.
func appendRecord(t *table.HomogenTable[float64], rec arrow.Record) error {
	const op = "FromArrowRecord"
	cols := int(rec.NumCols())
	if cols != t.NumColumns() {
		return errors.NewDimensionMismatchError(op, 1, t.NumColumns(), cols)
	}
	rows := int(rec.NumRows())
	buf := make([]float64, rows*cols)
	for j := 0; j < cols; j++ {
		col := rec.Column(j)
		var at func(i int) float64
		switch a := col.(type) {
		case *array.Float64:
			at = a.Value
		case *array.Float32:
			at = func(i int) float64 { return float64(a.Value(i)) }
		case *array.Int32:
			at = func(i int) float64 { return float64(a.Value(i)) }
		case *array.Int64:
			at = func(i int) float64 { return float64(a.Value(i)) }
		default:
			return errors.NewInvalidLayoutError(op,
				"field %s has unsupported type %s", rec.ColumnName(j), col.DataType())
		}
		for i := 0; i < rows; i++ {
			v := math.NaN()
			if col.IsValid(i) {
				v = at(i)
			}
			buf[i*cols+j] = v
		}
	}
	return t.AppendRows(buf)
}

// Compression selects the body codec of an Arrow IPC stream.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionLZ4  Compression = "lz4"
	CompressionZstd Compression = "zstd"
)

// ParseCompression parses a codec name. The empty string means none.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(strings.ToLower(s)); c {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionLZ4, CompressionZstd:
		return c, nil
	default:
		return "", errors.NewValidationError("compression", "must be none, lz4 or zstd", s)
	}
}

// IPCOption configures WriteArrowIPC.
type IPCOption func(*ipcConfig)

type ipcConfig struct {
	compression Compression
}

// WithCompression compresses record batch bodies. Readers detect the codec.
func WithCompression(c Compression) IPCOption {
	return func(cfg *ipcConfig) { cfg.compression = c }
}

// WriteArrowIPC writes t to w as an Arrow IPC stream with a single record batch.
func WriteArrowIPC(w io.Writer, t table.NumericTable, mem memory.Allocator, opts ...IPCOption) error {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	cfg := ipcConfig{compression: CompressionNone}
	for _, opt := range opts {
		opt(&cfg)
	}
	rec, err := ToArrowRecord(t, mem)
	if err != nil {
		return err
	}
	defer rec.Release()

	wopts := []ipc.Option{ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem)}
	switch cfg.compression {
	case CompressionLZ4:
		wopts = append(wopts, ipc.WithLZ4())
	case CompressionZstd:
		wopts = append(wopts, ipc.WithZstd())
	}
	wr := ipc.NewWriter(w, wopts...)
	if err := wr.Write(rec); err != nil {
		wr.Close()
		return errors.Wrap(err, "write record batch")
	}
	if err := wr.Close(); err != nil {
		return errors.Wrap(err, "close arrow stream")
	}

	log.GetLoggerWithName("datasource").Debug("arrow stream written",
		log.LayoutKey, t.Layout(),
		log.RowsKey, t.NumRows(),
		log.ColumnsKey, t.NumColumns(),
		"compression", string(cfg.compression),
	)
	return nil
}

// ReadArrowIPC reads every record batch of an Arrow IPC stream into one table.
func ReadArrowIPC(r io.Reader, mem memory.Allocator) (*table.HomogenTable[float64], error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	rd, err := ipc.NewReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return nil, errors.Wrap(err, "open arrow stream")
	}
	defer rd.Release()

	t, err := emptyFor(rd.Schema())
	if err != nil {
		return nil, err
	}
	for rd.Next() {
		if err := appendRecord(t, rd.Record()); err != nil {
			return nil, err
		}
	}
	if err := rd.Err(); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "read arrow stream")
	}
	return t, nil
}
