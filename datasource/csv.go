// Package datasource loads tables from files and exchanges them with
// Apache Arrow.
package datasource

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/YuminosukeSato/numtable/pkg/errors"
	"github.com/YuminosukeSato/numtable/pkg/log"
	"github.com/YuminosukeSato/numtable/table"
)

// DefaultBlockRows is the number of rows Load reads per LoadDataBlock call.
const DefaultBlockRows = 4096

type columnKind int

const (
	undecided columnKind = iota
	numeric
	categorical
)

// CSVOption configures a CSVSource.
type CSVOption func(*csvConfig)

type csvConfig struct {
	delimiter rune
	comment   rune
	header    bool
	name      string
}

// WithDelimiter sets the field delimiter. The default is ','.
func WithDelimiter(r rune) CSVOption {
	return func(c *csvConfig) { c.delimiter = r }
}

// WithComment makes lines starting with r comments.
func WithComment(r rune) CSVOption {
	return func(c *csvConfig) { c.comment = r }
}

// WithHeader sets whether the first record holds column names. The default is true.
func WithHeader(enabled bool) CSVOption {
	return func(c *csvConfig) { c.header = enabled }
}

// WithSourceName sets the name used in logs and errors.
func WithSourceName(name string) CSVOption {
	return func(c *csvConfig) { c.name = name }
}

// CSVSource reads delimited text into a float64 table block by block.
//
// Every column is numeric or categorical, decided by its first non-empty
// value. Categorical values are coded 0, 1, 2, ... in first-seen order and
// the column is flagged categorical. Empty fields, and fields of a numeric
// column that do not parse, are stored as NaN and reported as a
// DataConversionWarning.
type CSVSource struct {
	cfg    csvConfig
	r      *csv.Reader
	closer io.Closer

	t          *table.HomogenTable[float64]
	names      []string
	kinds      []columnKind
	codes      []map[string]int
	categories [][]string
	line       int
	done       bool
}

// NewCSVSource reads from r. The caller keeps ownership of r.
func NewCSVSource(r io.Reader, opts ...CSVOption) *CSVSource {
	cfg := csvConfig{delimiter: ',', header: true, name: "csv"}
	for _, opt := range opts {
		opt(&cfg)
	}
	cr := csv.NewReader(r)
	cr.Comma = cfg.delimiter
	cr.Comment = cfg.comment
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return &CSVSource{cfg: cfg, r: cr}
}

// OpenCSV opens path for reading. Close releases the file.
func OpenCSV(path string, opts ...CSVOption) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	s := NewCSVSource(f, append([]CSVOption{WithSourceName(path)}, opts...)...)
	s.closer = f
	return s, nil
}

// Close closes the file opened by OpenCSV. It is a no-op for NewCSVSource.
func (s *CSVSource) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// Table returns the table filled so far, or nil before the first block.
func (s *CSVSource) Table() *table.HomogenTable[float64] { return s.t }

// ColumnNames returns the header names, or generated names without a header.
func (s *CSVSource) ColumnNames() []string { return s.names }

// Categories returns the category labels of column col by code, or nil for numeric columns.
func (s *CSVSource) Categories(col int) []string {
	if col < 0 || col >= len(s.categories) {
		return nil
	}
	return s.categories[col]
}

// LoadDataBlock appends up to maxRows rows to the table and returns how
// many were read. At end of input it returns 0 and io.EOF. When a record
// fails to read, the rows before it are still appended and counted, and the
// error is returned with that count.
func (s *CSVSource) LoadDataBlock(ctx context.Context, maxRows int) (int, error) {
	const op = "CSVSource.LoadDataBlock"
	if maxRows <= 0 {
		return 0, errors.NewValidationError("maxRows", "must be positive", maxRows)
	}
	if s.done {
		return 0, io.EOF
	}
	if err := s.init(); err != nil {
		return 0, err
	}

	began := time.Now()
	cols := len(s.kinds)
	rows := make([]float64, 0, min(maxRows, DefaultBlockRows)*cols)
	n := 0
	var readErr error
	for n < maxRows {
		if err := ctx.Err(); err != nil {
			readErr = errors.Wrapf(err, "%s: %s", op, s.cfg.name)
			break
		}
		rec, err := s.r.Read()
		if err == io.EOF {
			s.done = true
			break
		}
		if err != nil {
			readErr = errors.Wrapf(err, "%s: %s", op, s.cfg.name)
			break
		}
		s.line++
		if s.t == nil && cols == 0 {
			// ヘッダーなしの最初の行で列数が決まる
			s.setColumns(len(rec), nil)
			cols = len(rec)
			rows = make([]float64, 0, min(maxRows, DefaultBlockRows)*cols)
		}
		for j, field := range rec {
			rows = append(rows, s.parse(j, field))
		}
		n++
	}

	if s.t == nil {
		if cols == 0 {
			if readErr != nil {
				return 0, readErr
			}
			return 0, errors.NewModelError(op, s.cfg.name, errors.ErrEmptyData)
		}
		t, err := table.NewEmptyHomogenTable[float64](cols)
		if err != nil {
			return 0, err
		}
		s.t = t
	}
	if n > 0 {
		if err := s.t.AppendRows(rows); err != nil {
			return 0, err
		}
	}
	if err := s.applyFeatures(); err != nil {
		return 0, err
	}

	log.GetLoggerWithName("datasource").Debug("data block loaded",
		log.OperationKey, log.OperationLoad,
		log.SourceKey, s.cfg.name,
		log.SamplesKey, n,
		log.RowsKey, s.t.NumRows(),
		log.DurationMsKey, time.Since(began).Milliseconds(),
	)
	if readErr != nil {
		return n, readErr
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Load reads the remaining input and returns the filled table.
func (s *CSVSource) Load(ctx context.Context) (*table.HomogenTable[float64], error) {
	for {
		_, err := s.LoadDataBlock(ctx, DefaultBlockRows)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	log.GetLoggerWithName("datasource").Info("source loaded",
		log.OperationKey, log.OperationLoad,
		log.SourceKey, s.cfg.name,
		log.RowsKey, s.t.NumRows(),
		log.ColumnsKey, s.t.NumColumns(),
	)
	return s.t, nil
}

// init reads the header once.
func (s *CSVSource) init() error {
	if s.kinds != nil || !s.cfg.header {
		return nil
	}
	rec, err := s.r.Read()
	if err == io.EOF {
		return errors.NewModelError("CSVSource.LoadDataBlock", s.cfg.name, errors.ErrEmptyData)
	}
	if err != nil {
		return errors.Wrapf(err, "read header of %s", s.cfg.name)
	}
	s.line++
	names := make([]string, len(rec))
	for i, name := range rec {
		names[i] = strings.TrimSpace(name)
	}
	s.setColumns(len(rec), names)
	return nil
}

func (s *CSVSource) setColumns(cols int, names []string) {
	if names == nil {
		names = make([]string, cols)
		for i := range names {
			names[i] = "x" + strconv.Itoa(i)
		}
	}
	s.names = names
	s.kinds = make([]columnKind, cols)
	s.codes = make([]map[string]int, cols)
	s.categories = make([][]string, cols)
}

func (s *CSVSource) parse(col int, field string) float64 {
	field = strings.TrimSpace(field)
	if field == "" {
		s.warn(col, "empty field")
		return math.NaN()
	}

	if s.kinds[col] == undecided {
		if _, err := strconv.ParseFloat(field, 64); err == nil {
			s.kinds[col] = numeric
		} else {
			s.kinds[col] = categorical
			s.codes[col] = make(map[string]int)
		}
	}

	if s.kinds[col] == numeric {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			s.warn(col, "not a number: "+strconv.Quote(field))
			return math.NaN()
		}
		return v
	}

	code, ok := s.codes[col][field]
	if !ok {
		code = len(s.categories[col])
		s.codes[col][field] = code
		s.categories[col] = append(s.categories[col], field)
	}
	return float64(code)
}

func (s *CSVSource) warn(col int, reason string) {
	errors.Warn(errors.NewDataConversionWarning("string", "float64",
		s.cfg.name+":"+strconv.Itoa(s.line)+": column "+s.names[col]+": "+reason+", stored as NaN"))
}

func (s *CSVSource) applyFeatures() error {
	for j, name := range s.names {
		if err := table.SetFeatureName(s.t, j, name); err != nil {
			return err
		}
		if s.kinds[j] != categorical {
			continue
		}
		if err := table.SetColumnCategorical(s.t, j); err != nil {
			return err
		}
		if err := table.SetNumCategories(s.t, j, len(s.categories[j])); err != nil {
			return err
		}
	}
	return nil
}
