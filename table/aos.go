package table

import (
	"reflect"
	"strings"

	"github.com/YuminosukeSato/numtable/pkg/errors"
)

type fieldClass int

const (
	signedField fieldClass = iota
	unsignedField
	floatField
)

type aosField struct {
	index int
	class fieldClass
}

// AOSTable presents a slice of structs as a table: one row per element,
// one column per exported numeric field, in declaration order.
//
// Fields may be tagged `numtable:"name"` to name the column or
// `numtable:"-"` to skip it. The table aliases the caller's slice.
// Values are converted to the block element type on read and back to each
// field's own type on release.
type AOSTable struct {
	base
	rows   reflect.Value
	fields []aosField
}

// FromStructs builds an AOSTable over rows, a slice (or pointer to a slice)
// of structs.
func FromStructs(rows any) (*AOSTable, error) {
	const op = "FromStructs"
	rv := reflect.ValueOf(rows)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() != reflect.Struct {
		return nil, errors.NewInvalidLayoutError(op, "want a slice of structs, got %T", rows)
	}

	st := rv.Type().Elem()
	var (
		fields []aosField
		feats  []Feature
	)
	err := errors.SafeExecute(op, func() error {
		for i := 0; i < st.NumField(); i++ {
			sf := st.Field(i)
			if !sf.IsExported() {
				continue
			}
			tag := sf.Tag.Get("numtable")
			if tag == "-" {
				continue
			}
			class, typ, ok := classify(sf.Type.Kind())
			if !ok {
				return errors.NewInvalidLayoutError(op, "field %s has non-numeric type %s", sf.Name, sf.Type)
			}
			name := sf.Name
			if n, _, _ := strings.Cut(tag, ","); n != "" {
				name = n
			}
			fields = append(fields, aosField{index: i, class: class})
			feats = append(feats, Feature{Name: name, Type: typ})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errors.NewInvalidLayoutError(op, "%s has no exported numeric fields", st)
	}

	return &AOSTable{
		base:   base{feats: feats},
		rows:   rv,
		fields: fields,
	}, nil
}

func classify(k reflect.Kind) (fieldClass, ElementType, bool) {
	switch k {
	case reflect.Float32:
		return floatField, Float32, true
	case reflect.Float64:
		return floatField, Float64, true
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return signedField, Int32, true
	case reflect.Int, reflect.Int64:
		return signedField, Int64, true
	case reflect.Uint8, reflect.Uint16:
		return unsignedField, Int32, true
	case reflect.Uint, reflect.Uint32, reflect.Uint64:
		return unsignedField, Int64, true
	default:
		return 0, 0, false
	}
}

func (t *AOSTable) NumRows() int    { return t.rows.Len() }
func (t *AOSTable) NumColumns() int { return len(t.fields) }
func (t *AOSTable) Layout() string  { return LayoutAOS }

func (t *AOSTable) load(row, col int, dst any, i int) {
	v := t.rows.Index(row).Field(t.fields[col].index)
	switch t.fields[col].class {
	case signedField:
		storeInt(dst, i, v.Int())
	case unsignedField:
		storeInt(dst, i, int64(v.Uint()))
	default:
		storeFloat(dst, i, v.Float())
	}
}

func (t *AOSTable) store(row, col int, src any, i int) {
	v := t.rows.Index(row).Field(t.fields[col].index)
	switch t.fields[col].class {
	case signedField:
		v.SetInt(loadInt(src, i))
	case unsignedField:
		v.SetUint(uint64(loadInt(src, i)))
	default:
		v.SetFloat(loadFloat(src, i))
	}
}

func (t *AOSTable) readRows(start, n int, dst any) (err error) {
	defer errors.Recover(&err, "AOSTable.readRows")
	cols := len(t.fields)
	for r := 0; r < n; r++ {
		for c := 0; c < cols; c++ {
			t.load(start+r, c, dst, r*cols+c)
		}
	}
	return nil
}

func (t *AOSTable) writeRows(start, n int, src any) (err error) {
	defer errors.Recover(&err, "AOSTable.writeRows")
	cols := len(t.fields)
	for r := 0; r < n; r++ {
		for c := 0; c < cols; c++ {
			t.store(start+r, c, src, r*cols+c)
		}
	}
	return nil
}

func (t *AOSTable) readColumn(col, start, n int, dst any) (err error) {
	defer errors.Recover(&err, "AOSTable.readColumn")
	for r := 0; r < n; r++ {
		t.load(start+r, col, dst, r)
	}
	return nil
}

func (t *AOSTable) writeColumn(col, start, n int, src any) (err error) {
	defer errors.Recover(&err, "AOSTable.writeColumn")
	for r := 0; r < n; r++ {
		t.store(start+r, col, src, r)
	}
	return nil
}
