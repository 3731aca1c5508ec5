package table

import "fmt"

// Number is the set of element types a table can store and a block can hold.
type Number interface {
	float32 | float64 | int32 | int64
}

// ElementType identifies the element type of a column.
type ElementType int

const (
	Float64 ElementType = iota
	Float32
	Int32
	Int64
)

func (e ElementType) String() string {
	switch e {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	default:
		return fmt.Sprintf("ElementType(%d)", int(e))
	}
}

// ElementTypeOf returns the ElementType of T.
func ElementTypeOf[T Number]() ElementType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case int32:
		return Int32
	case int64:
		return Int64
	default:
		return Float64
	}
}

// FeatureKind tells downstream algorithms how to interpret a column.
// It never changes physical storage.
type FeatureKind int

const (
	Continuous FeatureKind = iota
	Categorical
	Ordinal
)

func (k FeatureKind) String() string {
	switch k {
	case Categorical:
		return "categorical"
	case Ordinal:
		return "ordinal"
	default:
		return "continuous"
	}
}

// ParseFeatureKind is the inverse of FeatureKind.String. Unknown names map to Continuous.
func ParseFeatureKind(s string) FeatureKind {
	switch s {
	case "categorical":
		return Categorical
	case "ordinal":
		return Ordinal
	default:
		return Continuous
	}
}

// Feature is the dictionary entry of one column.
type Feature struct {
	Name          string
	Type          ElementType
	Kind          FeatureKind
	NumCategories int
}

// AccessMode selects whether a block is populated on acquire and written back on release.
type AccessMode int

const (
	ReadOnly AccessMode = 1 << iota
	WriteOnly
	ReadWrite = ReadOnly | WriteOnly
)

func (m AccessMode) reads() bool  { return m&ReadOnly != 0 }
func (m AccessMode) writes() bool { return m&WriteOnly != 0 }
func (m AccessMode) valid() bool  { return m >= ReadOnly && m <= ReadWrite }

func (m AccessMode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case WriteOnly:
		return "write-only"
	case ReadWrite:
		return "read-write"
	default:
		return fmt.Sprintf("AccessMode(%d)", int(m))
	}
}

// PackedKind selects how a packed table interprets its triangle.
type PackedKind int

const (
	// Symmetric tables mirror the stored triangle across the diagonal.
	Symmetric PackedKind = iota
	// Triangular tables are zero outside the stored triangle.
	Triangular
)

func (k PackedKind) String() string {
	if k == Triangular {
		return "triangular"
	}
	return "symmetric"
}

// Triangle selects which half of a square matrix a packed table stores.
type Triangle int

const (
	Lower Triangle = iota
	Upper
)

func (t Triangle) String() string {
	if t == Upper {
		return "upper"
	}
	return "lower"
}

// Layout names, used in errors and logs.
const (
	LayoutHomogen   = "homogen"
	LayoutMatrix    = "matrix"
	LayoutAOS       = "aos"
	LayoutCSR       = "csr"
	LayoutPacked    = "packed"
	LayoutMerged    = "merged"
	LayoutRowMerged = "row_merged"
)
