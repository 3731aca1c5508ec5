package table

import (
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/numtable/pkg/errors"
)

// PackedTable stores one triangle of a dim x dim matrix, row by row,
// in dim*(dim+1)/2 values.
//
// A Symmetric table reads as the full mirrored matrix. A Triangular table
// reads as zero outside its triangle; column blocks that would cross into
// that region are rejected and row write-back skips it.
type PackedTable[S Number] struct {
	base
	data []S
	dim  int
	kind PackedKind
	tri  Triangle
}

// FromPacked wraps buf without copying.
func FromPacked[S Number](buf []S, dim int, kind PackedKind, tri Triangle) (*PackedTable[S], error) {
	const op = "FromPacked"
	if dim <= 0 {
		return nil, errors.NewInvalidLayoutError(op, "dim must be positive, got %d", dim)
	}
	if kind != Symmetric && kind != Triangular {
		return nil, errors.NewInvalidLayoutError(op, "unknown packed kind %d", int(kind))
	}
	if tri != Lower && tri != Upper {
		return nil, errors.NewInvalidLayoutError(op, "unknown triangle %d", int(tri))
	}
	if want := dim * (dim + 1) / 2; len(buf) != want {
		return nil, errors.NewInvalidLayoutError(op,
			"packed %s buffer has %d elements, want %d for dim %d", tri, len(buf), want, dim)
	}
	return &PackedTable[S]{
		base: newBase(dim, ElementTypeOf[S]()),
		data: buf[:len(buf):len(buf)],
		dim:  dim,
		kind: kind,
		tri:  tri,
	}, nil
}

func (p *PackedTable[S]) NumRows() int    { return p.dim }
func (p *PackedTable[S]) NumColumns() int { return p.dim }
func (p *PackedTable[S]) Layout() string  { return LayoutPacked }

// Kind returns whether p is symmetric or triangular.
func (p *PackedTable[S]) Kind() PackedKind { return p.kind }

// Triangle returns the stored triangle.
func (p *PackedTable[S]) Triangle() Triangle { return p.tri }

// Buffer returns the packed values.
func (p *PackedTable[S]) Buffer() []S { return p.data }

// stored reports whether (r, c) lies in the stored triangle.
func (p *PackedTable[S]) stored(r, c int) bool {
	if p.tri == Lower {
		return r >= c
	}
	return r <= c
}

// index maps (r, c) to its packed position, mirroring for symmetric tables.
// ok is false for cells of a triangular table outside the triangle.
func (p *PackedTable[S]) index(r, c int) (int, bool) {
	if !p.stored(r, c) {
		if p.kind == Triangular {
			return 0, false
		}
		r, c = c, r
	}
	if p.tri == Lower {
		return r*(r+1)/2 + c, true
	}
	return r*p.dim - r*(r-1)/2 + (c - r), true
}

func (p *PackedTable[S]) at(r, c int) S {
	if i, ok := p.index(r, c); ok {
		return p.data[i]
	}
	return 0
}

func (p *PackedTable[S]) checkColumn(op string, col, start, n int) error {
	if p.kind != Triangular || n == 0 {
		return nil
	}
	// lower: rows >= col. upper: rows <= col.
	if p.tri == Lower && start < col {
		return errors.NewOutOfRangeError(op, 0, start, n, p.dim)
	}
	if p.tri == Upper && start+n-1 > col {
		return errors.NewOutOfRangeError(op, 0, start, n, col+1)
	}
	return nil
}

func (p *PackedTable[S]) readRows(start, n int, dst any) error {
	dense := make([]S, n*p.dim)
	for r := 0; r < n; r++ {
		for c := 0; c < p.dim; c++ {
			dense[r*p.dim+c] = p.at(start+r, c)
		}
	}
	convertInto(dst, dense)
	return nil
}

func (p *PackedTable[S]) writeRows(start, n int, src any) error {
	dense := make([]S, n*p.dim)
	convertFrom(dense, src)

	if p.kind == Triangular {
		for r := 0; r < n; r++ {
			for c := 0; c < p.dim; c++ {
				if i, ok := p.index(start+r, c); ok {
					p.data[i] = dense[r*p.dim+c]
				}
			}
		}
		return nil
	}

	// 対称行列では (r,c) と (c,r) が同じ要素を指す。
	// 取得時にブロックが見た値から変わったセルだけを書き戻し、後のセルを優先する。
	seen := make([]S, len(dense))
	for r := 0; r < n; r++ {
		for c := 0; c < p.dim; c++ {
			seen[r*p.dim+c] = p.at(start+r, c)
		}
	}
	// ブロックの要素型を経由した値と比べる
	rt := scratchLike(src, len(seen))
	convertInto(rt, seen)
	convertFrom(seen, rt)
	putScratch(rt)

	next := slices.Clone(p.data)
	for r := 0; r < n; r++ {
		for c := 0; c < p.dim; c++ {
			k := r*p.dim + c
			if dense[k] != seen[k] {
				i, _ := p.index(start+r, c)
				next[i] = dense[k]
			}
		}
	}
	copy(p.data, next)
	return nil
}

func (p *PackedTable[S]) readColumn(col, start, n int, dst any) error {
	column := make([]S, n)
	for r := range column {
		column[r] = p.at(start+r, col)
	}
	convertInto(dst, column)
	return nil
}

func (p *PackedTable[S]) writeColumn(col, start, n int, src any) error {
	column := make([]S, n)
	convertFrom(column, src)
	for r, v := range column {
		if i, ok := p.index(start+r, col); ok {
			p.data[i] = v
		}
	}
	return nil
}

// ToGonum copies p into a gonum matrix: *mat.SymDense for symmetric tables,
// *mat.TriDense for triangular ones.
func (p *PackedTable[S]) ToGonum() mat.Matrix {
	full := make([]float64, p.dim*p.dim)
	for r := 0; r < p.dim; r++ {
		for c := 0; c < p.dim; c++ {
			full[r*p.dim+c] = float64(p.at(r, c))
		}
	}
	if p.kind == Symmetric {
		return mat.NewSymDense(p.dim, full)
	}
	kind := mat.Lower
	if p.tri == Upper {
		kind = mat.Upper
	}
	return mat.NewTriDense(p.dim, kind, full)
}
