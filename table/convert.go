package table

import (
	"fmt"

	"github.com/YuminosukeSato/numtable/core/pool"
)

// Block buffers travel between layouts as `any` holding one of the four
// Number slice types. Everything that has to look inside such a buffer
// goes through the helpers in this file. Conversions are plain Go
// conversions: float to int truncates toward zero, nothing is clamped.

// rect describes a rows x cols rectangle inside a row-major buffer.
type rect struct {
	off       int // index of the first element
	rowStride int
	colStride int
	cols      int
}

func contiguous(off, cols int) rect { return rect{off: off, rowStride: cols, colStride: 1, cols: cols} }

// gather fills dst (len(dst)/r.cols rows, packed) from the rectangle r of src.
func gather[D, S Number](dst []D, src []S, r rect) {
	if r.cols == 0 {
		return
	}
	rows := len(dst) / r.cols
	for i := 0; i < rows; i++ {
		s := r.off + i*r.rowStride
		row := dst[i*r.cols : (i+1)*r.cols]
		for j := range row {
			row[j] = D(src[s+j*r.colStride])
		}
	}
}

// scatter writes src (packed rows) into the rectangle r of dst.
func scatter[D, S Number](dst []D, r rect, src []S) {
	if r.cols == 0 {
		return
	}
	rows := len(src) / r.cols
	for i := 0; i < rows; i++ {
		d := r.off + i*r.rowStride
		row := src[i*r.cols : (i+1)*r.cols]
		for j, v := range row {
			dst[d+j*r.colStride] = D(v)
		}
	}
}

func unsupported(buf any) string {
	return fmt.Sprintf("table: unsupported block buffer %T", buf)
}

// gatherAny is gather with a dynamically typed destination.
func gatherAny[S Number](dst any, src []S, r rect) {
	switch d := dst.(type) {
	case []float64:
		gather(d, src, r)
	case []float32:
		gather(d, src, r)
	case []int32:
		gather(d, src, r)
	case []int64:
		gather(d, src, r)
	default:
		panic(unsupported(dst))
	}
}

// scatterAny is scatter with a dynamically typed source.
func scatterAny[D Number](dst []D, r rect, src any) {
	switch s := src.(type) {
	case []float64:
		scatter(dst, r, s)
	case []float32:
		scatter(dst, r, s)
	case []int32:
		scatter(dst, r, s)
	case []int64:
		scatter(dst, r, s)
	default:
		panic(unsupported(src))
	}
}

// convertInto copies src into dst element by element.
func convertInto[S Number](dst any, src []S) {
	gatherAny(dst, src, contiguous(0, 1))
}

// convertFrom copies src into dst element by element.
func convertFrom[D Number](dst []D, src any) {
	scatterAny(dst, contiguous(0, 1), src)
}

// copyRect copies a rows x width rectangle between two buffers of the same type.
func copyRect(dst any, dr rect, src any, sr rect, rows int) {
	switch d := dst.(type) {
	case []float64:
		copyRectT(d, dr, src.([]float64), sr, rows)
	case []float32:
		copyRectT(d, dr, src.([]float32), sr, rows)
	case []int32:
		copyRectT(d, dr, src.([]int32), sr, rows)
	case []int64:
		copyRectT(d, dr, src.([]int64), sr, rows)
	default:
		panic(unsupported(dst))
	}
}

func copyRectT[T Number](dst []T, dr rect, src []T, sr rect, rows int) {
	for i := 0; i < rows; i++ {
		d := dst[dr.off+i*dr.rowStride:]
		s := src[sr.off+i*sr.rowStride:]
		if dr.colStride == 1 && sr.colStride == 1 {
			copy(d[:dr.cols], s[:dr.cols])
			continue
		}
		for j := 0; j < dr.cols; j++ {
			d[j*dr.colStride] = s[j*sr.colStride]
		}
	}
}

// subslice returns buf[from:to] sharing memory with buf.
func subslice(buf any, from, to int) any {
	switch b := buf.(type) {
	case []float64:
		return b[from:to]
	case []float32:
		return b[from:to]
	case []int32:
		return b[from:to]
	case []int64:
		return b[from:to]
	default:
		panic(unsupported(buf))
	}
}

// storeFloat sets buf[i] = v.
func storeFloat(buf any, i int, v float64) {
	switch b := buf.(type) {
	case []float64:
		b[i] = v
	case []float32:
		b[i] = float32(v)
	case []int32:
		b[i] = int32(v)
	case []int64:
		b[i] = int64(v)
	default:
		panic(unsupported(buf))
	}
}

// storeInt sets buf[i] = v.
func storeInt(buf any, i int, v int64) {
	switch b := buf.(type) {
	case []float64:
		b[i] = float64(v)
	case []float32:
		b[i] = float32(v)
	case []int32:
		b[i] = int32(v)
	case []int64:
		b[i] = v
	default:
		panic(unsupported(buf))
	}
}

func loadFloat(buf any, i int) float64 {
	switch b := buf.(type) {
	case []float64:
		return b[i]
	case []float32:
		return float64(b[i])
	case []int32:
		return float64(b[i])
	case []int64:
		return float64(b[i])
	default:
		panic(unsupported(buf))
	}
}

func loadInt(buf any, i int) int64 {
	switch b := buf.(type) {
	case []float64:
		return int64(b[i])
	case []float32:
		return int64(b[i])
	case []int32:
		return int64(b[i])
	case []int64:
		return b[i]
	default:
		panic(unsupported(buf))
	}
}

// ===========================================================================
// Scratch buffers for composite tables
// ===========================================================================

var (
	float64Scratch pool.SlicePool[float64]
	float32Scratch pool.SlicePool[float32]
	int32Scratch   pool.SlicePool[int32]
	int64Scratch   pool.SlicePool[int64]
)

// scratchLike returns a pooled buffer of n elements with the element type of like.
// Return it with putScratch.
func scratchLike(like any, n int) any {
	switch like.(type) {
	case []float64:
		return float64Scratch.Get(n)
	case []float32:
		return float32Scratch.Get(n)
	case []int32:
		return int32Scratch.Get(n)
	case []int64:
		return int64Scratch.Get(n)
	default:
		panic(unsupported(like))
	}
}

func putScratch(buf any) {
	switch b := buf.(type) {
	case []float64:
		float64Scratch.Put(b)
	case []float32:
		float32Scratch.Put(b)
	case []int32:
		int32Scratch.Put(b)
	case []int64:
		int64Scratch.Put(b)
	}
}

// ScratchStats reports usage of the float64 scratch pool used by composite tables.
func ScratchStats() pool.Stats {
	return float64Scratch.Stats()
}
