// Package pool provides typed scratch-buffer pools to reduce GC pressure
// when composite tables split a block request across constituents.
package pool

import (
	"sync"
	"sync/atomic"
)

// Stats tracks pool usage.
type Stats struct {
	TotalAllocated int64
	TotalRecycled  int64
	CurrentInUse   int64
	PeakUsage      int64
	ReuseRate      float64
}

// SlicePool hands out zeroed slices of T. The zero value is ready to use.
type SlicePool[T any] struct {
	pool      sync.Pool
	created   atomic.Int64
	recycled  atomic.Int64
	requested atomic.Int64
	inUse     atomic.Int64
	peak      atomic.Int64
}

// Get returns a zeroed slice of length n.
func (p *SlicePool[T]) Get(n int) []T {
	p.requested.Add(1)
	p.updatePeak(p.inUse.Add(1))

	if v, ok := p.pool.Get().(*[]T); ok && cap(*v) >= n {
		s := (*v)[:n]
		clear(s)
		return s
	}
	p.created.Add(1)
	return make([]T, n)
}

// Put returns s to the pool. s must not be used afterwards.
func (p *SlicePool[T]) Put(s []T) {
	if s == nil {
		return
	}
	p.inUse.Add(-1)
	p.recycled.Add(1)
	s = s[:0]
	p.pool.Put(&s)
}

// Stats returns current pool statistics.
func (p *SlicePool[T]) Stats() Stats {
	requested := p.requested.Load()
	created := p.created.Load()
	reuse := 0.0
	if requested > 0 {
		reuse = float64(requested-created) / float64(requested)
	}
	return Stats{
		TotalAllocated: created,
		TotalRecycled:  p.recycled.Load(),
		CurrentInUse:   p.inUse.Load(),
		PeakUsage:      p.peak.Load(),
		ReuseRate:      reuse,
	}
}

func (p *SlicePool[T]) updatePeak(current int64) {
	for {
		peak := p.peak.Load()
		if current <= peak || p.peak.CompareAndSwap(peak, current) {
			return
		}
	}
}
