// Package parallel splits index ranges across goroutines.
//
// Table layouts never call into this package: block access stays on the
// caller's goroutine. Algorithms that consume a checked-out block use it to
// spread per-column work.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits [0, items) into one contiguous range per CPU core and
// runs fn on each range concurrently. It returns when every range is done.
func Parallelize(items int, fn func(start, end int)) {
	ParallelizeN(runtime.NumCPU(), items, fn)
}

// ParallelizeN is Parallelize with an explicit worker count.
func ParallelizeN(workers, items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	if workers < 1 {
		workers = 1
	}
	if workers > items {
		workers = items
	}
	if workers == 1 {
		fn(0, items)
		return
	}

	// ceiling division so the last worker never gets more than chunkSize items
	chunkSize := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially when items <= threshold and
// in parallel otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		if items > 0 {
			fn(0, items)
		}
		return
	}
	Parallelize(items, fn)
}
