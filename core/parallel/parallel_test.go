package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelizeCoversEveryIndexOnce(t *testing.T) {
	for _, items := range []int{0, 1, 7, 100, 1031} {
		hits := make([]int32, items)
		Parallelize(items, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			assert.Equalf(t, int32(1), h, "items=%d index=%d", items, i)
		}
	}
}

func TestParallelizeNChunks(t *testing.T) {
	var calls int32
	ParallelizeN(4, 10, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		assert.LessOrEqual(t, end-start, 3)
	})
	assert.Equal(t, int32(4), calls)

	calls = 0
	ParallelizeN(0, 5, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, 0, start)
		assert.Equal(t, 5, end)
	})
	assert.Equal(t, int32(1), calls)
}

func TestParallelizeWithThresholdSequential(t *testing.T) {
	var calls int
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	})
	assert.Equal(t, 1, calls)

	ParallelizeWithThreshold(0, 100, func(start, end int) {
		t.Fatal("fn must not run for zero items")
	})
}
