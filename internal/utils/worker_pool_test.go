package utils_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/benmeehan/hydro-controller/internal/utils"
	"github.com/stretchr/testify/assert"
)

func TestWorkerPool_RunsAllJobs(t *testing.T) {
	pool := utils.NewWorkerPool(4, 16)

	var count int64
	for i := 0; i < 100; i++ {
		assert.True(t, pool.Submit(func() { atomic.AddInt64(&count, 1) }))
	}
	pool.Shutdown()

	assert.Equal(t, int64(100), atomic.LoadInt64(&count))
}

func TestWorkerPool_SubmitAfterShutdown(t *testing.T) {
	pool := utils.NewWorkerPool(1, 1)
	pool.Shutdown()
	pool.Shutdown()

	assert.False(t, pool.Submit(func() {}))
}

func TestSliceToSet(t *testing.T) {
	set := utils.SliceToSet([]string{"a", "b", "a"})

	assert.Len(t, set, 2)
	_, ok := set["b"]
	assert.True(t, ok)
}

func TestWorkerPool_SubmitKeyedKeepsOrder(t *testing.T) {
	pool := utils.NewWorkerPool(4, 64)

	var mu sync.Mutex
	seen := map[string][]int{}
	for i := 0; i < 50; i++ {
		for _, key := range []string{"a", "b", "c"} {
			key, i := key, i
			assert.True(t, pool.SubmitKeyed(key, func() {
				mu.Lock()
				seen[key] = append(seen[key], i)
				mu.Unlock()
			}))
		}
	}
	pool.Shutdown()

	for key, order := range seen {
		assert.Len(t, order, 50, key)
		for i, v := range order {
			assert.Equal(t, i, v, key)
		}
	}
	assert.False(t, pool.SubmitKeyed("a", func() {}))
}
