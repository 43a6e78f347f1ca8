package utils

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
)

// Job represents a task to be executed by a worker.
type Job struct {
	Task func()
}

// WorkerPool manages a pool of workers to execute jobs. Each worker owns its
// queue, so jobs submitted with the same key run in submission order.
type WorkerPool struct {
	workers   int
	queues    []chan Job
	next      uint64
	waitGroup sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool creates a new WorkerPool with the specified number of workers.
// Each worker queue holds queueSize/workers pending jobs before Submit blocks.
func NewWorkerPool(workers, queueSize int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	perWorker := queueSize / workers
	if perWorker < 1 {
		perWorker = 1
	}
	pool := &WorkerPool{
		workers: workers,
		queues:  make([]chan Job, workers),
	}

	pool.waitGroup.Add(workers)
	for i := 0; i < workers; i++ {
		pool.queues[i] = make(chan Job, perWorker)
		go pool.worker(pool.queues[i])
	}

	return pool
}

// worker processes jobs from its queue.
func (wp *WorkerPool) worker(queue <-chan Job) {
	defer wp.waitGroup.Done()
	for job := range queue {
		job.Task()
	}
}

// Submit adds a new job to the next worker in turn. It reports false once the pool is shut down.
func (wp *WorkerPool) Submit(task func()) bool {
	slot := atomic.AddUint64(&wp.next, 1) % uint64(wp.workers)
	return wp.enqueue(int(slot), task)
}

// SubmitKeyed adds a job to the worker owning key. Jobs sharing a key never
// run concurrently and keep their submission order.
func (wp *WorkerPool) SubmitKeyed(key string, task func()) bool {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return wp.enqueue(int(h.Sum32()%uint32(wp.workers)), task)
}

func (wp *WorkerPool) enqueue(slot int, task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return false
	}
	wp.queues[slot] <- Job{Task: task}
	return true
}

// Shutdown waits for all queued jobs to finish and then closes the worker pool.
func (wp *WorkerPool) Shutdown() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	for _, queue := range wp.queues {
		close(queue)
	}
	wp.mu.Unlock()

	wp.waitGroup.Wait()
}
