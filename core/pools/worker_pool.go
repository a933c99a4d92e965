package pools

import (
	"runtime"
	"sync/atomic"
)

// Task is a unit of work submitted to a WorkerPool.
type Task func()

// WorkerPool runs tasks on a fixed set of goroutines, each with its own
// buffered queue. Idle workers steal from their neighbors, so a burst
// submitted to one queue still spreads across the pool.
type WorkerPool struct {
	numWorkers int
	queues     []chan Task
	closed     atomic.Bool

	submitted atomic.Uint64
	completed atomic.Uint64
	steals    atomic.Uint64
}

// WorkerPoolStats reports pool activity.
type WorkerPoolStats struct {
	NumWorkers int
	Submitted  uint64
	Completed  uint64
	Pending    uint64
	Steals     uint64
}

// NewWorkerPool starts a pool with the given number of workers; values below
// one default to runtime.NumCPU.
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	p := &WorkerPool{
		numWorkers: numWorkers,
		queues:     make([]chan Task, numWorkers),
	}

	for i := 0; i < numWorkers; i++ {
		p.queues[i] = make(chan Task, 256)
	}
	for i := 0; i < numWorkers; i++ {
		go p.worker(i)
	}

	return p
}

// Submit enqueues a task round-robin. When every queue is full the task runs
// inline on the caller so submission never blocks indefinitely. Returns
// false only after Close.
func (p *WorkerPool) Submit(task Task) bool {
	if p.closed.Load() {
		return false
	}

	n := p.submitted.Add(1)
	idx := int(n) % p.numWorkers

	for i := 0; i < p.numWorkers; i++ {
		select {
		case p.queues[(idx+i)%p.numWorkers] <- task:
			return true
		default:
		}
	}

	task()
	p.completed.Add(1)
	return true
}

// Close stops the workers. Tasks already queued still run; Submit after
// Close is rejected.
func (p *WorkerPool) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	for _, q := range p.queues {
		close(q)
	}
}

// Stats returns a snapshot of pool activity.
func (p *WorkerPool) Stats() WorkerPoolStats {
	submitted := p.submitted.Load()
	completed := p.completed.Load()

	return WorkerPoolStats{
		NumWorkers: p.numWorkers,
		Submitted:  submitted,
		Completed:  completed,
		Pending:    submitted - completed,
		Steals:     p.steals.Load(),
	}
}

func (p *WorkerPool) worker(id int) {
	own := p.queues[id]

	for {
		select {
		case task, ok := <-own:
			if !ok {
				return
			}
			task()
			p.completed.Add(1)
			continue
		default:
		}

		if p.trySteal(id) {
			continue
		}

		task, ok := <-own
		if !ok {
			return
		}
		task()
		p.completed.Add(1)
	}
}

// trySteal drains one task from another worker's queue.
func (p *WorkerPool) trySteal(id int) bool {
	for i := 1; i < p.numWorkers; i++ {
		victim := p.queues[(id+i)%p.numWorkers]
		select {
		case task, ok := <-victim:
			if !ok {
				continue
			}
			p.steals.Add(1)
			task()
			p.completed.Add(1)
			return true
		default:
		}
	}
	return false
}
