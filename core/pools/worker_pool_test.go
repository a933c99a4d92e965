package pools

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolRunsAllTasks(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	var wg sync.WaitGroup

	wg.Add(200)
	for i := 0; i < 200; i++ {
		ok := pool.Submit(func() {
			counter.Add(1)
			wg.Done()
		})
		if !ok {
			t.Fatal("Submit rejected before Close")
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for tasks")
	}

	if counter.Load() != 200 {
		t.Errorf("Expected 200 tasks run, got %d", counter.Load())
	}

	stats := pool.Stats()
	if stats.Completed < 200 {
		t.Errorf("Expected at least 200 completions, got %d", stats.Completed)
	}
}

func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()

	if pool.Submit(func() {}) {
		t.Error("Submit after Close should be rejected")
	}
}

func TestWorkerPoolUnevenLoad(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var wg sync.WaitGroup
	wg.Add(100)
	for i := 0; i < 100; i++ {
		i := i
		pool.Submit(func() {
			if i%10 == 0 {
				time.Sleep(5 * time.Millisecond)
			}
			wg.Done()
		})
	}
	wg.Wait()

	stats := pool.Stats()
	if stats.Completed < 100 {
		t.Errorf("Expected 100 completions, got %d", stats.Completed)
	}
	if stats.Steals == 0 {
		t.Log("No steals observed (load stayed balanced)")
	}
}

func TestPoolReuseAndStats(t *testing.T) {
	type obj struct{ n int }

	p := NewPool(PoolConfig{
		New:    func() any { return &obj{} },
		Reset:  func(v any) { v.(*obj).n = 0 },
		Warmup: 4,
	})

	o := p.Get().(*obj)
	o.n = 42
	p.Put(o)

	o2 := p.Get().(*obj)
	if o2.n != 0 {
		t.Errorf("Reset hook not applied, n=%d", o2.n)
	}

	stats := p.Stats()
	if stats.Gets != 2 {
		t.Errorf("Expected 2 gets, got %d", stats.Gets)
	}
	if stats.News != 0 {
		t.Errorf("Warmed-up pool should serve without allocating, news=%d", stats.News)
	}
	if stats.HitRate != 1.0 {
		t.Errorf("Expected hit rate 1.0, got %f", stats.HitRate)
	}
}

func BenchmarkWorkerPoolSubmit(b *testing.B) {
	pool := NewWorkerPool(8)
	defer pool.Close()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			pool.Submit(func() {})
		}
	})
}
