package pools

import (
	"sync"
	"sync/atomic"
)

// Pool is an instrumented object pool. It wraps sync.Pool with optional
// warmup, a reset hook applied on Put, and hit-rate statistics so reuse can
// be observed under load.
type Pool struct {
	pool  sync.Pool
	reset func(any)

	gets atomic.Uint64
	puts atomic.Uint64
	news atomic.Uint64
}

// PoolConfig configures a Pool.
type PoolConfig struct {
	// New allocates a fresh object. Required.
	New func() any

	// Reset clears an object before it re-enters the pool. Optional.
	Reset func(any)

	// Warmup pre-allocates this many objects at construction.
	Warmup int
}

// PoolStats reports pool activity. HitRate is the fraction of Gets served
// from pooled objects rather than fresh allocations.
type PoolStats struct {
	Gets    uint64
	Puts    uint64
	News    uint64
	HitRate float64
}

// NewPool creates an instrumented pool.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.New == nil {
		panic("pools: PoolConfig.New is required")
	}

	p := &Pool{reset: cfg.Reset}
	p.pool.New = func() any {
		p.news.Add(1)
		return cfg.New()
	}

	for i := 0; i < cfg.Warmup; i++ {
		p.pool.Put(cfg.New())
	}

	return p
}

// Get acquires an object, allocating when the pool is empty.
func (p *Pool) Get() any {
	p.gets.Add(1)
	return p.pool.Get()
}

// Put resets an object and returns it to the pool.
func (p *Pool) Put(obj any) {
	if obj == nil {
		return
	}
	p.puts.Add(1)
	if p.reset != nil {
		p.reset(obj)
	}
	p.pool.Put(obj)
}

// Stats returns a snapshot of pool activity.
func (p *Pool) Stats() PoolStats {
	gets := p.gets.Load()
	news := p.news.Load()

	hitRate := 0.0
	if gets > 0 && gets > news {
		hitRate = float64(gets-news) / float64(gets)
	}

	return PoolStats{
		Gets:    gets,
		Puts:    p.puts.Load(),
		News:    news,
		HitRate: hitRate,
	}
}
