package core

import (
	stathttp "github.com/statserve/statserve/core/http"
	"github.com/statserve/statserve/core/pools"
)

// PoolStats aggregates the object-pool counters behind the request path.
type PoolStats struct {
	Request pools.PoolStats `json:"request"`
	Context pools.PoolStats `json:"context"`
}

// GetPoolStats reports reuse counters for the request and context pools.
// Useful when judging allocation behavior after a load run.
func (e *Engine) GetPoolStats() PoolStats {
	return PoolStats{
		Request: stathttp.RequestPoolStats(),
		Context: stathttp.ContextPoolStats(),
	}
}
