package pools

import (
	"sync"
)

// Float64SlicePool recycles float64 scratch buffers used while sorting
// exposure cross-sections.
type Float64SlicePool struct {
	pool sync.Pool
	size int
}

// NewFloat64SlicePool creates a pool whose fresh buffers have the given capacity
func NewFloat64SlicePool(size int) *Float64SlicePool {
	return &Float64SlicePool{
		pool: sync.Pool{
			New: func() interface{} {
				s := make([]float64, 0, size)
				return &s
			},
		},
		size: size,
	}
}

// Get returns a buffer of length n. Its contents are unspecified.
func (p *Float64SlicePool) Get(n int) []float64 {
	sp := p.pool.Get().(*[]float64)
	s := *sp
	if cap(s) < n {
		return make([]float64, n)
	}
	return s[:n]
}

// Put returns a buffer to the pool
func (p *Float64SlicePool) Put(f []float64) {
	// Undersized buffers are left to the GC
	if cap(f) < p.size {
		return
	}
	f = f[:0]
	p.pool.Put(&f)
}
