package pools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetReturnsRequestedLength(t *testing.T) {
	p := NewFloat64SlicePool(8)

	buf := p.Get(5)
	assert.Len(t, buf, 5)
	p.Put(buf)

	big := p.Get(32)
	assert.Len(t, big, 32)
	p.Put(big)

	again := p.Get(3)
	assert.Len(t, again, 3)
}

func TestPutDropsSmallBuffers(t *testing.T) {
	p := NewFloat64SlicePool(16)

	p.Put(make([]float64, 2))
	assert.Len(t, p.Get(10), 10)
}
