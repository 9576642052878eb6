// Package bufpool provides reusable fixed-size read buffers.
//
// Every connection does one bounded read of the configured buffer size, so
// a single size class is enough. Buffers are handed out as []byte of exactly
// Size() bytes and should be returned with Put once the request has been
// decoded.
//
// # Usage
//
//	pool := bufpool.New(4096)
//	buf := pool.Get()
//	defer pool.Put(buf)
package bufpool

import (
	"sync"
)

// DefaultSize is used when New is given a non-positive size.
const DefaultSize = 4 << 10

// Pool is a sync.Pool of byte slices of one fixed size. Safe for
// concurrent use.
type Pool struct {
	size int
	pool sync.Pool
}

// New creates a pool of size-byte buffers.
func New(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}

	p := &Pool{size: size}
	p.pool.New = func() any {
		buf := make([]byte, p.size)
		return &buf
	}
	return p
}

// Size returns the length of buffers returned by Get.
func (p *Pool) Size() int {
	return p.size
}

// Get returns a buffer of exactly Size() bytes. Contents are unspecified.
func (p *Pool) Get() []byte {
	bufPtr := p.pool.Get().(*[]byte)
	return (*bufPtr)[:p.size]
}

// Put returns buf to the pool. Buffers whose capacity does not match the
// pool size are dropped so a foreign slice never poisons the pool.
func (p *Pool) Put(buf []byte) {
	if cap(buf) != p.size {
		return
	}
	buf = buf[:p.size]
	p.pool.Put(&buf)
}
