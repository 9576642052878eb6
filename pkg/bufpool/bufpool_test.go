package bufpool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	assert.Equal(t, DefaultSize, New(0).Size())
	assert.Equal(t, DefaultSize, New(-5).Size())
	assert.Equal(t, 128, New(128).Size())
}

func TestGet_ReturnsFullLengthBuffer(t *testing.T) {
	p := New(512)
	buf := p.Get()
	assert.Len(t, buf, 512)
	assert.Equal(t, 512, cap(buf))
}

func TestPut_ResliceRestoresLength(t *testing.T) {
	p := New(64)
	buf := p.Get()
	p.Put(buf[:10])

	again := p.Get()
	assert.Len(t, again, 64)
}

func TestPut_DropsForeignBuffers(t *testing.T) {
	p := New(64)
	p.Put(make([]byte, 32))
	p.Put(nil)

	for range 10 {
		assert.Len(t, p.Get(), 64)
	}
}

func TestConcurrentUse(t *testing.T) {
	p := New(256)

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for range 100 {
				buf := p.Get()
				buf[0] = byte(n)
				assert.Len(t, buf, 256)
				p.Put(buf)
			}
		}(i)
	}
	wg.Wait()
}

func BenchmarkGetPut(b *testing.B) {
	p := New(4096)
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			p.Put(p.Get())
		}
	})
}
