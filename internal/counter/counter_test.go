package counter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterIncAndLoad(t *testing.T) {
	var c Counter
	assert.Equal(t, uint64(0), c.Load())
	c.Inc()
	c.Inc()
	assert.Equal(t, uint64(2), c.Load())
}

func TestCounterConcurrentInc(t *testing.T) {
	var c Counter
	const workers = 16
	const perWorker = 2000
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				c.Inc()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(workers*perWorker), c.Load())
}

func TestHandleReadOnly(t *testing.T) {
	var c Counter
	h := HandleOf(&c)
	assert.Equal(t, uint64(0), h.Load())
	c.Inc()
	assert.Equal(t, uint64(1), h.Load())

	var zero Handle
	assert.Equal(t, uint64(0), zero.Load())
}
