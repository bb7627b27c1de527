package usecase

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferencePoolRunsAllJobs(t *testing.T) {
	pool := NewInferencePool(3)

	var count atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			count.Add(1)
		})
	}
	wg.Wait()
	pool.Close()

	assert.Equal(t, int64(50), count.Load())
}

func TestInferencePoolBoundsConcurrency(t *testing.T) {
	const workers = 2
	pool := NewInferencePool(workers)
	defer pool.Close()

	var active, peak atomic.Int64
	gate := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go pool.Submit(func() {
			defer wg.Done()
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-gate
			active.Add(-1)
		})
	}
	close(gate)
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(workers))
}
