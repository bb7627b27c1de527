package usecase

import "sync"

// InferencePool is a bounded worker pool shared by every analysis stream.
// Handing blocking backend calls to the pool keeps frame production and
// emission for concurrent requests from stalling on each other's I/O.
type InferencePool struct {
	jobs chan func()
	wg   sync.WaitGroup
}

func NewInferencePool(workers int) *InferencePool {
	if workers < 1 {
		workers = 1
	}
	p := &InferencePool{jobs: make(chan func(), workers)}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
			}
		}()
	}
	return p
}

// Submit enqueues a job, blocking when all workers are busy and the queue
// is full. The backpressure throttles frame producers.
func (p *InferencePool) Submit(job func()) {
	p.jobs <- job
}

// Close stops accepting jobs and waits for in-flight ones to finish.
func (p *InferencePool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
