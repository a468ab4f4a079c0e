package flusher

import "sync"

// pipelineController bounds the number of in-flight (submitted, not yet
// acknowledged) requests, per spec.md §4.12's "Pipeline controller"
// subsection: Acquire blocks once in-flight reaches the configured
// limit, and Release wakes one waiter.
type pipelineController struct {
	mu       sync.Mutex
	cond     *sync.Cond
	inFlight int
	limit    int
}

func newPipelineController(limit int) *pipelineController {
	p := &pipelineController{limit: limit}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Acquire blocks until in-flight < limit, then counts this request in.
func (p *pipelineController) Acquire() {
	p.mu.Lock()
	for p.inFlight >= p.limit {
		p.cond.Wait()
	}
	p.inFlight++
	p.mu.Unlock()
}

// Release frees a slot, called from the flusher's ack callback once a
// request's reply has been applied.
func (p *pipelineController) Release() {
	p.mu.Lock()
	p.inFlight--
	p.cond.Signal()
	p.mu.Unlock()
}

// InFlight reports the current in-flight count, for metrics.
func (p *pipelineController) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}
