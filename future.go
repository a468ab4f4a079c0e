package qclient

import "github.com/theanalyst/qclient-go/internal/resp"

// Future is the caller-facing handle Execute hands back when no callback
// is supplied: a single reply, delivered once, off the reader goroutine
// (spec.md §4.4's "accepts a callback object or returns a future").
type Future struct {
	ch chan *resp.Reply
}

func newFuture() *Future {
	return &Future{ch: make(chan *resp.Reply, 1)}
}

func (f *Future) resolve(reply *resp.Reply) {
	select {
	case f.ch <- reply:
	default:
	}
}

// Wait blocks until the reply arrives.
func (f *Future) Wait() *resp.Reply {
	return <-f.ch
}
