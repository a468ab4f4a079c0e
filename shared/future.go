package shared

import "github.com/theanalyst/qclient-go/internal/resp"

// Future resolves once the server acknowledges a SharedHash/SharedDeque
// write. Mirrors qclient.Future's single-value channel shape without
// this package needing to import the top-level client.
type Future struct {
	ch chan *resp.Reply
}

func newFuture() *Future {
	return &Future{ch: make(chan *resp.Reply, 1)}
}

func (f *Future) resolve(reply *resp.Reply) {
	f.ch <- reply
}

// Wait blocks until the server reply arrives.
func (f *Future) Wait() *resp.Reply {
	return <-f.ch
}
