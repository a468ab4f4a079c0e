// Package connection implements the per-socket orchestration layer of
// spec.md §4.4: ConnectionCore drives a single TCP connection through
// handshake, steady-state request/reply matching (including MULTI/EXEC
// discard-counting), and draining on disconnect, while CallbackExecutor
// (executor.go) runs user callbacks off the reader goroutine.
package connection

import (
	"context"
	"sync"

	"github.com/theanalyst/qclient-go/internal/handshake"
	"github.com/theanalyst/qclient-go/internal/queue"
	"github.com/theanalyst/qclient-go/internal/resp"
)

// State is one of the three ConnectionCore states from spec.md §4.4.
type State int

const (
	// Handshaking: connected, running the auth/ping/push-activation
	// chain; user requests are staged but not yet written.
	Handshaking State = iota
	// Open: handshake complete, requests flow both ways.
	Open
	// Draining: the socket has died; ConsumeResponse no longer runs,
	// and every StagedRequest still outstanding gets failed out so the
	// caller can requeue them on the next connection.
	Draining
)

func (s State) String() string {
	switch s {
	case Handshaking:
		return "Handshaking"
	case Open:
		return "Open"
	case Draining:
		return "Draining"
	default:
		return "Unknown"
	}
}

// Core is the ConnectionCore of spec.md §4.4: it owns the RequestQueue,
// the handshake state machine, and the backpressure gate for one
// connection attempt's lifetime.
//
// Handshake frames never enter the RequestQueue: they're handed off
// one-at-a-time through hsBuf/hsPending, matching spec.md §4.9's
// "getNextToWrite blocks on whichever source is live for the current
// state" rather than interleaving them with user StagedRequests.
type Core struct {
	mu   sync.Mutex
	cond *sync.Cond

	state State
	hs    *handshake.Handshake
	bp    Backpressure
	q     *queue.Queue

	writeIter *queue.Iterator

	hsBuf     []byte
	hsPending bool

	blocking bool

	// multiRemaining tracks an in-progress MULTI/EXEC discard: -1 means
	// "not currently discarding", >=0 counts remaining interim replies
	// to swallow before the head StagedRequest's own Resolve runs.
	multiRemaining int
}

// NewCore starts a fresh ConnectionCore in the Handshaking state. hs runs
// first; once it reports ValidComplete the core transitions to Open and
// ordinary requests start flowing.
func NewCore(hs *handshake.Handshake, bp Backpressure) *Core {
	q := queue.New()
	c := &Core{
		state:          Handshaking,
		hs:             hs,
		bp:             bp,
		q:              q,
		blocking:       true,
		multiRemaining: -1,
	}
	c.cond = sync.NewCond(&c.mu)
	c.writeIter = q.Begin()

	c.mu.Lock()
	c.primeHandshakeLocked()
	c.mu.Unlock()
	return c
}

// primeHandshakeLocked asks hs for its next outgoing frame and stores it
// for GetNextToWrite. Caller must hold c.mu.
func (c *Core) primeHandshakeLocked() {
	tokens := c.hs.ProvideHandshake()
	if tokens == nil {
		c.hsPending = false
		c.hsBuf = nil
		c.cond.Broadcast()
		return
	}
	c.hsBuf = resp.Encode(tokens...).Buf
	c.hsPending = true
	c.cond.Broadcast()
}

// Stage enqueues a user request, blocking on backpressure first. It
// returns the assigned sequence number, mostly useful for tests.
func (c *Core) Stage(ctx context.Context, req *resp.EncodedRequest, resolve func(*resp.Reply)) (int64, error) {
	if err := c.bp.Acquire(ctx); err != nil {
		return 0, err
	}
	released := false
	release := func() {
		if !released {
			released = true
			c.bp.Release()
		}
	}
	seq := c.q.EmplaceBack(&queue.StagedRequest{
		Buf:       req.Buf,
		MultiSize: req.MultiSize,
		Resolve: func(reply interface{}) {
			release()
			if resolve != nil {
				resolve(reply.(*resp.Reply))
			}
		},
	})
	return seq, nil
}

// GetNextToWrite returns the next frame the writer goroutine hasn't yet
// sent: a handshake frame while Handshaking, otherwise the next unsent
// StagedRequest. It blocks until one is available or blocking mode is
// disabled, in which case ok is false.
func (c *Core) GetNextToWrite() (buf []byte, ok bool) {
	c.mu.Lock()
	for c.state == Handshaking && !c.hsPending && c.blocking {
		c.cond.Wait()
	}
	if c.state == Handshaking {
		if !c.hsPending {
			c.mu.Unlock()
			return nil, false
		}
		buf := c.hsBuf
		c.hsPending = false
		c.mu.Unlock()
		return buf, true
	}
	c.mu.Unlock()

	if !c.writeIter.BlockUntilItemHasArrived() {
		return nil, false
	}
	item := c.writeIter.Item()
	c.writeIter.Next()
	if item == nil {
		return nil, true
	}
	return item.Buf, true
}

// ConsumeResponse matches an incoming reply against the head of the
// queue. In Handshaking state, replies are routed to the handshake; once
// it reports ValidComplete the core flips to Open. In Open state, it
// implements spec.md §4.8's MULTI/EXEC discard rule: if the
// next-to-acknowledge item has a nonzero MultiSize, the next MultiSize
// replies are discarded and the (MultiSize+1)-th resolves it. Returns
// false on a protocol violation (unexpected reply with nothing staged,
// or a rejected handshake step) — the caller must break the connection.
func (c *Core) ConsumeResponse(reply *resp.Reply) bool {
	c.mu.Lock()

	if c.state == Handshaking {
		result := c.hs.ValidateResponse(reply)
		switch result {
		case handshake.Invalid:
			c.mu.Unlock()
			return false
		case handshake.ValidIncomplete:
			c.primeHandshakeLocked()
			c.mu.Unlock()
			return true
		case handshake.ValidComplete:
			c.state = Open
			c.hsPending = false
			c.cond.Broadcast()
			c.mu.Unlock()
			return true
		default:
			c.mu.Unlock()
			return false
		}
	}
	c.mu.Unlock()

	if c.multiRemaining == -1 {
		head := c.q.Front()
		if head == nil {
			return false
		}
		if head.MultiSize > 0 {
			c.multiRemaining = head.MultiSize
		}
	}
	if c.multiRemaining > 0 {
		c.multiRemaining--
		return true
	}
	head := c.q.Front()
	if head == nil {
		return false
	}
	if head.Resolve != nil {
		head.Resolve(reply)
	}
	c.q.PopFront()
	c.multiRemaining = -1
	return true
}

// SetBlockingMode toggles whether GetNextToWrite blocks for new arrivals;
// disabling it wakes the writer goroutine so it can exit during
// shutdown.
func (c *Core) SetBlockingMode(enabled bool) {
	c.mu.Lock()
	c.blocking = enabled
	c.cond.Broadcast()
	c.mu.Unlock()
	c.q.SetBlockingMode(enabled)
}

// ClearAllPending transitions to Draining and resolves every StagedRequest
// still outstanding with a null reply, per spec.md §4.4/§7: a client that
// is shutting down or has exhausted its RetryStrategy never fabricates an
// error reply, it just never got one. err identifies the reason in logs
// only; callers see a null reply exactly as they would for a genuine RESP
// nil from the server.
func (c *Core) ClearAllPending(err error) {
	c.mu.Lock()
	c.state = Draining
	c.mu.Unlock()

	nilReply := resp.NewNil()
	for {
		head := c.q.Front()
		if head == nil {
			break
		}
		if head.Resolve != nil {
			head.Resolve(nilReply)
		}
		c.q.PopFront()
	}
}

// Reconnection rewinds the write cursor back to the oldest
// unacknowledged entry (position 1, just past the sentinel — everything
// still in the queue at this point hasn't been acked), re-primes the
// handshake, and clears the transaction discard counter, per spec.md
// §4.4. Call this after a fresh socket replaces the dead one but before
// resuming the reader/writer loops.
func (c *Core) Reconnection() {
	c.mu.Lock()
	c.hs.Restart()
	c.state = Handshaking
	c.multiRemaining = -1
	c.mu.Unlock()

	c.writeIter = c.q.Begin()

	c.mu.Lock()
	c.primeHandshakeLocked()
	c.mu.Unlock()
}

// State reports the current connection state.
func (c *Core) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Len reports the queue's element count, which includes the sentinel: it
// is one more than the number of StagedRequests still awaiting write or
// acknowledgement.
func (c *Core) Len() int64 {
	return c.q.Len()
}
