// Package qclient is an asynchronous, single-connection RESP client:
// one duplex socket driven by a reader goroutine, a writer goroutine,
// and a supervisor that reconnects and replays unacknowledged requests
// per the configured RetryStrategy. See SPEC_FULL.md for the full
// component breakdown; this file wires internal/connection,
// internal/endpoint, internal/netio, internal/handshake and
// internal/resp together into the public Client type.
package qclient

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/theanalyst/qclient-go/internal/connection"
	"github.com/theanalyst/qclient-go/internal/endpoint"
	"github.com/theanalyst/qclient-go/internal/netio"
	"github.com/theanalyst/qclient-go/internal/resp"
)

// Client is the top-level handle: it satisfies flusher.ClientExecutor,
// pubsub.Client, communicator.Publisher, shared.Executor and
// diag.HealthChecker, each of which narrows it down to the one or two
// methods that package actually needs.
type Client struct {
	opts    Options
	decider *endpoint.Decider

	core     *connection.Core
	executor *connection.Executor

	streamMu      sync.Mutex
	currentStream *netio.Stream

	connected atomic.Bool
	dead      atomic.Bool

	pushMu      sync.Mutex
	pushHandler func(*resp.Reply)

	reconnectMu      sync.Mutex
	reconnectHandler func()

	retryMu              sync.Mutex
	attemptsSinceSuccess int
	lastSuccessAt        time.Time
	backoff              *backoff.ExponentialBackOff

	logger *log.Entry

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce   sync.Once
	superviseWG sync.WaitGroup
	executorWG  sync.WaitGroup
}

// New builds a Client and starts its supervisor loop. The first
// connection attempt runs asynchronously; callers that need to block
// until it succeeds should poll IsConnected or simply Execute a request
// and wait on its Future/callback, which is satisfied once the
// connection opens (or the RetryStrategy gives up).
func New(opts Options) *Client {
	opts = opts.withDefaults()
	if opts.FaultInjector == nil {
		opts.FaultInjector = NoFaults{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0 // give-up is decided by RetryStrategy, not by the backoff itself

	c := &Client{
		opts:          opts,
		decider:       endpoint.NewDecider(opts.Members, opts.Resolver, opts.Logger),
		core:          connection.NewCore(opts.buildHandshake(), opts.buildBackpressure()),
		executor:      connection.NewExecutor(),
		logger:        opts.Logger,
		lastSuccessAt: time.Now(),
		backoff:       bo,
		ctx:           ctx,
		cancel:        cancel,
	}

	c.executorWG.Add(1)
	go func() {
		defer c.executorWG.Done()
		c.executor.Run()
	}()

	c.superviseWG.Add(1)
	go func() {
		defer c.superviseWG.Done()
		c.supervise()
	}()

	return c
}

// Execute stages req on the current connection (or replays it after a
// reconnect) and invokes callback exactly once, off the reader
// goroutine, when the matching reply arrives. A nil callback fires and
// forgets.
func (c *Client) Execute(req *resp.EncodedRequest, callback func(*resp.Reply)) {
	if c.dead.Load() {
		c.deliverDead(callback)
		return
	}
	resolve := func(reply *resp.Reply) {
		if callback == nil {
			return
		}
		c.executor.Submit(func() { callback(reply) })
	}
	if _, err := c.core.Stage(c.ctx, req, resolve); err != nil {
		c.deliverDead(callback)
	}
}

// deliverDead resolves a request submitted after the client has already
// given up (RetryStrategy exhausted, or Close called) with a null reply,
// the same "unknown outcome" contract ClearAllPending gives requests
// that were already pending (spec.md §4.10/§7/§8).
func (c *Client) deliverDead(callback func(*resp.Reply)) {
	if callback == nil {
		return
	}
	reply := resp.NewNil()
	c.executor.Submit(func() { callback(reply) })
}

// Send is a convenience wrapper over Execute returning a Future, for
// callers that prefer to block rather than supply a callback.
func (c *Client) Send(tokens ...string) *Future {
	f := newFuture()
	c.Execute(resp.Encode(tokens...), f.resolve)
	return f
}

// Publish issues a fire-and-forget PUBLISH, satisfying
// communicator.Publisher and shared.Manager's broadcast needs.
func (c *Client) Publish(channel string, payload []byte) {
	c.Execute(resp.EncodeBytes([]byte("PUBLISH"), []byte(channel), payload), nil)
}

// OnPush installs the handler invoked for every out-of-band push frame
// (or, in ExclusivePubsub mode, every incoming frame). There is a single
// slot, as with OnReconnect: the pubsub and shared packages each own one
// Client and install their own dispatcher once.
func (c *Client) OnPush(handler func(*resp.Reply)) {
	c.pushMu.Lock()
	c.pushHandler = handler
	c.pushMu.Unlock()
}

// OnReconnect installs the handler invoked every time the connection
// (re)opens, including the very first time - BaseSubscriber uses this to
// re-issue SUBSCRIBE/PSUBSCRIBE for its current channel set.
func (c *Client) OnReconnect(handler func()) {
	c.reconnectMu.Lock()
	c.reconnectHandler = handler
	c.reconnectMu.Unlock()
}

// IsConnected reports whether the supervisor currently has an open,
// handshake-complete connection. Satisfies diag.HealthChecker.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// Close shuts the client down: it cancels the shared context (unblocking
// a writer sitting in GetNextToWrite and an establishWithRetries sitting
// in its backoff sleep), shuts down whatever socket is currently live
// (unblocking a reader sitting in a blocking Read), waits for the
// supervisor to notice and exit, and only then stops the callback
// executor - so every in-flight callback from the final ClearAllPending
// still gets delivered.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.core.SetBlockingMode(false)

		c.streamMu.Lock()
		if c.currentStream != nil {
			c.currentStream.Shutdown()
		}
		c.streamMu.Unlock()

		c.superviseWG.Wait()
		c.executor.Close()
		c.executorWG.Wait()

		c.connected.Store(false)
		connectedGauge.Set(0)
	})
}

func (c *Client) setCurrentStream(s *netio.Stream) {
	c.streamMu.Lock()
	c.currentStream = s
	c.streamMu.Unlock()
}

func (c *Client) invokeReconnectHandler() {
	c.reconnectMu.Lock()
	h := c.reconnectHandler
	c.reconnectMu.Unlock()
	if h != nil {
		c.executor.Submit(h)
	}
}

func (c *Client) dispatchPush(reply *resp.Reply) {
	c.pushMu.Lock()
	h := c.pushHandler
	c.pushMu.Unlock()
	if h != nil {
		c.executor.Submit(func() { h(reply) })
	}
	if c.opts.MessageListener != nil {
		listener := c.opts.MessageListener
		c.executor.Submit(func() { listener(reply) })
	}
}
