package qclient

import (
	"bufio"
	"errors"
	"io"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/theanalyst/qclient-go/internal/connection"
	"github.com/theanalyst/qclient-go/internal/netio"
	"github.com/theanalyst/qclient-go/internal/resp"
)

// supervise is the Supervisor loop of spec.md §4.9: it dials the next
// endpoint, runs the reader/writer loops against it until the connection
// breaks, then reconnects per the configured RetryStrategy - replaying
// whatever ConnectionCore.Reconnection left unacknowledged. It returns
// once the client is closed or the RetryStrategy gives up.
func (c *Client) supervise() {
	for {
		stream, err := c.establishWithRetries()
		if err != nil {
			if c.ctx.Err() != nil {
				c.core.ClearAllPending(ErrShutdown)
			} else {
				c.logger.WithError(err).Error("qclient: retry strategy exhausted, giving up")
				c.dead.Store(true)
				retriesExhaustedCounter.Inc()
				c.core.ClearAllPending(ErrRetriesExhausted)
			}
			return
		}

		c.runConnectionUntilBroken(stream)

		if c.ctx.Err() != nil {
			c.core.ClearAllPending(ErrShutdown)
			return
		}
	}
}

// establishWithRetries dials endpoints (via the EndpointDecider, honoring
// any redirect already registered) until one succeeds, sleeping the
// backoff's NextBackOff between attempts, and gives up once the
// RetryStrategy says so.
func (c *Client) establishWithRetries() (*netio.Stream, error) {
	for {
		if c.ctx.Err() != nil {
			return nil, c.ctx.Err()
		}

		stream, addr, dialErr := c.dialOnce()
		if dialErr == nil {
			return stream, nil
		}

		c.logger.WithFields(log.Fields{"endpoint": addr, "err": dialErr}).
			Warn("qclient: connection attempt failed")
		c.recordFailedAttempt()
		if c.shouldGiveUp() {
			return nil, pkgerrors.Wrap(dialErr, ErrRetriesExhausted.Error())
		}

		delay := c.backoff.NextBackOff()
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-c.ctx.Done():
			timer.Stop()
			return nil, c.ctx.Err()
		}
	}
}

func (c *Client) dialOnce() (*netio.Stream, string, error) {
	se, ok := c.decider.GetNextEndpoint(c.ctx)
	if !ok {
		return nil, "", ErrNoEndpoints
	}
	addr := se.String()
	if c.opts.FaultInjector.BlockNextConnection() {
		return nil, addr, pkgerrors.New("qclient: fault injector blocked connection to " + addr)
	}
	conn, err := c.opts.Dialer(c.ctx, se)
	if err != nil {
		return nil, addr, pkgerrors.WithMessage(err, "dial "+addr)
	}
	stream, err := netio.NewStream(conn, &c.opts.TLSConfig, c.opts.Logger)
	if err != nil {
		return nil, addr, pkgerrors.WithMessage(err, "prime stream to "+addr)
	}
	return stream, addr, nil
}

// runConnectionUntilBroken spawns the reader and writer goroutines over
// stream and blocks until both exit, then tears the connection down and
// re-primes ConnectionCore for the next attempt.
//
// The two goroutines block on different things - the reader on the
// socket, the writer on ConnectionCore's request-arrived condition
// variable - so whichever one notices the connection died first must
// wake the other: signalBroken shuts the socket down (unblocking a
// pending Read) and disables ConnectionCore's blocking mode (unblocking
// a pending GetNextToWrite), exactly once per generation.
func (c *Client) runConnectionUntilBroken(stream *netio.Stream) {
	c.setCurrentStream(stream)
	c.core.SetBlockingMode(true)

	var breakOnce sync.Once
	signalBroken := func() {
		breakOnce.Do(func() {
			stream.Shutdown()
			c.core.SetBlockingMode(false)
		})
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.writerLoop(stream, signalBroken)
	}()
	go func() {
		defer wg.Done()
		c.readerLoop(stream, signalBroken)
	}()
	wg.Wait()

	stream.Shutdown()
	stream.Close()
	c.setCurrentStream(nil)

	c.connected.Store(false)
	connectedGauge.Set(0)
	c.core.Reconnection()
}

// writerLoop is spec.md §4.9's Writer loop: pull the next unsent frame
// from ConnectionCore and send it, until the socket errors or
// signalBroken's SetBlockingMode(false) unblocks GetNextToWrite.
func (c *Client) writerLoop(stream *netio.Stream, signalBroken func()) {
	defer signalBroken()
	for {
		buf, ok := c.core.GetNextToWrite()
		if !ok {
			return
		}
		if _, err := stream.Send(buf); err != nil {
			c.logger.WithError(err).Debug("qclient: write failed, breaking connection")
			return
		}
	}
}

// readerLoop is spec.md §4.9's Reader loop: parse frames off the socket
// and either dispatch them as pub/sub push, intercept a MOVED redirect,
// or feed them to ConnectionCore.ConsumeResponse. Returns when the
// socket dies, a protocol violation occurs, or a redirect is registered.
func (c *Client) readerLoop(stream *netio.Stream, signalBroken func()) {
	defer signalBroken()
	parser := resp.NewParser(bufio.NewReader(&streamReader{stream: stream}))
	parser.PushTypesEnabled = c.opts.EnablePushTypes

	for {
		reply, err := parser.ReadReply()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.logger.WithError(err).Debug("qclient: read failed, breaking connection")
			}
			return
		}

		wasHandshaking := c.core.State() == connection.Handshaking
		if wasHandshaking && c.opts.FaultInjector.CorruptNextHandshake() {
			reply = resp.NewError("qclient: injected handshake failure")
		}

		if !wasHandshaking && (c.opts.ExclusivePubsub || reply.Kind == resp.KindPush) {
			c.dispatchPush(reply)
			continue
		}

		if !wasHandshaking && c.opts.TransparentRedirects && reply.IsError() {
			if target, ok := parseMoved(string(reply.Str)); ok {
				c.decider.RegisterRedirection(target)
				redirectsCounter.Inc()
				return
			}
		}

		if !c.core.ConsumeResponse(reply) {
			c.logger.Warn("qclient: protocol violation, breaking connection")
			return
		}

		if wasHandshaking && c.core.State() == connection.Open {
			c.onConnectionOpen()
		}
	}
}

// onConnectionOpen runs once per connection, the moment the handshake
// completes: it resets the retry/backoff bookkeeping, tells the
// EndpointDecider this member is healthy, and fires the reconnect
// handler (BaseSubscriber's re-SUBSCRIBE hook).
func (c *Client) onConnectionOpen() {
	c.connected.Store(true)
	connectedGauge.Set(1)
	reconnectsCounter.Inc()
	c.resetRetryState()
	c.decider.ResetAttempts()
	c.invokeReconnectHandler()
}

func (c *Client) recordFailedAttempt() {
	c.retryMu.Lock()
	c.attemptsSinceSuccess++
	c.retryMu.Unlock()
}

func (c *Client) resetRetryState() {
	c.retryMu.Lock()
	c.attemptsSinceSuccess = 0
	c.lastSuccessAt = time.Now()
	c.retryMu.Unlock()
	c.backoff.Reset()
}

// shouldGiveUp implements spec.md §4.10's RetryStrategy modes.
func (c *Client) shouldGiveUp() bool {
	c.retryMu.Lock()
	defer c.retryMu.Unlock()

	switch c.opts.RetryStrategy.Mode {
	case NoRetries:
		return c.attemptsSinceSuccess >= 1
	case NRetries:
		return int64(c.attemptsSinceSuccess) > c.opts.RetryStrategy.Param
	case WithTimeout:
		return time.Since(c.lastSuccessAt) > time.Duration(c.opts.RetryStrategy.Param)*time.Second
	case Infinite:
		return false
	default:
		return true
	}
}

// streamReader adapts netio.Stream's timeout-based Recv to io.Reader for
// bufio/resp.Parser: a zero timeout blocks until data, EOF, or a socket
// error, which is exactly what the reader goroutine wants instead of the
// original's poll(POLLIN) wait.
type streamReader struct {
	stream *netio.Stream
}

func (r *streamReader) Read(p []byte) (int, error) {
	res := r.stream.Recv(p, 0)
	if !res.Alive {
		if res.Err != nil {
			return res.N, res.Err
		}
		return res.N, io.EOF
	}
	return res.N, nil
}
