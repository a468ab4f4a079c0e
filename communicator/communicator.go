package communicator

import (
	"context"
	"errors"
	"time"
)

// ErrExpired is the error a Future resolves with once its entry passes
// hardDeadline without a reply.
var ErrExpired = errors.New("communicator: request expired without a reply")

// Publisher sends payload on channel, the PUBLISH side of spec.md
// §4.14. Kept as an interface so this package doesn't depend on the
// top-level client.
type Publisher interface {
	Publish(channel string, payload []byte)
}

// Communicator is spec.md §4.14's Communicator: issues requests over a
// channel and resolves their futures from replies observed on (usually)
// a different channel, retrying on a ticker until hardDeadline.
type Communicator struct {
	vault         *Vault
	publisher     Publisher
	retryInterval time.Duration
	hardDeadline  time.Duration
	now           func() time.Time
}

// New returns a Communicator that republishes unanswered requests every
// retryInterval and gives up after hardDeadline.
func New(publisher Publisher, retryInterval, hardDeadline time.Duration) *Communicator {
	return &Communicator{
		vault:         NewVault(),
		publisher:     publisher,
		retryInterval: retryInterval,
		hardDeadline:  hardDeadline,
		now:           time.Now,
	}
}

// Issue inserts contents into the vault and PUBLISHes `REQ|id|contents`
// on channel, returning a future that resolves once a matching RESP
// arrives or the request expires.
func (c *Communicator) Issue(channel string, contents []byte) *Future {
	now := c.now()
	id, future := c.vault.Insert(channel, contents, now)
	c.publisher.Publish(channel, encodeRequest(id, contents))
	return future
}

// OnReply feeds an incoming `RESP|id|status|contents` payload to the
// vault; malformed or unknown-id payloads are silently ignored (the
// channel may carry replies for requests from other Communicator
// instances).
func (c *Communicator) OnReply(payload []byte) {
	id, status, contents, ok := decodeReply(payload)
	if !ok {
		return
	}
	c.vault.Satisfy(id, Reply{Status: status, Contents: contents})
}

// RetryPass runs one retry/expiry sweep at time now: entries whose
// start is at or before now-hardDeadline are dropped with ErrExpired;
// every remaining entry due (lastRetry + retryInterval <= now) is
// re-published.
func (c *Communicator) RetryPass(now time.Time) {
	c.vault.Expire(now.Add(-c.hardDeadline), ErrExpired)

	for {
		earliest, ok := c.vault.GetEarliestRetry()
		if !ok || now.Sub(earliest) < c.retryInterval {
			return
		}
		channel, contents, id, ok := c.vault.RetryFrontItem(now)
		if !ok {
			return
		}
		c.publisher.Publish(channel, encodeRequest(id, contents))
	}
}

// Run drives RetryPass on tick until ctx is done.
func (c *Communicator) Run(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.RetryPass(now)
		}
	}
}

// Pending reports the number of in-flight requests.
func (c *Communicator) Pending() int {
	return c.vault.Len()
}
