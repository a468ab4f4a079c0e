package shared

import (
	"sync"

	"github.com/theanalyst/qclient-go/internal/resp"
)

// fakeClient is a minimal pubsub.Client + shared.Executor test double:
// it records every request sent and lets the test feed back replies
// and push frames synchronously.
type fakeClient struct {
	mu          sync.Mutex
	sent        []sentRequest
	sentCh      chan sentRequest
	pushHandler func(*resp.Reply)
}

type sentRequest struct {
	buf      []byte
	callback func(*resp.Reply)
}

func (c *fakeClient) Execute(req *resp.EncodedRequest, callback func(*resp.Reply)) {
	c.mu.Lock()
	c.sent = append(c.sent, sentRequest{buf: req.Buf, callback: callback})
	c.mu.Unlock()
	if c.sentCh != nil {
		c.sentCh <- sentRequest{buf: req.Buf, callback: callback}
	}
}

// next blocks until the next request has been sent, for tests whose
// call under test runs on its own goroutine and blocks on a Future.
func (c *fakeClient) next() sentRequest {
	return <-c.sentCh
}

func newFakeClient() *fakeClient {
	return &fakeClient{sentCh: make(chan sentRequest, 16)}
}

func (c *fakeClient) OnPush(handler func(*resp.Reply)) {
	c.pushHandler = handler
}

func (c *fakeClient) OnReconnect(func()) {}

func (c *fakeClient) push(reply *resp.Reply) {
	c.pushHandler(reply)
}

func (c *fakeClient) last() sentRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent[len(c.sent)-1]
}

func (c *fakeClient) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}
