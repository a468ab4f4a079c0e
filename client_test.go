package qclient

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/theanalyst/qclient-go/internal/endpoint"
	"github.com/theanalyst/qclient-go/internal/resp"
)

func testLogger() *log.Entry {
	logger := log.New()
	logger.SetLevel(log.PanicLevel) // keep test output quiet
	return log.NewEntry(logger)
}

func testResolver() *endpoint.SystemResolver {
	return &endpoint.SystemResolver{Intercept: map[string][]string{
		"primary":   {"127.0.0.1"},
		"secondary": {"127.0.0.1"},
	}}
}

func replyBulk(s string) []byte   { return []byte(fmt.Sprintf("$%d\r\n%s\r\n", len(s), s)) }
func replyStatus(s string) []byte { return []byte("+" + s + "\r\n") }
func replyError(s string) []byte  { return []byte("-" + s + "\r\n") }

// serverReadCommand parses one incoming request frame and returns its
// command tokens, the way a real RESP server would before dispatching.
func serverReadCommand(parser *resp.Parser) ([]string, error) {
	reply, err := parser.ReadReply()
	if err != nil {
		return nil, err
	}
	tokens := make([]string, len(reply.Array))
	for i, item := range reply.Array {
		tokens[i] = string(item.Str)
	}
	return tokens, nil
}

func waitForReply(t *testing.T, f *Future, timeout time.Duration) *resp.Reply {
	t.Helper()
	done := make(chan *resp.Reply, 1)
	go func() { done <- f.Wait() }()
	select {
	case r := <-done:
		return r
	case <-time.After(timeout):
		t.Fatal("timed out waiting for reply")
		return nil
	}
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestClientHandshakeThenRequestReply(t *testing.T) {
	dialer := func(ctx context.Context, se endpoint.ServiceEndpoint) (net.Conn, error) {
		clientConn, serverConn := net.Pipe()
		go func() {
			defer serverConn.Close()
			parser := resp.NewParser(bufio.NewReader(serverConn))

			if _, err := serverReadCommand(parser); err != nil {
				return
			}
			serverConn.Write(replyBulk("qclient-ping"))

			cmd, err := serverReadCommand(parser)
			if err != nil || len(cmd) < 2 {
				return
			}
			serverConn.Write(replyBulk("bar"))
		}()
		return clientConn, nil
	}

	c := New(Options{
		Members:                  endpoint.Members{{Host: "primary", Port: 1}},
		Resolver:                 testResolver(),
		Dialer:                   dialer,
		EnsureConnectionIsPrimed: true,
		Logger:                   testLogger(),
	})
	defer c.Close()

	future := c.Send("GET", "foo")
	reply := waitForReply(t, future, 2*time.Second)
	if reply.String() != "bar" {
		t.Fatalf("got %v", reply)
	}
	waitUntil(t, time.Second, c.IsConnected)
}

func TestClientFollowsMovedRedirect(t *testing.T) {
	var attempt int32

	dialer := func(ctx context.Context, se endpoint.ServiceEndpoint) (net.Conn, error) {
		clientConn, serverConn := net.Pipe()
		n := atomic.AddInt32(&attempt, 1)
		go func() {
			defer serverConn.Close()
			parser := resp.NewParser(bufio.NewReader(serverConn))

			if _, err := serverReadCommand(parser); err != nil {
				return
			}
			serverConn.Write(replyBulk("qclient-ping"))

			cmd, err := serverReadCommand(parser)
			if err != nil || len(cmd) < 2 {
				return
			}
			if n == 1 {
				serverConn.Write(replyError("MOVED 1 secondary:2"))
				return
			}
			serverConn.Write(replyBulk("bar"))
		}()
		return clientConn, nil
	}

	c := New(Options{
		Members:                  endpoint.Members{{Host: "primary", Port: 1}},
		Resolver:                 testResolver(),
		Dialer:                   dialer,
		EnsureConnectionIsPrimed: true,
		TransparentRedirects:     true,
		Logger:                   testLogger(),
	})
	defer c.Close()

	future := c.Send("GET", "foo")
	reply := waitForReply(t, future, 2*time.Second)
	if reply.String() != "bar" {
		t.Fatalf("got %v", reply)
	}
	if atomic.LoadInt32(&attempt) != 2 {
		t.Fatalf("expected exactly one redirect-driven reconnect, got %d attempts", attempt)
	}
}

func TestClientReconnectsAfterSocketFailure(t *testing.T) {
	var attempt int32

	dialer := func(ctx context.Context, se endpoint.ServiceEndpoint) (net.Conn, error) {
		clientConn, serverConn := net.Pipe()
		n := atomic.AddInt32(&attempt, 1)
		go func() {
			parser := resp.NewParser(bufio.NewReader(serverConn))
			if _, err := serverReadCommand(parser); err != nil {
				serverConn.Close()
				return
			}
			serverConn.Write(replyBulk("qclient-ping"))

			if n == 1 {
				// die without answering the next request
				serverConn.Close()
				return
			}
			defer serverConn.Close()
			cmd, err := serverReadCommand(parser)
			if err != nil || len(cmd) < 2 {
				return
			}
			serverConn.Write(replyBulk("bar"))
		}()
		return clientConn, nil
	}

	c := New(Options{
		Members:                  endpoint.Members{{Host: "primary", Port: 1}},
		Resolver:                 testResolver(),
		Dialer:                   dialer,
		EnsureConnectionIsPrimed: true,
		RetryStrategy:            RetryStrategy{Mode: Infinite},
		Logger:                   testLogger(),
	})
	defer c.Close()

	waitUntil(t, 2*time.Second, c.IsConnected)

	future := c.Send("GET", "foo")
	reply := waitForReply(t, future, 2*time.Second)
	if reply.String() != "bar" {
		t.Fatalf("got %v", reply)
	}
}

func TestClientNoRetriesFailsPendingOnDialFailure(t *testing.T) {
	dialer := func(ctx context.Context, se endpoint.ServiceEndpoint) (net.Conn, error) {
		return nil, fmt.Errorf("connection refused")
	}

	c := New(Options{
		Members:       endpoint.Members{{Host: "primary", Port: 1}},
		Resolver:      testResolver(),
		Dialer:        dialer,
		RetryStrategy: RetryStrategy{Mode: NoRetries},
		Logger:        testLogger(),
	})
	defer c.Close()

	future := c.Send("GET", "foo")
	reply := waitForReply(t, future, 2*time.Second)
	if !reply.IsNil() {
		t.Fatalf("expected a null reply once retries are exhausted, got %v", reply)
	}
}
