package pubsub

import (
	"sync"
	"testing"
	"time"

	"github.com/theanalyst/qclient-go/internal/resp"
)

type fakeClient struct {
	mu           sync.Mutex
	sent         [][]byte
	pushHandler  func(*resp.Reply)
	reconnectFns []func()
}

func (c *fakeClient) Execute(req *resp.EncodedRequest, callback func(*resp.Reply)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, req.Buf)
}

func (c *fakeClient) OnPush(handler func(*resp.Reply)) {
	c.pushHandler = handler
}

func (c *fakeClient) OnReconnect(handler func()) {
	c.reconnectFns = append(c.reconnectFns, handler)
}

func (c *fakeClient) push(reply *resp.Reply) {
	c.pushHandler(reply)
}

func (c *fakeClient) reconnect() {
	for _, fn := range c.reconnectFns {
		fn()
	}
}

func TestSubscriberRoutesMessageToSubscription(t *testing.T) {
	client := &fakeClient{}
	s := NewSubscriber(client)
	sub := s.Subscribe("chan1")

	client.push(resp.NewArray(
		resp.NewBulkString([]byte("message")),
		resp.NewBulkString([]byte("chan1")),
		resp.NewBulkString([]byte("hi")),
	))

	select {
	case msg := <-sub.Messages():
		if string(msg.Payload) != "hi" {
			t.Fatalf("got %q", msg.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a message")
	}
}

func TestSubscriberCallbackMode(t *testing.T) {
	client := &fakeClient{}
	s := NewSubscriber(client)

	got := make(chan string, 1)
	s.SubscribeWithCallback("chan1", func(m *Message) {
		got <- string(m.Payload)
	})

	client.push(resp.NewArray(
		resp.NewBulkString([]byte("message")),
		resp.NewBulkString([]byte("chan1")),
		resp.NewBulkString([]byte("hi")),
	))

	select {
	case payload := <-got:
		if payload != "hi" {
			t.Fatalf("got %q", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("expected callback to fire")
	}
}

func TestSubscriberUnsubscribeSendsOnlyWhenLastOnChannel(t *testing.T) {
	client := &fakeClient{}
	s := NewSubscriber(client)

	a := s.Subscribe("chan1")
	b := s.Subscribe("chan1")

	a.Unsubscribe()
	if len(client.sent) != 1 { // just the original SUBSCRIBE
		t.Fatalf("expected no UNSUBSCRIBE yet, sent=%v", client.sent)
	}

	b.Unsubscribe()
	if len(client.sent) != 2 {
		t.Fatalf("expected UNSUBSCRIBE once last subscription dropped, sent=%v", client.sent)
	}
}

func TestBaseSubscriberResubscribesOnReconnect(t *testing.T) {
	client := &fakeClient{}
	s := NewSubscriber(client)
	s.Subscribe("chan1")
	s.PSubscribe("news.*")

	before := len(client.sent)
	client.reconnect()
	if len(client.sent) != before+2 {
		t.Fatalf("expected SUBSCRIBE+PSUBSCRIBE replay on reconnect, sent=%v", client.sent)
	}
}
