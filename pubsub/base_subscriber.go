package pubsub

import (
	"sort"
	"sync"

	"github.com/theanalyst/qclient-go/internal/resp"
)

// Client is the subset of qclient.Client BaseSubscriber needs: issuing
// commands, receiving push-type frames, and learning about
// reconnections so it can re-subscribe. Kept as an interface so this
// package doesn't import the top-level client package.
type Client interface {
	Execute(req *resp.EncodedRequest, callback func(*resp.Reply))
	OnPush(handler func(*resp.Reply))
	OnReconnect(handler func())
}

// BaseSubscriber is spec.md §4.13's BaseSubscriber: a Client configured
// for pub/sub that re-sends SUBSCRIBE/PSUBSCRIBE for the union of
// current channels/patterns on every reconnection.
type BaseSubscriber struct {
	mu       sync.Mutex
	client   Client
	channels map[string]struct{}
	patterns map[string]struct{}
	listener func(*Message)
}

// NewBaseSubscriber wires listener to receive every parsed push-type
// message and registers the reconnect hook.
func NewBaseSubscriber(client Client, listener func(*Message)) *BaseSubscriber {
	b := &BaseSubscriber{
		client:   client,
		channels: make(map[string]struct{}),
		patterns: make(map[string]struct{}),
		listener: listener,
	}
	client.OnPush(b.handlePush)
	client.OnReconnect(b.resubscribeAll)
	return b
}

func (b *BaseSubscriber) handlePush(reply *resp.Reply) {
	msg, ok := ParseMessage(reply)
	if !ok || b.listener == nil {
		return
	}
	b.listener(msg)
}

// Subscribe adds channels to the tracked set and sends SUBSCRIBE.
func (b *BaseSubscriber) Subscribe(channels ...string) {
	b.mu.Lock()
	for _, c := range channels {
		b.channels[c] = struct{}{}
	}
	b.mu.Unlock()
	b.send("SUBSCRIBE", channels)
}

// PSubscribe adds patterns to the tracked set and sends PSUBSCRIBE.
func (b *BaseSubscriber) PSubscribe(patterns ...string) {
	b.mu.Lock()
	for _, p := range patterns {
		b.patterns[p] = struct{}{}
	}
	b.mu.Unlock()
	b.send("PSUBSCRIBE", patterns)
}

// Unsubscribe removes channels from the tracked set and sends
// UNSUBSCRIBE.
func (b *BaseSubscriber) Unsubscribe(channels ...string) {
	b.mu.Lock()
	for _, c := range channels {
		delete(b.channels, c)
	}
	b.mu.Unlock()
	b.send("UNSUBSCRIBE", channels)
}

// PUnsubscribe removes patterns from the tracked set and sends
// PUNSUBSCRIBE.
func (b *BaseSubscriber) PUnsubscribe(patterns ...string) {
	b.mu.Lock()
	for _, p := range patterns {
		delete(b.patterns, p)
	}
	b.mu.Unlock()
	b.send("PUNSUBSCRIBE", patterns)
}

func (b *BaseSubscriber) send(command string, names []string) {
	if len(names) == 0 {
		return
	}
	tokens := append([]string{command}, names...)
	b.client.Execute(resp.Encode(tokens...), nil)
}

// resubscribeAll re-sends SUBSCRIBE/PSUBSCRIBE for the union of
// currently tracked channels and patterns; called on every
// reconnection event, per spec.md §4.13.
func (b *BaseSubscriber) resubscribeAll() {
	b.mu.Lock()
	channels := sortedKeys(b.channels)
	patterns := sortedKeys(b.patterns)
	b.mu.Unlock()

	b.send("SUBSCRIBE", channels)
	b.send("PSUBSCRIBE", patterns)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
