package pubsub

import "sync"

// defaultInboxSize is the bounded-queue capacity for subscriptions that
// don't attach a push-mode callback.
const defaultInboxSize = 256

// Subscriber is spec.md §4.13's Subscriber: owns a BaseSubscriber and a
// multimap channel/pattern → Subscriptions, routing each incoming
// Message to every matching Subscription.
type Subscriber struct {
	mu        sync.Mutex
	base      *BaseSubscriber
	byChannel map[string][]*Subscription
	byPattern map[string][]*Subscription
	nextID    int64
}

// NewSubscriber builds a Subscriber over client.
func NewSubscriber(client Client) *Subscriber {
	s := &Subscriber{
		byChannel: make(map[string][]*Subscription),
		byPattern: make(map[string][]*Subscription),
	}
	s.base = NewBaseSubscriber(client, s.dispatch)
	return s
}

// Subscribe returns a Subscription fed by a bounded inbox channel.
func (s *Subscriber) Subscribe(channel string) *Subscription {
	return s.subscribe(channel, false, nil)
}

// SubscribeWithCallback returns a Subscription whose matching messages
// are delivered synchronously to cb instead of an inbox (push mode).
func (s *Subscriber) SubscribeWithCallback(channel string, cb func(*Message)) *Subscription {
	return s.subscribe(channel, false, cb)
}

// PSubscribe is the pattern-matching counterpart of Subscribe.
func (s *Subscriber) PSubscribe(pattern string) *Subscription {
	return s.subscribe(pattern, true, nil)
}

// PSubscribeWithCallback is the pattern-matching counterpart of
// SubscribeWithCallback.
func (s *Subscriber) PSubscribeWithCallback(pattern string, cb func(*Message)) *Subscription {
	return s.subscribe(pattern, true, cb)
}

func (s *Subscriber) subscribe(name string, isPattern bool, cb func(*Message)) *Subscription {
	s.mu.Lock()
	s.nextID++
	sub := &Subscription{id: s.nextID, sub: s, name: name, isPattern: isPattern, callback: cb}
	if cb == nil {
		sub.inbox = make(chan *Message, defaultInboxSize)
	}

	table := s.byChannel
	if isPattern {
		table = s.byPattern
	}
	firstForName := len(table[name]) == 0
	table[name] = append(table[name], sub)
	s.mu.Unlock()

	if firstForName {
		if isPattern {
			s.base.PSubscribe(name)
		} else {
			s.base.Subscribe(name)
		}
	}
	return sub
}

func (s *Subscriber) remove(sub *Subscription) {
	s.mu.Lock()
	table := s.byChannel
	if sub.isPattern {
		table = s.byPattern
	}
	list := table[sub.name]
	for i, cand := range list {
		if cand == sub {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	nowEmpty := len(list) == 0
	if nowEmpty {
		delete(table, sub.name)
	} else {
		table[sub.name] = list
	}
	s.mu.Unlock()

	if sub.inbox != nil {
		close(sub.inbox)
	}
	if nowEmpty {
		if sub.isPattern {
			s.base.PUnsubscribe(sub.name)
		} else {
			s.base.Unsubscribe(sub.name)
		}
	}
}

func (s *Subscriber) dispatch(msg *Message) {
	s.mu.Lock()
	var targets []*Subscription
	switch msg.Kind {
	case KindMessage:
		targets = append(targets, s.byChannel[msg.Channel]...)
	case KindPMessage:
		targets = append(targets, s.byPattern[msg.Pattern]...)
	default:
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	for _, sub := range targets {
		if sub.callback != nil {
			sub.callback(msg)
			continue
		}
		select {
		case sub.inbox <- msg:
		default: // inbox full: drop rather than block the reader goroutine
		}
	}
}
