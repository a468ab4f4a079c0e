package pubsub

// Subscription is a unique, movable handle into a Subscriber's routing
// table (spec.md §4.13: "a unique, movable handle. Its destructor
// unregisters it."). Go has no destructors, so callers must call
// Unsubscribe explicitly — typically via `defer sub.Unsubscribe()`.
type Subscription struct {
	id        int64
	sub       *Subscriber
	name      string // channel or pattern
	isPattern bool

	inbox    chan *Message // default mode
	callback func(*Message) // push mode; mutually exclusive with inbox
}

// Messages returns the subscription's inbox channel. Calling this on a
// callback-mode subscription returns nil.
func (s *Subscription) Messages() <-chan *Message {
	return s.inbox
}

// Unsubscribe unregisters this subscription. If it was the last one
// registered for its channel/pattern, the underlying Subscriber sends
// UNSUBSCRIBE/PUNSUBSCRIBE to the server.
func (s *Subscription) Unsubscribe() {
	s.sub.remove(s)
}
