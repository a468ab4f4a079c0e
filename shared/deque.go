package shared

import (
	"sync"

	"github.com/theanalyst/qclient-go/internal/resp"
	"github.com/theanalyst/qclient-go/pubsub"
)

// SharedDeque is a handle to a server-side deque: the contents live on
// the server, this type only caches the size locally, invalidating it
// on every pubsub notification of a mutation (its own or another
// client's).
type SharedDeque struct {
	mgr *Manager
	key string
	sub *pubsub.Subscription

	mu           sync.Mutex
	cachedSize   int64
	cachedSizeOK bool
}

func newSharedDeque(mgr *Manager, key string) *SharedDeque {
	d := &SharedDeque{mgr: mgr, key: key}
	d.sub = mgr.subscriber.SubscribeWithCallback(key, func(*pubsub.Message) {
		d.invalidateCachedSize()
	})
	return d
}

// PushBack appends contents to the back of the deque.
func (d *SharedDeque) PushBack(contents string) *Future {
	d.invalidateCachedSize()
	d.mgr.Publish(d.key, []byte("push-back-prepare"))
	future := d.mgr.issue(resp.Encode("DEQUE-PUSH-BACK", d.key, contents))
	d.mgr.Publish(d.key, []byte("push-back-done"))
	return future
}

// Clear empties the deque.
func (d *SharedDeque) Clear() *Future {
	d.invalidateCachedSize()
	d.mgr.Publish(d.key, []byte("clear-prepare"))
	future := d.mgr.issue(resp.Encode("DEQUE-CLEAR", d.key))
	d.mgr.Publish(d.key, []byte("clear-done"))
	return future
}

// PopFront removes and returns the item at the front, blocking until
// the server acknowledges. An empty deque yields an empty string, not
// an error.
func (d *SharedDeque) PopFront() (string, error) {
	d.invalidateCachedSize()
	d.mgr.Publish(d.key, []byte("pop-front-prepare"))
	future := d.mgr.issue(resp.Encode("DEQUE-POP-FRONT", d.key))
	reply := future.Wait()
	d.mgr.Publish(d.key, []byte("pop-front-done"))

	if reply.IsError() {
		return "", &deqError{string(reply.Str)}
	}
	if reply.IsNil() {
		return "", nil
	}
	return string(reply.Str), nil
}

// Size returns the deque's length, using a locally cached value when
// available.
func (d *SharedDeque) Size() (int64, error) {
	d.mu.Lock()
	if d.cachedSizeOK {
		size := d.cachedSize
		d.mu.Unlock()
		return size, nil
	}
	d.mu.Unlock()

	future := d.mgr.issue(resp.Encode("DEQUE-LEN", d.key))
	reply := future.Wait()
	if reply.IsError() {
		return 0, &deqError{string(reply.Str)}
	}

	d.mu.Lock()
	d.cachedSize = reply.Integer
	d.cachedSizeOK = true
	d.mu.Unlock()
	return reply.Integer, nil
}

func (d *SharedDeque) invalidateCachedSize() {
	d.mu.Lock()
	d.cachedSize = 0
	d.cachedSizeOK = false
	d.mu.Unlock()
}

type deqError struct{ msg string }

func (e *deqError) Error() string { return e.msg }
