// Package shared implements spec.md §4.15/C20: replicated views kept in
// sync over pub/sub, built on top of the Executor and pub/sub.Subscriber
// a Client already provides.
package shared

import (
	"github.com/theanalyst/qclient-go/internal/resp"
	"github.com/theanalyst/qclient-go/pubsub"
)

// Executor runs a single RESP request and invokes callback with its
// reply. Satisfied by qclient.Client; narrowed here so this package
// never imports the top-level package.
type Executor interface {
	Execute(req *resp.EncodedRequest, callback func(*resp.Reply))
}

// Manager is spec.md's SharedManager: the shared entry point that hands
// out SharedHash/TransientSharedHash/SharedDeque views, all multiplexed
// over one Executor and one pubsub.Subscriber.
type Manager struct {
	exec       Executor
	subscriber *pubsub.Subscriber
}

// NewManager builds a Manager over an existing client Executor and
// pubsub Subscriber.
func NewManager(exec Executor, subscriber *pubsub.Subscriber) *Manager {
	return &Manager{exec: exec, subscriber: subscriber}
}

// Publish issues a PUBLISH for channel/payload, ignoring the reply: this
// is fire-and-forget exactly as the original SharedManager::publish is,
// used internally by the shared data structures to announce changes.
func (m *Manager) Publish(channel string, payload []byte) {
	m.exec.Execute(resp.EncodeBytes([]byte("PUBLISH"), []byte(channel), payload), nil)
}

// issue runs req through the Executor and returns a Future for its
// reply, the building block every write-returning-a-future method in
// this package is expressed in terms of.
func (m *Manager) issue(req *resp.EncodedRequest) *Future {
	future := newFuture()
	m.exec.Execute(req, future.resolve)
	return future
}

// issueHashWrite sets a batch of fields on the server-side hash stored
// at key and returns a future for the acknowledgement.
func (m *Manager) issueHashWrite(key string, values map[string]string) *Future {
	tokens := make([]string, 0, 2+2*len(values))
	tokens = append(tokens, "HSET", key)
	for k, v := range values {
		tokens = append(tokens, k, v)
	}
	return m.issue(resp.Encode(tokens...))
}

// GetSharedHash returns the persistent, resilver-backed replicated map
// for key.
func (m *Manager) GetSharedHash(key string) *SharedHash {
	return newSharedHash(m, key)
}

// GetTransientSharedHash returns a best-effort, non-durable replicated
// map broadcast on channel: there is no resilver and no durability
// guarantee, only whatever batches have been observed since this
// instance subscribed.
func (m *Manager) GetTransientSharedHash(channel string) *TransientSharedHash {
	return newTransientSharedHash(m, channel)
}

// GetSharedDeque returns a handle to the server-side deque stored under
// key, with a pubsub-invalidated local size cache.
func (m *Manager) GetSharedDeque(key string) *SharedDeque {
	return newSharedDeque(m, key)
}
