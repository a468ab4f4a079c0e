package shared

import (
	"sync"

	"github.com/theanalyst/qclient-go/internal/resp"
	"github.com/theanalyst/qclient-go/pubsub"
)

// SharedHash is spec.md §4.15's eventually-consistent replicated map:
// QuarkDB is the single source of truth, every write goes through the
// server, and `get` only ever returns a (possibly stale) local
// snapshot. Single-field updates arrive as pubsub revisions; anything
// else (missed revision, first subscribe) triggers an asynchronous
// resilver that re-fetches the entire hash.
type SharedHash struct {
	mgr *Manager
	key string
	sub *pubsub.Subscription

	mu             sync.RWMutex
	contents       map[string]string
	currentVersion uint64
	resilvering    bool
}

func newSharedHash(mgr *Manager, key string) *SharedHash {
	h := &SharedHash{mgr: mgr, key: key, contents: make(map[string]string)}
	h.sub = mgr.subscriber.SubscribeWithCallback(key, h.processIncoming)
	h.triggerResilver()
	return h
}

// Get returns the current local value of field. Eventually consistent:
// a concurrent writer elsewhere may already have a newer, acknowledged
// value that hasn't propagated here yet.
func (h *SharedHash) Get(field string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.contents[field]
	return v, ok
}

// Keys returns the set of fields currently known locally.
func (h *SharedHash) Keys() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	keys := make([]string, 0, len(h.contents))
	for k := range h.contents {
		keys = append(keys, k)
	}
	return keys
}

// CurrentVersion reports the highest revision this replica has applied.
func (h *SharedHash) CurrentVersion() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.currentVersion
}

// Set writes field=value through the SharedManager and returns a future
// for the server's acknowledgement. Not guaranteed to succeed across
// network instabilities.
func (h *SharedHash) Set(field, value string) *Future {
	return h.mgr.issueHashWrite(h.key, map[string]string{field: value})
}

// SetBatch writes a batch of fields atomically through the server.
func (h *SharedHash) SetBatch(values map[string]string) *Future {
	return h.mgr.issueHashWrite(h.key, values)
}

// Del removes field through the server.
func (h *SharedHash) Del(field string) *Future {
	return h.mgr.issue(resp.Encode("HDEL", h.key, field))
}

// processIncoming applies a single-field revision delivered over pubsub.
// The payload is version(int64 big-endian) + field(length-prefixed) +
// value(length-prefixed).
func (h *SharedHash) processIncoming(msg *pubsub.Message) {
	if msg.Kind != pubsub.KindMessage {
		return
	}
	version, rest, ok := readInt64(msg.Payload)
	if !ok || version < 0 {
		return
	}
	field, rest, ok := readString(rest)
	if !ok {
		return
	}
	value, _, ok := readString(rest)
	if !ok {
		return
	}
	h.feedRevision(uint64(version), field, value)
}

// feedRevision applies revision v if it is exactly the next expected
// one; otherwise the replica is stale and a resilver is triggered.
func (h *SharedHash) feedRevision(v uint64, field, value string) {
	h.mu.Lock()
	if v != h.currentVersion+1 {
		h.mu.Unlock()
		h.triggerResilver()
		return
	}
	h.contents[field] = value
	h.currentVersion = v
	h.mu.Unlock()
}

// triggerResilver asynchronously re-fetches the entire hash + its
// version, overwriting local contents once the reply arrives. Multiple
// concurrent triggers collapse into one in-flight fetch.
func (h *SharedHash) triggerResilver() {
	h.mu.Lock()
	if h.resilvering {
		h.mu.Unlock()
		return
	}
	h.resilvering = true
	h.mu.Unlock()

	h.mgr.exec.Execute(resp.Encode("SHAREDHASH-GETALL", h.key), func(reply *resp.Reply) {
		h.mu.Lock()
		h.resilvering = false
		h.mu.Unlock()
		h.resilver(reply)
	})
}

// resilver replaces local contents wholesale from a SHAREDHASH-GETALL
// reply: an array whose first element is the version, followed by
// field/value pairs.
func (h *SharedHash) resilver(reply *resp.Reply) {
	if reply == nil || reply.Kind != resp.KindArray || len(reply.Array) == 0 {
		return
	}
	version := reply.Array[0]
	if version.Kind != resp.KindInteger {
		return
	}

	newContents := make(map[string]string)
	pairs := reply.Array[1:]
	for i := 0; i+1 < len(pairs); i += 2 {
		newContents[string(pairs[i].Str)] = string(pairs[i+1].Str)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.contents = newContents
	h.currentVersion = uint64(version.Integer)
}
