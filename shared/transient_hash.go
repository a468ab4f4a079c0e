package shared

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/theanalyst/qclient-go/pubsub"
)

// transientCacheExpiration bounds how long a field survives locally
// without a refreshing broadcast before it's considered gone; there is
// no resilver for the transient variant, so a stale field is simply
// evicted rather than corrected.
const transientCacheExpiration = 5 * time.Minute
const transientCacheCleanup = 10 * time.Minute

// TransientSharedHash is spec.md's best-effort shared hash: unlike
// SharedHash there is no durability and no resilver, only whatever
// batches this replica has observed since it subscribed. Fields expire
// locally after transientCacheExpiration so a replica that stops
// receiving broadcasts doesn't serve indefinitely-stale data.
type TransientSharedHash struct {
	mgr     *Manager
	channel string
	sub     *pubsub.Subscription

	mu       sync.Mutex
	contents *cache.Cache
}

func newTransientSharedHash(mgr *Manager, channel string) *TransientSharedHash {
	h := &TransientSharedHash{
		mgr:      mgr,
		channel:  channel,
		contents: cache.New(transientCacheExpiration, transientCacheCleanup),
	}
	h.sub = mgr.subscriber.SubscribeWithCallback(channel, h.processIncoming)
	return h
}

// Set broadcasts field=value on the channel; every replica currently
// subscribed applies it, including this one.
func (h *TransientSharedHash) Set(field, value string) {
	h.SetBatch(map[string]string{field: value})
}

// SetBatch broadcasts a batch of fields in one message.
func (h *TransientSharedHash) SetBatch(batch map[string]string) {
	h.mgr.Publish(h.channel, EncodeBatch(batch))
}

// Get returns the locally cached value for field, if any and not yet
// expired.
func (h *TransientSharedHash) Get(field string) (string, bool) {
	v, ok := h.contents.Get(field)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Keys returns the fields currently present locally.
func (h *TransientSharedHash) Keys() []string {
	items := h.contents.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	return keys
}

func (h *TransientSharedHash) processIncoming(msg *pubsub.Message) {
	if msg.Kind != pubsub.KindMessage || msg.Channel != h.channel {
		return
	}
	batch, ok := DecodeBatch(msg.Payload)
	if !ok {
		return
	}
	for k, v := range batch {
		h.contents.SetDefault(k, v)
	}
}
