package communicator

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Reply is the resolved value of an issued request: the listener's
// status code and contents.
type Reply struct {
	Status   int64
	Contents []byte
}

// Future resolves exactly once, either with a Reply or with an error when
// the request expires.
type Future struct {
	ch   chan result
	once sync.Once
}

type result struct {
	reply Reply
	err   error
}

func newFuture() *Future {
	return &Future{ch: make(chan result, 1)}
}

func (f *Future) resolve(reply Reply, err error) {
	f.once.Do(func() {
		f.ch <- result{reply, err}
	})
}

// Wait blocks for the future's resolution or ctx cancellation.
func (f *Future) Wait(ctx waiter) (Reply, error) {
	select {
	case r := <-f.ch:
		return r.reply, r.err
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

// waiter is the subset of context.Context Wait needs, kept narrow so
// callers aren't forced to import context just to call Wait.
type waiter interface {
	Done() <-chan struct{}
	Err() error
}

type vaultEntry struct {
	id        uuid.UUID
	channel   string
	contents  []byte
	start     time.Time
	lastRetry time.Time
	future    *Future
}

// Vault is the PendingRequestVault of spec.md §4.14: a UUID-keyed table
// of in-flight requests, each also linked into an ordered "next to
// retry" list so a retry pass can cheaply find the item due soonest.
type Vault struct {
	mu        sync.Mutex
	pending   map[uuid.UUID]*list.Element
	retryList *list.List
}

// NewVault returns an empty vault.
func NewVault() *Vault {
	return &Vault{pending: make(map[uuid.UUID]*list.Element), retryList: list.New()}
}

// Insert adds a new entry and returns its id and future. now seeds both
// start and lastRetry.
func (v *Vault) Insert(channel string, contents []byte, now time.Time) (uuid.UUID, *Future) {
	id := uuid.New()
	entry := &vaultEntry{
		id:        id,
		channel:   channel,
		contents:  contents,
		start:     now,
		lastRetry: now,
		future:    newFuture(),
	}
	v.mu.Lock()
	elem := v.retryList.PushBack(entry)
	v.pending[id] = elem
	v.mu.Unlock()
	return id, entry.future
}

// Satisfy resolves id's future with reply and removes it, reporting
// whether id was still pending.
func (v *Vault) Satisfy(id uuid.UUID, reply Reply) bool {
	v.mu.Lock()
	elem, ok := v.pending[id]
	if !ok {
		v.mu.Unlock()
		return false
	}
	delete(v.pending, id)
	v.retryList.Remove(elem)
	v.mu.Unlock()

	elem.Value.(*vaultEntry).future.resolve(reply, nil)
	return true
}

// Expire drops every entry whose start is at or before cutoff,
// resolving its future with err.
func (v *Vault) Expire(cutoff time.Time, err error) {
	v.mu.Lock()
	var dropped []*vaultEntry
	for e := v.retryList.Front(); e != nil; {
		next := e.Next()
		entry := e.Value.(*vaultEntry)
		if !entry.start.After(cutoff) {
			delete(v.pending, entry.id)
			v.retryList.Remove(e)
			dropped = append(dropped, entry)
		}
		e = next
	}
	v.mu.Unlock()

	for _, entry := range dropped {
		entry.future.resolve(Reply{}, err)
	}
}

// GetEarliestRetry reports the lastRetry timestamp of the retry list's
// head, the entry due soonest, or ok=false if the vault is empty.
func (v *Vault) GetEarliestRetry() (t time.Time, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	front := v.retryList.Front()
	if front == nil {
		return time.Time{}, false
	}
	return front.Value.(*vaultEntry).lastRetry, true
}

// RetryFrontItem pops the retry list's head, stamps its lastRetry as
// now, and re-appends it at the tail, handing back the fields needed to
// re-PUBLISH.
func (v *Vault) RetryFrontItem(now time.Time) (channel string, contents []byte, id uuid.UUID, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	front := v.retryList.Front()
	if front == nil {
		return "", nil, uuid.UUID{}, false
	}
	entry := front.Value.(*vaultEntry)
	entry.lastRetry = now
	v.retryList.MoveToBack(front)
	return entry.channel, entry.contents, entry.id, true
}

// Len reports the number of in-flight entries; equal for pending and
// retryList by construction (spec.md §4.14 invariant).
func (v *Vault) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.pending)
}
