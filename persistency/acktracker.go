package persistency

import "sync"

// AckTracker translates individual, possibly out-of-order
// acknowledgements into a starting index PersistencyLayer.PopIndex can
// safely advance to (spec.md §4.12, §4.13 data flow).
type AckTracker interface {
	// Ack records that index has been acknowledged.
	Ack(index int64)
	// StartingIndex reports the tracker's current view of the log's
	// starting index.
	StartingIndex() int64
}

// LowestAckTracker only advances StartingIndex past a contiguous prefix
// of acked indices (spec.md invariant #4: `startingIndex == 1 +
// highestContiguouslyAcked`). Out-of-order acks are held in a pending
// set until the gap closes. This is the variant PersistencyLayer.PopIndex
// needs: popping index N is only safe once every index below N is also
// acked, or an earlier unacknowledged write would be lost.
type LowestAckTracker struct {
	mu      sync.Mutex
	start   int64
	pending map[int64]struct{}
}

// NewLowestAckTracker starts tracking from startingIndex (normally
// PersistencyLayer.StartingIndex() at construction time).
func NewLowestAckTracker(startingIndex int64) *LowestAckTracker {
	return &LowestAckTracker{start: startingIndex, pending: make(map[int64]struct{})}
}

func (t *LowestAckTracker) Ack(index int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < t.start {
		return
	}
	if index != t.start {
		t.pending[index] = struct{}{}
		return
	}
	t.start++
	for {
		if _, ok := t.pending[t.start]; !ok {
			break
		}
		delete(t.pending, t.start)
		t.start++
	}
}

func (t *LowestAckTracker) StartingIndex() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.start
}

// HighestAckTracker tracks only the highest index acked so far,
// tolerating gaps. It exists for callers that only need a high-water
// mark for metrics or diagnostics (spec.md component table, C13) and
// not a safe-to-pop boundary — StartingIndex here is optimistic and must
// not be used to drive PersistencyLayer.PopIndex.
type HighestAckTracker struct {
	mu      sync.Mutex
	highest int64
	seen    bool
}

// NewHighestAckTracker returns a tracker with no acks recorded yet.
func NewHighestAckTracker() *HighestAckTracker {
	return &HighestAckTracker{}
}

func (t *HighestAckTracker) Ack(index int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.seen || index > t.highest {
		t.highest = index
		t.seen = true
	}
}

// StartingIndex returns highest+1, i.e. the tracker's optimistic view of
// how far the log could be popped if every index below it turns out
// also to have been acked.
func (t *HighestAckTracker) StartingIndex() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.seen {
		return 0
	}
	return t.highest + 1
}
