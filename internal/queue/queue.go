// Package queue implements the sentinel-front RequestQueue of spec.md
// §4.6: a multi-producer, single-consumer append-only queue that always
// holds one extra dummy element at the head so the writer goroutine can
// safely read the front StagedRequest while the reader goroutine
// logically pops it.
//
// A reference-counted "consumer holds a strong ref while Send() runs"
// design (spec.md §9's suggested alternative) would work as well in Go,
// but it trades the sentinel's O(1) invariant for an atomic refcount on
// every element; the sentinel is kept here, as spec.md allows, and
// documented per its own rationale: the writer goroutine may still be
// inside Stream.Send referencing the front item when the reader consumes
// a reply and pops it.
package queue

import (
	"sync"
)

// StagedRequest is an enqueued request awaiting send and/or
// acknowledgement. Resolve, when set, is invoked once the matching reply
// arrives.
type StagedRequest struct {
	Seq       int64
	Buf       []byte
	MultiSize int
	StagedAt  int64 // unix nanos, for diagnostics

	Resolve func(reply interface{}) // set by connection.Core
}

type node struct {
	items []*StagedRequest
	next  *node
}

const blockSize = 128

// Queue is the sentinel-front RequestQueue.
type Queue struct {
	pushMu sync.Mutex
	popMu  sync.Mutex

	headNode *node // consumed from the front, under popMu
	headIdx  int
	tailNode *node // appended to, under pushMu
	tailIdx  int

	nextSeq int64

	cond *sync.Cond
	cmu  sync.Mutex
	blockingMode bool

	size int64 // guarded by sizeMu; read via Len()
	sizeMu sync.Mutex
}

// New returns a queue primed with a single sentinel element, matching
// spec.md §4.6: the external Begin() iterator starts at position 1,
// skipping the sentinel.
func New() *Queue {
	n := &node{items: make([]*StagedRequest, 0, blockSize)}
	q := &Queue{headNode: n, tailNode: n, blockingMode: true}
	q.cond = sync.NewCond(&q.cmu)
	q.pushLocked(&StagedRequest{Seq: 0}) // sentinel
	return q
}

func (q *Queue) pushLocked(item *StagedRequest) {
	if len(q.tailNode.items) == cap(q.tailNode.items) {
		n := &node{items: make([]*StagedRequest, 0, blockSize)}
		q.tailNode.next = n
		q.tailNode = n
	}
	q.tailNode.items = append(q.tailNode.items, item)
	q.sizeMu.Lock()
	q.size++
	q.sizeMu.Unlock()
}

// EmplaceBack appends a new StagedRequest, assigning it the next
// monotonically increasing sequence number, and wakes any goroutine
// blocked in BlockUntilItemHasArrived.
func (q *Queue) EmplaceBack(item *StagedRequest) int64 {
	q.pushMu.Lock()
	q.nextSeq++
	item.Seq = q.nextSeq
	q.pushLocked(item)
	q.pushMu.Unlock()

	q.cmu.Lock()
	q.cond.Broadcast()
	q.cmu.Unlock()

	return item.Seq
}

// PopFront removes the sentinel/head element. The caller must ensure the
// writer goroutine is no longer referencing it (the sentinel invariant
// guarantees this: the writer only ever reads Begin()+N, never position
// 0). It never removes the last remaining element, so Len() stays >= 1.
func (q *Queue) PopFront() {
	q.popMu.Lock()
	defer q.popMu.Unlock()

	if q.headIdx >= len(q.headNode.items) {
		return
	}
	q.sizeMu.Lock()
	if q.size <= 1 {
		q.sizeMu.Unlock()
		return
	}
	q.size--
	q.sizeMu.Unlock()
	q.headNode.items[q.headIdx] = nil
	q.headIdx++

	if q.headIdx >= len(q.headNode.items) && q.headNode.next != nil {
		q.headNode = q.headNode.next
		q.headIdx = 0
	}
}

// Front returns the oldest StagedRequest after the sentinel (the next one
// awaiting acknowledgement), or nil if only the sentinel remains.
func (q *Queue) Front() *StagedRequest {
	q.popMu.Lock()
	defer q.popMu.Unlock()
	n, idx := q.headNode, q.headIdx+1
	for n != nil {
		if idx < len(n.items) {
			return n.items[idx]
		}
		n = n.next
		idx = 0
	}
	return nil
}

// Len reports the current element count, including the sentinel; it is
// always >= 1 (spec.md invariant #2 of §8).
func (q *Queue) Len() int64 {
	q.sizeMu.Lock()
	defer q.sizeMu.Unlock()
	return q.size
}

// HighestSeq returns the sequence number of the most recently appended
// item (0 if only the sentinel exists).
func (q *Queue) HighestSeq() int64 {
	q.pushMu.Lock()
	defer q.pushMu.Unlock()
	return q.nextSeq
}

// SetBlockingMode toggles whether BlockUntilItemHasArrived blocks; turning
// it off (on shutdown) wakes every blocked waiter immediately.
func (q *Queue) SetBlockingMode(enabled bool) {
	q.cmu.Lock()
	q.blockingMode = enabled
	q.cond.Broadcast()
	q.cmu.Unlock()
}

// Iterator walks the queue starting one position after the sentinel.
type Iterator struct {
	q    *Queue
	n    *node
	idx  int
	seq  int64
}

// Begin returns an iterator positioned at sequence 1 (the first
// non-sentinel element), per spec.md §4.6.
func (q *Queue) Begin() *Iterator {
	q.popMu.Lock()
	defer q.popMu.Unlock()
	return &Iterator{q: q, n: q.headNode, idx: q.headIdx + 1, seq: 1}
}

// Seq returns the sequence number this iterator currently points at.
func (it *Iterator) Seq() int64 { return it.seq }

// ItemHasArrived reports whether the item at it.Seq() has been appended
// yet (checked against the queue's highest appended sequence).
func (it *Iterator) ItemHasArrived() bool {
	return it.seq <= it.q.HighestSeq()
}

// Item returns the StagedRequest this iterator points at, or nil if it
// has not arrived yet or the iterator has been exhausted.
func (it *Iterator) Item() *StagedRequest {
	if !it.ItemHasArrived() {
		return nil
	}
	it.q.pushMu.Lock()
	defer it.q.pushMu.Unlock()
	n, idx := it.n, it.idx
	for n != nil {
		if idx < len(n.items) {
			if item := n.items[idx]; item != nil {
				return item
			}
			return nil
		}
		n = n.next
		idx = 0
	}
	return nil
}

// Next advances the iterator by one position.
func (it *Iterator) Next() {
	it.q.pushMu.Lock()
	defer it.q.pushMu.Unlock()
	it.idx++
	it.seq++
	for it.n != nil && it.idx >= len(it.n.items) && it.n.next != nil {
		it.idx -= len(it.n.items)
		it.n = it.n.next
	}
}

// BlockUntilItemHasArrived waits until it.ItemHasArrived() or blocking
// mode has been disabled. Returns false in the latter case.
func (it *Iterator) BlockUntilItemHasArrived() bool {
	it.q.cmu.Lock()
	defer it.q.cmu.Unlock()
	for !it.ItemHasArrived() {
		if !it.q.blockingMode {
			return false
		}
		it.q.cond.Wait()
	}
	return true
}
