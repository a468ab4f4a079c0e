package persistency

// Mode selects how BackgroundFlusher drives a Layer.
type Mode int

const (
	// Serial completes writes strictly in push order; no AckTracker is
	// needed since Pop always removes the head.
	Serial Mode = iota
	// LockFree allows out-of-order completion; PopIndex is driven by an
	// AckTracker.
	LockFree
)

// Backing selects the storage medium.
type Backing int

const (
	InMemory Backing = iota
	OnDisk
)

// BuildFlusherPersistency is the Go counterpart of the C++
// PersistencyLayerBuilder::makeFlusherPersistency, resolving spec.md §9's
// flagged open question: the original falls off the end of its control
// flow, returning nothing, in the lock-free+on-disk branch. Every branch
// here returns a complete (Layer, AckTracker) pair: LockFree gets a
// LowestAckTracker seeded at the layer's StartingIndex for either backing,
// and Serial gets a nil tracker since Pop always removes the head.
func BuildFlusherPersistency(mode Mode, backing Backing, diskDir string) (Layer, AckTracker, error) {
	var layer Layer
	switch backing {
	case InMemory:
		layer = NewMemory()
	case OnDisk:
		b, err := OpenBadger(diskDir)
		if err != nil {
			return nil, nil, err
		}
		layer = b
	}

	var tracker AckTracker
	if mode == LockFree {
		tracker = NewLowestAckTracker(layer.StartingIndex())
	}
	return layer, tracker, nil
}
