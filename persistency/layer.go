// Package persistency implements PersistencyLayer (spec.md §4.11, §6.2):
// an append-only log of staged commands that survives process restart,
// so BackgroundFlusher can replay unacknowledged writes.
package persistency

import "fmt"

// Layer is the PersistencyLayer interface of spec.md §4.11. Two record
// overloads exist because the serial flusher picks its own index
// (always the current end) while the lock-free flusher needs the
// assigned index back to hand to its AckTracker.
type Layer interface {
	// RecordAt appends item at index, which must equal EndingIndex();
	// violating this is a fatal corruption per spec.md §4.11 and
	// implementations panic rather than return an error.
	RecordAt(index int64, item []string) error
	// Record appends item at the current end index and returns it.
	Record(item []string) (int64, error)

	// Pop advances the starting index past the oldest entry.
	Pop() error
	// PopIndex advances the starting index to index+1; used by the
	// lock-free flusher once its AckTracker reports a new contiguous
	// high-water mark, not necessarily index-by-index.
	PopIndex(index int64) error

	StartingIndex() int64
	EndingIndex() int64

	// Retrieve returns the item recorded at index, or ok=false if index
	// is outside [StartingIndex(), EndingIndex()).
	Retrieve(index int64) (item []string, ok bool, err error)

	Close() error
}

// CorruptionError is raised when the on-disk log's own invariants are
// violated (parse failure, index out of range). spec.md §4.11 calls for
// process termination; callers of persistency should treat this as
// fatal rather than attempt to continue.
type CorruptionError struct {
	Detail string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("persistency: corruption detected: %s", e.Detail)
}
