package persistency

import "testing"

func TestBuildFlusherPersistencyLockFreeOnDiskReturnsTracker(t *testing.T) {
	layer, tracker, err := BuildFlusherPersistency(LockFree, OnDisk, t.TempDir())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer layer.Close()
	if tracker == nil {
		t.Fatal("expected a non-nil AckTracker for the lock-free+on-disk branch (spec.md §9 open question)")
	}
	if layer == nil {
		t.Fatal("expected a non-nil Layer")
	}
}

func TestBuildFlusherPersistencySerialHasNoTracker(t *testing.T) {
	layer, tracker, err := BuildFlusherPersistency(Serial, InMemory, "")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer layer.Close()
	if tracker != nil {
		t.Fatal("serial mode pops its head directly and needs no tracker")
	}
}
