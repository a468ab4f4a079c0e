package persistency

import "testing"

func TestBadgerRecordPopRetrieveRoundTrip(t *testing.T) {
	b, err := OpenBadger(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()

	for _, v := range [][]string{{"SET", "x", "1"}, {"SET", "y", "2"}} {
		if _, err := b.Record(v); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if b.EndingIndex() != 2 {
		t.Fatalf("expected ending index 2, got %d", b.EndingIndex())
	}

	item, ok, err := b.Retrieve(1)
	if err != nil || !ok {
		t.Fatalf("retrieve: %v %v %v", item, ok, err)
	}
	if len(item) != 3 || item[0] != "SET" || item[2] != "2" {
		t.Fatalf("got %v", item)
	}

	if err := b.Pop(); err != nil {
		t.Fatalf("pop: %v", err)
	}
	if b.StartingIndex() != 1 {
		t.Fatalf("expected starting index 1, got %d", b.StartingIndex())
	}
	if _, ok, _ := b.Retrieve(0); ok {
		t.Fatal("expected popped index to be gone")
	}
}

func TestBadgerRecordAtWrongIndexPanics(t *testing.T) {
	b, err := OpenBadger(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out-of-order RecordAt")
		}
	}()
	b.RecordAt(9, []string{"x"})
}

func TestBadgerSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	b, err := OpenBadger(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	b.Record([]string{"a"})
	b.Record([]string{"b"})
	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b2, err := OpenBadger(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b2.Close()
	if b2.EndingIndex() != 2 {
		t.Fatalf("expected ending index 2 after reopen, got %d", b2.EndingIndex())
	}
	item, ok, err := b2.Retrieve(0)
	if err != nil || !ok || item[0] != "a" {
		t.Fatalf("got %v %v %v", item, ok, err)
	}
}
