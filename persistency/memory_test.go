package persistency

import "testing"

func TestMemoryRecordAndRetrieve(t *testing.T) {
	m := NewMemory()
	for i, v := range [][]string{{"a"}, {"b"}, {"c"}} {
		idx, err := m.Record(v)
		if err != nil {
			t.Fatalf("record: %v", err)
		}
		if idx != int64(i) {
			t.Fatalf("expected index %d, got %d", i, idx)
		}
	}
	if m.EndingIndex() != 3 {
		t.Fatalf("expected ending index 3, got %d", m.EndingIndex())
	}
	item, ok, err := m.Retrieve(1)
	if err != nil || !ok || item[0] != "b" {
		t.Fatalf("got %v %v %v", item, ok, err)
	}
}

func TestMemoryRecordAtWrongIndexPanics(t *testing.T) {
	m := NewMemory()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out-of-order RecordAt")
		}
	}()
	m.RecordAt(5, []string{"x"})
}

func TestMemoryPopAdvancesStart(t *testing.T) {
	m := NewMemory()
	m.Record([]string{"a"})
	m.Record([]string{"b"})
	if err := m.Pop(); err != nil {
		t.Fatalf("pop: %v", err)
	}
	if m.StartingIndex() != 1 {
		t.Fatalf("expected starting index 1, got %d", m.StartingIndex())
	}
	if _, ok, _ := m.Retrieve(0); ok {
		t.Fatal("expected index 0 to be gone after pop")
	}
}

func TestMemoryPopIndexAdvancesPastRange(t *testing.T) {
	m := NewMemory()
	for _, v := range [][]string{{"a"}, {"b"}, {"c"}, {"d"}} {
		m.Record(v)
	}
	if err := m.PopIndex(2); err != nil {
		t.Fatalf("popIndex: %v", err)
	}
	if m.StartingIndex() != 3 {
		t.Fatalf("expected starting index 3, got %d", m.StartingIndex())
	}
}
