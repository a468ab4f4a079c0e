package persistency

import "sync"

// Memory is an in-process PersistencyLayer backed by a plain slice; it
// gives BackgroundFlusher bounded-memory semantics without surviving a
// restart, for deployments that accept losing in-flight writes on crash
// in exchange for not running an embedded store.
type Memory struct {
	mu    sync.Mutex
	items []([]string)
	start int64 // index of items[0]
}

// NewMemory returns an empty in-memory log starting at index 0.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) RecordAt(index int64, item []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	end := m.start + int64(len(m.items))
	if index != end {
		panic(&CorruptionError{Detail: "record index != endIndex"})
	}
	m.items = append(m.items, item)
	return nil
}

func (m *Memory) Record(item []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	index := m.start + int64(len(m.items))
	m.items = append(m.items, item)
	return index, nil
}

func (m *Memory) Pop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) == 0 {
		return nil
	}
	m.items = m.items[1:]
	m.start++
	return nil
}

func (m *Memory) PopIndex(index int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < m.start {
		return nil
	}
	drop := index - m.start + 1
	if drop > int64(len(m.items)) {
		drop = int64(len(m.items))
	}
	m.items = m.items[drop:]
	m.start += drop
	return nil
}

func (m *Memory) StartingIndex() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.start
}

func (m *Memory) EndingIndex() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.start + int64(len(m.items))
}

func (m *Memory) Retrieve(index int64) ([]string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < m.start || index >= m.start+int64(len(m.items)) {
		return nil, false, nil
	}
	return m.items[index-m.start], true, nil
}

func (m *Memory) Close() error { return nil }
