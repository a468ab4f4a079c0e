package persistency

import (
	"encoding/binary"

	"github.com/dgraph-io/badger/v3"
)

// Badger is the on-disk PersistencyLayer of spec.md §6.2: keys are
// lexicographically ordered so badger's own LSM iterator naturally
// walks the log in index order, which matters for its internal
// compaction but not for Retrieve (a direct Get).
//
// Every mutation — record, pop, popIndex — writes its data key and the
// START-INDEX/END-INDEX scalar together inside one badger transaction,
// satisfying spec.md §6.2's atomicity requirement.
type Badger struct {
	db *badger.DB
}

var (
	startIndexKey = []byte("START-INDEX")
	endIndexKey   = []byte("END-INDEX")
)

// OpenBadger opens (or creates) a badger-backed log at dir.
func OpenBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	b := &Badger{db: db}
	if err := b.ensureScalars(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func (b *Badger) ensureScalars() error {
	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(startIndexKey); err == badger.ErrKeyNotFound {
			if err := txn.Set(startIndexKey, encodeInt64(0)); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		if _, err := txn.Get(endIndexKey); err == badger.ErrKeyNotFound {
			if err := txn.Set(endIndexKey, encodeInt64(0)); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		return nil
	})
}

func dataKey(index int64) []byte {
	key := make([]byte, 0, 10)
	key = append(key, 'I')
	key = append(key, encodeInt64(index)...)
	key = append(key, '\n')
	return key
}

func encodeInt64(v int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(v))
	return buf
}

func decodeInt64(buf []byte) int64 {
	return int64(binary.BigEndian.Uint64(buf))
}

// encodeVec serializes a []string as spec.md §6.2 describes: each
// element prefixed by its 8-byte length, followed by its raw bytes.
func encodeVec(items []string) []byte {
	size := 0
	for _, s := range items {
		size += 8 + len(s)
	}
	buf := make([]byte, 0, size)
	lenBuf := make([]byte, 8)
	for _, s := range items {
		binary.LittleEndian.PutUint64(lenBuf, uint64(len(s)))
		buf = append(buf, lenBuf...)
		buf = append(buf, s...)
	}
	return buf
}

func decodeVec(buf []byte) ([]string, error) {
	var items []string
	for len(buf) > 0 {
		if len(buf) < 8 {
			return nil, &CorruptionError{Detail: "truncated element length"}
		}
		n := binary.LittleEndian.Uint64(buf[:8])
		buf = buf[8:]
		if uint64(len(buf)) < n {
			return nil, &CorruptionError{Detail: "truncated element body"}
		}
		items = append(items, string(buf[:n]))
		buf = buf[n:]
	}
	return items, nil
}

func (b *Badger) readScalar(key []byte) (int64, error) {
	var v int64
	err := b.db.View(func(txn *badger.Txn) error {
		it, err := txn.Get(key)
		if err != nil {
			return err
		}
		return it.Value(func(val []byte) error {
			if len(val) != 8 {
				return &CorruptionError{Detail: "scalar key has wrong width"}
			}
			v = decodeInt64(val)
			return nil
		})
	})
	return v, err
}

func (b *Badger) StartingIndex() int64 {
	v, err := b.readScalar(startIndexKey)
	if err != nil {
		panic(&CorruptionError{Detail: "START-INDEX unreadable: " + err.Error()})
	}
	return v
}

func (b *Badger) EndingIndex() int64 {
	v, err := b.readScalar(endIndexKey)
	if err != nil {
		panic(&CorruptionError{Detail: "END-INDEX unreadable: " + err.Error()})
	}
	return v
}

func (b *Badger) RecordAt(index int64, item []string) error {
	end := b.EndingIndex()
	if index != end {
		panic(&CorruptionError{Detail: "record index != endIndex"})
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(dataKey(index), encodeVec(item)); err != nil {
			return err
		}
		return txn.Set(endIndexKey, encodeInt64(index+1))
	})
}

func (b *Badger) Record(item []string) (int64, error) {
	index := b.EndingIndex()
	if err := b.RecordAt(index, item); err != nil {
		return 0, err
	}
	return index, nil
}

func (b *Badger) Pop() error {
	start := b.StartingIndex()
	end := b.EndingIndex()
	if start >= end {
		return nil
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(dataKey(start)); err != nil {
			return err
		}
		return txn.Set(startIndexKey, encodeInt64(start+1))
	})
}

// PopIndex advances StartingIndex to index+1, deleting every data key
// from the old starting index through index. This is only safe to call
// with an index the AckTracker has confirmed is part of the
// contiguously-acked prefix (the AckTracker's job, not this type's).
func (b *Badger) PopIndex(index int64) error {
	start := b.StartingIndex()
	if index < start {
		return nil
	}
	return b.db.Update(func(txn *badger.Txn) error {
		for i := start; i <= index; i++ {
			if err := txn.Delete(dataKey(i)); err != nil {
				return err
			}
		}
		return txn.Set(startIndexKey, encodeInt64(index+1))
	})
}

func (b *Badger) Retrieve(index int64) ([]string, bool, error) {
	start, end := b.StartingIndex(), b.EndingIndex()
	if index < start || index >= end {
		return nil, false, nil
	}
	var items []string
	err := b.db.View(func(txn *badger.Txn) error {
		it, err := txn.Get(dataKey(index))
		if err != nil {
			return err
		}
		return it.Value(func(val []byte) error {
			decoded, err := decodeVec(val)
			if err != nil {
				return err
			}
			items = decoded
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return items, true, nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}
