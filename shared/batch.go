package shared

import (
	"encoding/binary"
)

// EncodeBatch serializes a field→value map per spec.md §6.4: a
// big-endian int64 count (2× the number of pairs), followed by
// length-prefixed (key, value) pairs.
func EncodeBatch(batch map[string]string) []byte {
	size := 8
	for k, v := range batch {
		size += 8 + len(k) + 8 + len(v)
	}
	buf := make([]byte, 0, size)
	buf = appendInt64(buf, int64(len(batch))*2)
	for k, v := range batch {
		buf = appendString(buf, k)
		buf = appendString(buf, v)
	}
	return buf
}

// DecodeBatch parses a payload built by EncodeBatch.
func DecodeBatch(payload []byte) (map[string]string, bool) {
	out := make(map[string]string)
	elements, rest, ok := readInt64(payload)
	if !ok || elements < 0 || elements%2 != 0 {
		return nil, false
	}
	var key string
	for i := int64(0); i < elements; i++ {
		var value string
		value, rest, ok = readString(rest)
		if !ok {
			return nil, false
		}
		if i%2 == 0 {
			key = value
		} else {
			out[key] = value
		}
	}
	return out, true
}

func appendInt64(buf []byte, n int64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(n))
	return append(buf, tmp[:]...)
}

func appendString(buf []byte, s string) []byte {
	buf = appendInt64(buf, int64(len(s)))
	return append(buf, s...)
}

func readInt64(buf []byte) (int64, []byte, bool) {
	if len(buf) < 8 {
		return 0, nil, false
	}
	return int64(binary.BigEndian.Uint64(buf[:8])), buf[8:], true
}

func readString(buf []byte) (string, []byte, bool) {
	length, rest, ok := readInt64(buf)
	if !ok || length < 0 || int64(len(rest)) < length {
		return "", nil, false
	}
	return string(rest[:length]), rest[length:], true
}
