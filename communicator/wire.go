// Package communicator implements request/response messaging over two
// PUBLISH channels (spec.md §4.14, §6.3): Communicator issues a request
// and waits on a future; CommunicatorListener answers it and publishes
// the reply back.
package communicator

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// appendString writes an 8-byte big-endian length followed by s, the
// compact binary serializer of spec.md §6.3/§6.4.
func appendString(buf []byte, s []byte) []byte {
	lenBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(lenBuf, uint64(len(s)))
	buf = append(buf, lenBuf...)
	return append(buf, s...)
}

func appendInt64(buf []byte, v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return append(buf, b...)
}

func readString(buf []byte) (s, rest []byte, ok bool) {
	if len(buf) < 8 {
		return nil, nil, false
	}
	n := binary.BigEndian.Uint64(buf[:8])
	buf = buf[8:]
	if uint64(len(buf)) < n {
		return nil, nil, false
	}
	return buf[:n], buf[n:], true
}

func readInt64(buf []byte) (v int64, rest []byte, ok bool) {
	if len(buf) < 8 {
		return 0, nil, false
	}
	return int64(binary.BigEndian.Uint64(buf[:8])), buf[8:], true
}

// encodeRequest builds the `("REQ", uuid, contents)` triple of spec.md
// §6.3.
func encodeRequest(id uuid.UUID, contents []byte) []byte {
	buf := make([]byte, 0, 32+len(contents))
	buf = appendString(buf, []byte("REQ"))
	buf = appendString(buf, []byte(id.String()))
	buf = appendString(buf, contents)
	return buf
}

func decodeRequest(payload []byte) (id uuid.UUID, contents []byte, ok bool) {
	tag, rest, ok := readString(payload)
	if !ok || string(tag) != "REQ" {
		return uuid.UUID{}, nil, false
	}
	idBytes, rest, ok := readString(rest)
	if !ok {
		return uuid.UUID{}, nil, false
	}
	contents, _, ok = readString(rest)
	if !ok {
		return uuid.UUID{}, nil, false
	}
	parsed, err := uuid.Parse(string(idBytes))
	if err != nil {
		return uuid.UUID{}, nil, false
	}
	return parsed, contents, true
}

// encodeReply builds the `("RESP", uuid, status, contents)` quadruple
// of spec.md §6.3.
func encodeReply(id uuid.UUID, status int64, contents []byte) []byte {
	buf := make([]byte, 0, 40+len(contents))
	buf = appendString(buf, []byte("RESP"))
	buf = appendString(buf, []byte(id.String()))
	buf = appendInt64(buf, status)
	buf = appendString(buf, contents)
	return buf
}

func decodeReply(payload []byte) (id uuid.UUID, status int64, contents []byte, ok bool) {
	tag, rest, ok := readString(payload)
	if !ok || string(tag) != "RESP" {
		return uuid.UUID{}, 0, nil, false
	}
	idBytes, rest, ok := readString(rest)
	if !ok {
		return uuid.UUID{}, 0, nil, false
	}
	status, rest, ok := readInt64(rest)
	if !ok {
		return uuid.UUID{}, 0, nil, false
	}
	contents, _, ok = readString(rest)
	if !ok {
		return uuid.UUID{}, 0, nil, false
	}
	parsed, err := uuid.Parse(string(idBytes))
	if err != nil {
		return uuid.UUID{}, 0, nil, false
	}
	return parsed, status, contents, true
}

var errMalformed = fmt.Errorf("communicator: malformed wire payload")
