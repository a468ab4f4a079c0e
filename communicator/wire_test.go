package communicator

import (
	"testing"

	"github.com/google/uuid"
)

func TestRequestRoundTrip(t *testing.T) {
	id := uuid.New()
	buf := encodeRequest(id, []byte("hello"))
	gotID, contents, ok := decodeRequest(buf)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if gotID != id || string(contents) != "hello" {
		t.Fatalf("got %v %q", gotID, contents)
	}
}

func TestReplyRoundTrip(t *testing.T) {
	id := uuid.New()
	buf := encodeReply(id, 7, []byte("world"))
	gotID, status, contents, ok := decodeReply(buf)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if gotID != id || status != 7 || string(contents) != "world" {
		t.Fatalf("got %v %d %q", gotID, status, contents)
	}
}

func TestDecodeRequestRejectsTruncatedPayload(t *testing.T) {
	id := uuid.New()
	buf := encodeRequest(id, []byte("hello"))
	if _, _, ok := decodeRequest(buf[:len(buf)-3]); ok {
		t.Fatal("expected decode to fail on truncated payload")
	}
}

func TestDecodeRejectsWrongTag(t *testing.T) {
	id := uuid.New()
	buf := encodeReply(id, 0, nil)
	if _, _, ok := decodeRequest(buf); ok {
		t.Fatal("expected a RESP payload to be rejected as a REQ")
	}
}
