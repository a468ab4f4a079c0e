package shared

import (
	"testing"

	"github.com/theanalyst/qclient-go/internal/resp"
)

func TestTransientSharedHashSetBroadcastsBatch(t *testing.T) {
	client := newFakeClient()
	mgr := newTestManager(client)
	h := mgr.GetTransientSharedHash("chan")

	h.Set("field", "value")
	if client.count() != 1 {
		t.Fatalf("expected one PUBLISH, got %d", client.count())
	}
}

func TestTransientSharedHashAppliesIncomingBatch(t *testing.T) {
	client := newFakeClient()
	mgr := newTestManager(client)
	h := mgr.GetTransientSharedHash("chan")

	client.push(resp.NewArray(
		resp.NewBulkString([]byte("message")),
		resp.NewBulkString([]byte("chan")),
		resp.NewBulkString(EncodeBatch(map[string]string{"a": "1"})),
	))

	if v, ok := h.Get("a"); !ok || v != "1" {
		t.Fatalf("got %q ok=%v", v, ok)
	}
}

func TestTransientSharedHashIgnoresOtherChannels(t *testing.T) {
	client := newFakeClient()
	mgr := newTestManager(client)
	h := mgr.GetTransientSharedHash("chan")

	client.push(resp.NewArray(
		resp.NewBulkString([]byte("message")),
		resp.NewBulkString([]byte("other-chan")),
		resp.NewBulkString(EncodeBatch(map[string]string{"a": "1"})),
	))

	if _, ok := h.Get("a"); ok {
		t.Fatal("expected the batch from another channel to be ignored")
	}
}
