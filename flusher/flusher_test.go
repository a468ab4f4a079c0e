package flusher

import (
	"sync"
	"testing"

	"github.com/theanalyst/qclient-go/internal/resp"
	"github.com/theanalyst/qclient-go/persistency"
)

type fakeClient struct {
	mu       sync.Mutex
	sent     [][]byte
	handlers []func(*resp.Reply)
}

func (c *fakeClient) Execute(req *resp.EncodedRequest, callback func(*resp.Reply)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, req.Buf)
	c.handlers = append(c.handlers, callback)
}

func (c *fakeClient) replyTo(i int, reply *resp.Reply) {
	c.mu.Lock()
	h := c.handlers[i]
	c.mu.Unlock()
	h(reply)
}

type recordingNotifier struct {
	mu          sync.Mutex
	networkErrs int
	unexpected  int
}

func (n *recordingNotifier) NetworkIssue(error) {
	n.mu.Lock()
	n.networkErrs++
	n.mu.Unlock()
}

func (n *recordingNotifier) UnexpectedResponse(*resp.Reply) {
	n.mu.Lock()
	n.unexpected++
	n.mu.Unlock()
}

func TestSerialFlusherAcksInOrderAndPops(t *testing.T) {
	layer := persistency.NewMemory()
	client := &fakeClient{}
	notifier := &recordingNotifier{}
	bf := New(persistency.Serial, layer, nil, client, notifier, 10)

	if err := bf.PushRequest([]string{"SET", "a", "1"}); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := bf.PushRequest([]string{"SET", "b", "2"}); err != nil {
		t.Fatalf("push: %v", err)
	}
	if layer.EndingIndex() != 2 {
		t.Fatalf("expected ending index 2, got %d", layer.EndingIndex())
	}

	client.replyTo(0, resp.NewStatus("OK"))
	if layer.StartingIndex() != 1 {
		t.Fatalf("expected starting index 1 after first ack, got %d", layer.StartingIndex())
	}
	client.replyTo(1, resp.NewStatus("OK"))
	if layer.StartingIndex() != 2 {
		t.Fatalf("expected starting index 2 after second ack, got %d", layer.StartingIndex())
	}
}

func TestSerialFlusherNilReplyLeavesPersisted(t *testing.T) {
	layer := persistency.NewMemory()
	client := &fakeClient{}
	notifier := &recordingNotifier{}
	bf := New(persistency.Serial, layer, nil, client, notifier, 10)

	bf.PushRequest([]string{"SET", "a", "1"})
	client.replyTo(0, nil)

	if layer.StartingIndex() != 0 {
		t.Fatalf("expected entry to remain persisted after nil reply, got starting index %d", layer.StartingIndex())
	}
	if notifier.networkErrs != 1 {
		t.Fatalf("expected one network issue notification, got %d", notifier.networkErrs)
	}
}

func TestSerialFlusherRESPNilReplyLeavesPersisted(t *testing.T) {
	layer := persistency.NewMemory()
	client := &fakeClient{}
	notifier := &recordingNotifier{}
	bf := New(persistency.Serial, layer, nil, client, notifier, 10)

	bf.PushRequest([]string{"SET", "a", "1"})
	// ConnectionCore.ClearAllPending/Client.deliverDead resolve with a
	// real RESP nil reply, not a Go nil *resp.Reply - must be treated
	// the same as the network-issue case above.
	client.replyTo(0, resp.NewNil())

	if layer.StartingIndex() != 0 {
		t.Fatalf("expected entry to remain persisted after a RESP nil reply, got starting index %d", layer.StartingIndex())
	}
	if notifier.networkErrs != 1 {
		t.Fatalf("expected one network issue notification, got %d", notifier.networkErrs)
	}
}

func TestSerialFlusherUnexpectedErrorStillAcks(t *testing.T) {
	layer := persistency.NewMemory()
	client := &fakeClient{}
	notifier := &recordingNotifier{}
	bf := New(persistency.Serial, layer, nil, client, notifier, 10)

	bf.PushRequest([]string{"SET", "a", "1"})
	client.replyTo(0, resp.NewError("WRONGTYPE bad value"))

	if layer.StartingIndex() != 1 {
		t.Fatalf("expected permanent server error to still ack, got starting index %d", layer.StartingIndex())
	}
	if notifier.unexpected != 1 {
		t.Fatalf("expected one unexpected-response notification, got %d", notifier.unexpected)
	}
}

func TestSerialFlusherUnavailableErrorIsNetworkIssue(t *testing.T) {
	layer := persistency.NewMemory()
	client := &fakeClient{}
	notifier := &recordingNotifier{}
	bf := New(persistency.Serial, layer, nil, client, notifier, 10)

	bf.PushRequest([]string{"SET", "a", "1"})
	client.replyTo(0, resp.NewError("UNAVAILABLE shutting down"))

	if layer.StartingIndex() != 0 {
		t.Fatalf("expected unavailable error to leave entry persisted, got starting index %d", layer.StartingIndex())
	}
	if notifier.networkErrs != 1 {
		t.Fatalf("expected network issue notification, got %d", notifier.networkErrs)
	}
}

func TestLockFreeFlusherOutOfOrderAcks(t *testing.T) {
	layer := persistency.NewMemory()
	tracker := persistency.NewLowestAckTracker(0)
	client := &fakeClient{}
	notifier := &recordingNotifier{}
	bf := New(persistency.LockFree, layer, tracker, client, notifier, 10)

	for i := 0; i < 4; i++ {
		bf.PushRequest([]string{"SET", "k", "v"})
	}

	client.replyTo(1, resp.NewStatus("OK"))
	if layer.StartingIndex() != 0 {
		t.Fatalf("expected starting index 0, got %d", layer.StartingIndex())
	}
	client.replyTo(3, resp.NewStatus("OK"))
	if layer.StartingIndex() != 0 {
		t.Fatalf("expected starting index 0, got %d", layer.StartingIndex())
	}
	client.replyTo(0, resp.NewStatus("OK"))
	if layer.StartingIndex() != 2 {
		t.Fatalf("expected starting index 2, got %d", layer.StartingIndex())
	}
	client.replyTo(2, resp.NewStatus("OK"))
	if layer.StartingIndex() != 4 {
		t.Fatalf("expected starting index 4, got %d", layer.StartingIndex())
	}
}

func TestBackgroundFlusherReplaysUnacknowledgedOnStartup(t *testing.T) {
	layer := persistency.NewMemory()
	layer.Record([]string{"SET", "a", "1"})
	layer.Record([]string{"SET", "b", "2"})

	client := &fakeClient{}
	notifier := &recordingNotifier{}
	bf := New(persistency.Serial, layer, nil, client, notifier, 10)

	if err := bf.Replay(); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(client.sent) != 2 {
		t.Fatalf("expected 2 replayed requests, got %d", len(client.sent))
	}
	client.replyTo(0, resp.NewStatus("OK"))
	client.replyTo(1, resp.NewStatus("OK"))
	if layer.StartingIndex() != 2 {
		t.Fatalf("expected both replayed entries acked, got starting index %d", layer.StartingIndex())
	}
}
