package flusher

import (
	"github.com/theanalyst/qclient-go/internal/resp"
	"github.com/theanalyst/qclient-go/persistency"
)

// lockFreeHandler is the out-of-order FlusherQueueHandler of spec.md
// §4.12: pushRequest assigns its own index via Record, and the
// AckTracker translates "this index acked" into how far PopIndex may
// safely advance.
type lockFreeHandler struct {
	layer    persistency.Layer
	tracker  persistency.AckTracker
	client   ClientExecutor
	notifier Notifier
	onAck    func()
}

func newLockFreeHandler(layer persistency.Layer, tracker persistency.AckTracker, client ClientExecutor, notifier Notifier, onAck func()) *lockFreeHandler {
	return &lockFreeHandler{layer: layer, tracker: tracker, client: client, notifier: notifier, onAck: onAck}
}

func (h *lockFreeHandler) Submit(op []string) error {
	index, err := h.layer.Record(op)
	if err != nil {
		return err
	}
	h.dispatch(index, op)
	return nil
}

func (h *lockFreeHandler) ReplayAt(index int64, op []string) error {
	h.dispatch(index, op)
	return nil
}

func (h *lockFreeHandler) dispatch(index int64, op []string) {
	h.client.Execute(resp.Encode(op...), func(reply *resp.Reply) {
		if applyReplyPolicy(reply, h.notifier) {
			h.tracker.Ack(index)
			if newStart := h.tracker.StartingIndex(); newStart > 0 {
				h.layer.PopIndex(newStart - 1)
			}
			if h.onAck != nil {
				h.onAck()
			}
		}
	})
}
