package flusher

import (
	"sync"

	"github.com/theanalyst/qclient-go/internal/resp"
	"github.com/theanalyst/qclient-go/persistency"
)

// serialHandler is the in-order FlusherQueueHandler of spec.md §4.12:
// pushRequest records at the current end index and pops the log head
// once the matching callback fires. Ordering is strict because only one
// request's pop is ever pending at a time in practice (the caller's
// PipelineController bounds how far ahead of acknowledgement pushes can
// run, but completion order still always matches push order since the
// server itself replies in request order).
type serialHandler struct {
	mu       sync.Mutex
	layer    persistency.Layer
	client   ClientExecutor
	notifier Notifier
	onAck    func()
}

func newSerialHandler(layer persistency.Layer, client ClientExecutor, notifier Notifier, onAck func()) *serialHandler {
	return &serialHandler{layer: layer, client: client, notifier: notifier, onAck: onAck}
}

func (h *serialHandler) Submit(op []string) error {
	h.mu.Lock()
	index := h.layer.EndingIndex()
	if err := h.layer.RecordAt(index, op); err != nil {
		h.mu.Unlock()
		return err
	}
	h.mu.Unlock()
	h.dispatch(op)
	return nil
}

func (h *serialHandler) ReplayAt(index int64, op []string) error {
	h.dispatch(op)
	return nil
}

func (h *serialHandler) dispatch(op []string) {
	h.client.Execute(resp.Encode(op...), func(reply *resp.Reply) {
		if applyReplyPolicy(reply, h.notifier) {
			h.layer.Pop()
			if h.onAck != nil {
				h.onAck()
			}
		}
	})
}
