// Package flusher's BackgroundFlusher is spec.md's C15: it enqueues
// user writes with bounded memory (via pipelineController), replays
// unacknowledged writes from persistency.Layer on startup, and
// publishes prometheus metrics on queue depth and acknowledgement rate.
package flusher

import (
	"github.com/theanalyst/qclient-go/persistency"
)

// BackgroundFlusher is the durable write path of spec.md §4.12.
type BackgroundFlusher struct {
	layer    persistency.Layer
	handler  QueueHandler
	pipeline *pipelineController
}

// New builds a BackgroundFlusher over layer, driving requests through
// client according to mode. tracker is required (non-nil) for
// persistency.LockFree and ignored for persistency.Serial.
// pipelineLength bounds how many requests may be outstanding
// (submitted, unacknowledged) at once.
func New(mode persistency.Mode, layer persistency.Layer, tracker persistency.AckTracker, client ClientExecutor, notifier Notifier, pipelineLength int) *BackgroundFlusher {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	notifier = instrumentedNotifier{inner: notifier}

	bf := &BackgroundFlusher{
		layer:    layer,
		pipeline: newPipelineController(pipelineLength),
	}

	onAck := func() {
		bf.pipeline.Release()
		inFlightGauge.Set(float64(bf.pipeline.InFlight()))
		ackedCounter.Inc()
	}

	switch mode {
	case persistency.LockFree:
		bf.handler = newLockFreeHandler(layer, tracker, client, notifier, onAck)
	default:
		bf.handler = newSerialHandler(layer, client, notifier, onAck)
	}
	return bf
}

// Replay resubmits every unacknowledged entry in [StartingIndex,
// EndingIndex) through the client, in index order, per spec.md §4.12's
// startup requirement. Call this once, before accepting new
// PushRequest calls, right after construction.
func (bf *BackgroundFlusher) Replay() error {
	start, end := bf.layer.StartingIndex(), bf.layer.EndingIndex()
	for i := start; i < end; i++ {
		item, ok, err := bf.layer.Retrieve(i)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		bf.pipeline.Acquire()
		inFlightGauge.Set(float64(bf.pipeline.InFlight()))
		if err := bf.handler.ReplayAt(i, item); err != nil {
			return err
		}
	}
	return nil
}

// PushRequest persists op and submits it to the client, blocking on the
// pipeline controller if too many requests are already outstanding.
func (bf *BackgroundFlusher) PushRequest(op []string) error {
	bf.pipeline.Acquire()
	inFlightGauge.Set(float64(bf.pipeline.InFlight()))
	return bf.handler.Submit(op)
}

// InFlight reports the current number of outstanding requests.
func (bf *BackgroundFlusher) InFlight() int {
	return bf.pipeline.InFlight()
}
