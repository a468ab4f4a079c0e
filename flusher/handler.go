// Package flusher implements BackgroundFlusher (spec.md §4.12): a
// durable write queue that survives restarts, bounds in-flight memory
// via a pipeline controller, and exposes prometheus metrics on its
// queue depth and acknowledgement rate.
package flusher

import (
	"strings"

	"github.com/theanalyst/qclient-go/internal/resp"
)

// ClientExecutor is the subset of qclient.Client the flusher drives
// commands through; kept as an interface here so this package doesn't
// import the top-level client package.
type ClientExecutor interface {
	Execute(req *resp.EncodedRequest, callback func(*resp.Reply))
}

// Notifier receives flusher-level events the caller should surface to
// an operator (spec.md §4.12's reply policy).
type Notifier interface {
	NetworkIssue(err error)
	UnexpectedResponse(reply *resp.Reply)
}

// NopNotifier discards every event.
type NopNotifier struct{}

func (NopNotifier) NetworkIssue(error)          {}
func (NopNotifier) UnexpectedResponse(*resp.Reply) {}

// QueueHandler is the FlusherQueueHandler of spec.md's component table
// (C14): it owns the bridge between pushRequest and the Client,
// persisting before submitting. Submit records a fresh op; ReplayAt
// resubmits an op that's already persisted (used on startup replay, so
// it must not record it a second time).
type QueueHandler interface {
	Submit(op []string) error
	ReplayAt(index int64, op []string) error
}

// applyReplyPolicy implements spec.md §4.12's reply policy inside the
// flusher callback. It returns true if the request should be
// acknowledged (persistence head popped / index acked).
func applyReplyPolicy(reply *resp.Reply, notifier Notifier) (ack bool) {
	if reply.IsNil() {
		notifier.NetworkIssue(errNilReply)
		return false
	}
	if reply.IsError() {
		if strings.HasPrefix(strings.ToLower(string(reply.Str)), "unavailable") {
			notifier.NetworkIssue(errUnavailable)
			return false
		}
		notifier.UnexpectedResponse(reply)
		return true
	}
	return true
}

var (
	errNilReply    = persistencyError("network issue: connection lost before a reply arrived")
	errUnavailable = persistencyError("network issue: server reported unavailable")
)

type persistencyError string

func (e persistencyError) Error() string { return string(e) }
