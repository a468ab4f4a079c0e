package communicator

// Handler processes a request's contents and produces a status code
// plus reply contents.
type Handler func(contents []byte) (status int64, contents []byte)

// Listener is the CommunicatorListener of spec.md §4.14: it answers
// `REQ|id|contents` payloads by running Handler and publishing the
// `RESP|id|status|contents` reply back.
type Listener struct {
	publisher Publisher
	handler   Handler
}

// NewListener returns a Listener that answers requests with handler and
// publishes replies through publisher.
func NewListener(publisher Publisher, handler Handler) *Listener {
	return &Listener{publisher: publisher, handler: handler}
}

// OnRequest feeds an incoming `REQ|id|contents` payload to the handler
// and publishes the reply on replyChannel. Malformed payloads are
// silently ignored.
func (l *Listener) OnRequest(replyChannel string, payload []byte) {
	id, contents, ok := decodeRequest(payload)
	if !ok {
		return
	}
	status, result := l.handler(contents)
	l.publisher.Publish(replyChannel, encodeReply(id, status, result))
}
