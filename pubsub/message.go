// Package pubsub implements the subscriber layer of spec.md §4.13:
// BaseSubscriber re-subscribes on reconnect, Subscriber/Subscription
// fan incoming messages out to per-subscription inboxes or callbacks.
package pubsub

import "github.com/theanalyst/qclient-go/internal/resp"

// Kind identifies the shape of a Message, spec.md §3's pub/sub frame
// kinds.
type Kind int

const (
	KindSubscribe Kind = iota
	KindUnsubscribe
	KindPSubscribe
	KindPUnsubscribe
	KindMessage
	KindPMessage
)

func (k Kind) String() string {
	switch k {
	case KindSubscribe:
		return "subscribe"
	case KindUnsubscribe:
		return "unsubscribe"
	case KindPSubscribe:
		return "psubscribe"
	case KindPUnsubscribe:
		return "punsubscribe"
	case KindMessage:
		return "message"
	case KindPMessage:
		return "pmessage"
	default:
		return "unknown"
	}
}

// Message is a received pub/sub frame (spec.md §3): kind, channel,
// optional pattern (pmessage only) and payload (message/pmessage only),
// optional active-subscription count (subscribe/unsubscribe replies).
type Message struct {
	Kind                Kind
	Channel             string
	Pattern             string
	Payload             []byte
	ActiveSubscriptions int
	HasCount            bool
}

var kindByWord = map[string]Kind{
	"subscribe":    KindSubscribe,
	"unsubscribe":  KindUnsubscribe,
	"psubscribe":   KindPSubscribe,
	"punsubscribe": KindPUnsubscribe,
	"message":      KindMessage,
	"pmessage":     KindPMessage,
}

// ParseMessage decodes a push-type array reply into a Message, per the
// standard Redis pub/sub array shapes:
//
//	["subscribe"|"unsubscribe"|"psubscribe"|"punsubscribe", name, count]
//	["message", channel, payload]
//	["pmessage", pattern, channel, payload]
func ParseMessage(reply *resp.Reply) (*Message, bool) {
	if reply == nil || (reply.Kind != resp.KindArray && reply.Kind != resp.KindPush) || len(reply.Array) < 3 {
		return nil, false
	}
	word := string(reply.Array[0].Str)
	kind, ok := kindByWord[word]
	if !ok {
		return nil, false
	}

	switch kind {
	case KindMessage:
		return &Message{Kind: kind, Channel: string(reply.Array[1].Str), Payload: reply.Array[2].Str}, true
	case KindPMessage:
		if len(reply.Array) < 4 {
			return nil, false
		}
		return &Message{
			Kind:    kind,
			Pattern: string(reply.Array[1].Str),
			Channel: string(reply.Array[2].Str),
			Payload: reply.Array[3].Str,
		}, true
	default: // subscribe/unsubscribe/psubscribe/punsubscribe acks
		name := string(reply.Array[1].Str)
		count := reply.Array[2].Integer
		msg := &Message{Kind: kind, ActiveSubscriptions: int(count), HasCount: true}
		if kind == KindPSubscribe || kind == KindPUnsubscribe {
			msg.Pattern = name
		} else {
			msg.Channel = name
		}
		return msg, true
	}
}
