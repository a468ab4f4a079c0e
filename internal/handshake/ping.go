package handshake

import "github.com/theanalyst/qclient-go/internal/resp"

// NewPing builds a PING handshake: send "PING <text>", expect the same
// text back as a bulk string or status (spec.md §4.7). Used alone to
// "prime" a connection (Options.EnsureConnectionIsPrimed) when no other
// handshake is configured.
func NewPing(text string) *Handshake {
	if text == "" {
		text = "qclient-ping"
	}
	return &Handshake{
		ProvideHandshake: func() []string {
			return []string{"PING", text}
		},
		ValidateResponse: func(reply *resp.Reply) Result {
			var got string
			switch reply.Kind {
			case resp.KindString, resp.KindStatus:
				got = string(reply.Str)
			default:
				return Invalid
			}
			if got == text {
				return ValidComplete
			}
			return Invalid
		},
		Restart: func() {},
	}
}
