package handshake

import "github.com/theanalyst/qclient-go/internal/resp"

// NewActivatePushTypes builds the server-specific handshake step that
// switches the connection into RESP3-like push framing for out-of-band
// pub/sub payloads (spec.md §4.7, §6.1).
func NewActivatePushTypes() *Handshake {
	return &Handshake{
		ProvideHandshake: func() []string {
			return []string{"HELLO", "3"}
		},
		ValidateResponse: func(reply *resp.Reply) Result {
			if reply.Kind == resp.KindArray || reply.Kind == resp.KindStatus {
				return ValidComplete
			}
			return Invalid
		},
		Restart: func() {},
	}
}
