package handshake

import "github.com/theanalyst/qclient-go/internal/resp"

// NewAuth builds a one-round AUTH handshake: send "AUTH <password>",
// expect status "OK" (spec.md §4.7).
func NewAuth(password string) *Handshake {
	return &Handshake{
		ProvideHandshake: func() []string {
			return []string{"AUTH", password}
		},
		ValidateResponse: func(reply *resp.Reply) Result {
			if reply.Kind == resp.KindStatus && string(reply.Str) == "OK" {
				return ValidComplete
			}
			return Invalid
		},
		Restart: func() {},
	}
}
