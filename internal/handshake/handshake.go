// Package handshake implements the first-messages-on-connect protocol of
// spec.md §4.7: auth, HMAC challenge-response, ping, push-type
// activation, and chaining thereof.
package handshake

import "github.com/theanalyst/qclient-go/internal/resp"

// Result is the outcome of validating a handshake reply.
type Result int

const (
	Invalid Result = iota
	ValidIncomplete
	ValidComplete
)

// Handshake is one step (or chain of steps) in the connect-time protocol.
type Handshake struct {
	// ProvideHandshake produces the next outgoing request's command
	// tokens.
	ProvideHandshake func() []string

	// ValidateResponse inspects a reply and reports whether the
	// handshake step is complete.
	ValidateResponse func(reply *resp.Reply) Result

	// Restart resets any internal state (e.g. a fresh random challenge)
	// so the handshake can run again after a reconnection.
	Restart func()
}
