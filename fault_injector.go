package qclient

// FaultInjector lets tests force deterministic connection failures
// without a real flaky socket, consulted by the supervisor loop at the
// two points spec.md's AsyncConnector/Handshake boundary can fail:
// before dialing, and before a handshake reply is accepted.
type FaultInjector interface {
	// BlockNextConnection reports whether the upcoming dial attempt
	// should be made to fail, consumed once per call (so a test can
	// queue up "fail the next N attempts" by returning true N times).
	BlockNextConnection() bool

	// CorruptNextHandshake reports whether the upcoming handshake reply
	// should be replaced with a synthetic error reply before it reaches
	// ConnectionCore - used to simulate a server rejecting auth/HMAC.
	CorruptNextHandshake() bool
}

// NoFaults never injects anything; it's the default when Options.FaultInjector
// is nil.
type NoFaults struct{}

func (NoFaults) BlockNextConnection() bool  { return false }
func (NoFaults) CorruptNextHandshake() bool { return false }
