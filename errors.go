package qclient

import "errors"

// Sentinel errors used by the Client's supervisor loop. Reply-level errors (a RESP
// error frame from the server) are never turned into a Go error - they are
// delivered as a *resp.Reply of Kind Error, per the "server errors are
// successful replies" rule.
var (
	// ErrShutdown is the reason handed to ClearAllPending when the Client
	// is closed; pending requests receive a null reply, not this error.
	ErrShutdown = errors.New("qclient: client is shut down")

	// ErrNoEndpoints is returned when the EndpointDecider has exhausted
	// every configured member and none can be resolved/dialed.
	ErrNoEndpoints = errors.New("qclient: no reachable endpoints")

	// ErrRetriesExhausted is the reason handed to ClearAllPending when the
	// configured RetryStrategy gives up (NRetries exhausted, or
	// WithTimeout elapsed without a successful reply); pending requests
	// receive a null reply. Its text also prefixes the dial error that
	// the failed connection attempt returns.
	ErrRetriesExhausted = errors.New("qclient: retry strategy exhausted")

	// ErrHandshakeFailed names a handshake reply the server rejected. No
	// code path returns or logs it: a rejected handshake breaks the
	// connection, and pending requests are resent on the next one.
	ErrHandshakeFailed = errors.New("qclient: handshake rejected by server")
)
