package netio

import (
	"context"
	"net"
	"time"

	"github.com/theanalyst/qclient-go/internal/endpoint"
)

// Dialer abstracts connection establishment so tests can substitute an
// in-memory pipe for a real socket. It corresponds to AsyncConnector in
// spec.md §4.2, generalized: Go's net.Dialer already performs the
// non-blocking connect/cancelable-wait dance internally (DialContext
// selects on the context being canceled the same way the original selects
// on a POLLIN from its cancel fd), so there is no separate "release the
// fd" step to model.
type Dialer func(ctx context.Context, se endpoint.ServiceEndpoint) (net.Conn, error)

// DefaultDialer dials a ServiceEndpoint with the given connect timeout.
func DefaultDialer(connectTimeout time.Duration) Dialer {
	d := &net.Dialer{Timeout: connectTimeout}
	return func(ctx context.Context, se endpoint.ServiceEndpoint) (net.Conn, error) {
		dialCtx := ctx
		if connectTimeout > 0 {
			var cancel context.CancelFunc
			dialCtx, cancel = context.WithTimeout(ctx, connectTimeout)
			defer cancel()
		}
		return d.DialContext(dialCtx, se.Network, se.Address)
	}
}
