package endpoint

import (
	"context"
	"fmt"
	"net"
)

// Resolver turns a configured Endpoint into zero or more dialable
// ServiceEndpoints. DNS resolution is treated as an external collaborator
// per the spec: the core only consumes this interface.
type Resolver interface {
	Resolve(ctx context.Context, e Endpoint) ([]ServiceEndpoint, error)
}

// SystemResolver resolves via the standard library's resolver. An
// interception table (as used by tests and by FaultInjector-driven
// scenarios) can override individual hosts without touching DNS.
type SystemResolver struct {
	resolver *net.Resolver

	// Intercept, when non-nil, is consulted before DNS; it lets tests and
	// deployment tooling pin a hostname to fixed addresses.
	Intercept map[string][]string
}

// NewSystemResolver returns a Resolver backed by net.DefaultResolver.
func NewSystemResolver() *SystemResolver {
	return &SystemResolver{resolver: net.DefaultResolver}
}

func (r *SystemResolver) Resolve(ctx context.Context, e Endpoint) ([]ServiceEndpoint, error) {
	if e.Empty() {
		return nil, fmt.Errorf("endpoint: cannot resolve empty endpoint")
	}

	addrs := r.Intercept[e.Host]
	if addrs == nil {
		ipAddrs, err := r.resolver.LookupIPAddr(ctx, e.Host)
		if err != nil {
			return nil, fmt.Errorf("endpoint: resolving %q: %w", e.Host, err)
		}
		for _, ip := range ipAddrs {
			addrs = append(addrs, ip.IP.String())
		}
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("endpoint: no addresses for %q", e.Host)
	}

	out := make([]ServiceEndpoint, 0, len(addrs))
	for _, addr := range addrs {
		network := "tcp4"
		ip := net.ParseIP(addr)
		if ip != nil && ip.To4() == nil {
			network = "tcp6"
		}
		out = append(out, ServiceEndpoint{
			Network:  network,
			Address:  net.JoinHostPort(addr, fmt.Sprintf("%d", e.Port)),
			Hostname: e.Host,
		})
	}
	return out, nil
}
