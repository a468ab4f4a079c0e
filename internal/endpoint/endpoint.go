// Package endpoint resolves configured cluster members into dialable
// addresses and decides which one to try next, honoring MOVED redirects.
package endpoint

import "fmt"

// Endpoint is a configured cluster member, as given by the caller.
type Endpoint struct {
	Host string
	Port int
}

// Empty reports whether e carries no usable address.
func (e Endpoint) Empty() bool {
	return e.Host == "" || e.Port <= 0
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// Members is the configured, ordered list of cluster endpoints.
type Members []Endpoint

// ServiceEndpoint is a single resolved dial target. Family/SockType mirror
// the fields a getaddrinfo(3) result would carry; Go's net package hides
// most of this, but callers such as NetworkStream diagnostics still want
// the original hostname and resolved network to log.
type ServiceEndpoint struct {
	Network  string // "tcp4" or "tcp6"
	Address  string // resolved "ip:port", ready for net.Dial
	Hostname string // original hostname, for diagnostics
}

func (s ServiceEndpoint) String() string {
	if s.Hostname != "" && s.Hostname != s.Address {
		return fmt.Sprintf("%s (%s)", s.Address, s.Hostname)
	}
	return s.Address
}
