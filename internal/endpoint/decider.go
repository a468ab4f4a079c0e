package endpoint

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Decider produces the next endpoint to dial given the configured members,
// the last MOVED redirect (if any), and DNS resolution. It implements
// spec.md §4.1.
type Decider struct {
	mu sync.Mutex

	members    Members
	nextMember int

	resolver Resolver
	log      *log.Entry

	redirect   *Endpoint
	buffer     []ServiceEndpoint // refilled in reverse; pop from the back
	fullCircle bool
	attempted  map[string]bool
}

// NewDecider builds a Decider over the given members, resolving hostnames
// with resolver.
func NewDecider(members Members, resolver Resolver, logger *log.Entry) *Decider {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Decider{
		members:   members,
		resolver:  resolver,
		log:       logger,
		attempted: make(map[string]bool, len(members)),
	}
}

// RegisterRedirection overrides the next GetNextEndpoint call with target,
// once. Called by the reader loop when a MOVED reply is observed.
func (d *Decider) RegisterRedirection(target Endpoint) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.redirect = &target
	// Drop addresses left over from the previous member so the next
	// GetNextEndpoint resolves the redirect target right away.
	d.buffer = nil
}

// MadeFullCircle reports whether every configured endpoint has been
// attempted at least once since the last reset (used by Client's retry
// strategy to decide between "try another" and "wait/fail").
func (d *Decider) MadeFullCircle() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fullCircle
}

// ResetAttempts clears the full-circle tracking, e.g. after a successful
// connection.
func (d *Decider) ResetAttempts() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempted = make(map[string]bool, len(d.members))
	d.fullCircle = false
}

// GetNextEndpoint pops the next resolved endpoint, refilling the buffer by
// resolving the next configured (or redirected) member when it runs dry.
// Returns ok=false only when resolution failed for every configured member
// (a full circle with no success), matching spec.md §4.1.
func (d *Decider) GetNextEndpoint(ctx context.Context) (ServiceEndpoint, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n := len(d.buffer); n > 0 {
		se := d.buffer[n-1]
		d.buffer = d.buffer[:n-1]
		return se, true
	}

	if len(d.members) == 0 && d.redirect == nil {
		return ServiceEndpoint{}, false
	}

	for i := 0; i <= len(d.members); i++ {
		var target Endpoint
		if d.redirect != nil {
			target = *d.redirect
			d.redirect = nil
		} else {
			if len(d.members) == 0 {
				break
			}
			target = d.members[d.nextMember]
			d.nextMember = (d.nextMember + 1) % len(d.members)
		}

		d.attempted[target.String()] = true
		if len(d.attempted) >= len(d.members) && len(d.members) > 0 {
			d.fullCircle = true
		}

		resolved, err := d.resolver.Resolve(ctx, target)
		if err != nil {
			d.log.WithFields(log.Fields{"target": target.String(), "err": err}).
				Warn("endpoint: resolution failed, trying next member")
			continue
		}

		// Refill in reverse so the first resolved address pops first.
		d.buffer = make([]ServiceEndpoint, len(resolved))
		for j, se := range resolved {
			d.buffer[len(resolved)-1-j] = se
		}
		se := d.buffer[len(d.buffer)-1]
		d.buffer = d.buffer[:len(d.buffer)-1]
		return se, true
	}

	d.fullCircle = true
	return ServiceEndpoint{}, false
}
