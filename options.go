package qclient

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/theanalyst/qclient-go/internal/connection"
	"github.com/theanalyst/qclient-go/internal/endpoint"
	"github.com/theanalyst/qclient-go/internal/handshake"
	"github.com/theanalyst/qclient-go/internal/netio"
	"github.com/theanalyst/qclient-go/internal/resp"
)

// RetryMode selects how the supervisor loop reacts to a dead connection,
// per spec.md §4.10.
type RetryMode int

const (
	// NoRetries fails every pending request as soon as one connection
	// attempt fails.
	NoRetries RetryMode = iota
	// WithTimeout keeps reconnecting, giving up only once Param seconds
	// elapse without a successful reply since the last success.
	WithTimeout
	// NRetries bounds the number of reconnect attempts to Param.
	NRetries
	// Infinite never gives up.
	Infinite
)

// RetryStrategy is the (mode, parameter) pair spec.md §6.5 enumerates:
// {NoRetries, WithTimeout(seconds), NRetries(k), Infinite}.
type RetryStrategy struct {
	Mode  RetryMode
	Param int64
}

// BackpressureMode selects the gating strategy of spec.md §4.5.
type BackpressureMode int

const (
	// LimitSize gates in-flight requests at Param (default 262144).
	LimitSize BackpressureMode = iota
	// InfiniteBackpressure never gates.
	InfiniteBackpressure
)

// BackpressureStrategy is the (mode, parameter) pair spec.md §6.5
// enumerates for backpressure.
type BackpressureStrategy struct {
	Mode  BackpressureMode
	Param int64
}

// defaultBackpressureLimit is spec.md §6.5's default N for LimitSize.
const defaultBackpressureLimit = 262144

// Options configures a Client, per spec.md §6.5 plus this module's
// ambient additions (logger, message listener).
type Options struct {
	// Members is the configured, ordered list of cluster endpoints the
	// EndpointDecider round-robins through.
	Members endpoint.Members

	// TransparentRedirects intercepts MOVED error replies and follows
	// them rather than surfacing them to the caller.
	TransparentRedirects bool

	RetryStrategy        RetryStrategy
	BackpressureStrategy BackpressureStrategy

	// TLSConfig, if Active, wraps every connection in TLS.
	TLSConfig netio.TLSConfig

	// Handshake is a chainable Handshake to run on connect. When it is nil
	// and neither EnsureConnectionIsPrimed nor EnablePushTypes adds a step,
	// a bare Ping is run anyway, so every connection starts with a
	// handshake.
	Handshake *handshake.Handshake

	// EnsureConnectionIsPrimed attaches a Ping handshake at the tail if
	// Handshake is nil, so callers get a known-good connection before any
	// user request is sent.
	EnsureConnectionIsPrimed bool

	// TCPTimeout is the per-endpoint connect timeout (not per-request).
	// Zero means the spec.md §6.5 default of 2 seconds.
	TCPTimeout time.Duration

	// ExclusivePubsub routes every incoming frame to MessageListener
	// instead of matching it against ConnectionCore's pending queue -
	// used when a Client is dedicated to pub/sub traffic.
	ExclusivePubsub bool

	// EnablePushTypes switches the connection into RESP3-like push
	// framing (spec.md §6.1) once the handshake completes, so pub/sub
	// payloads arrive out-of-band from ordinary replies.
	EnablePushTypes bool

	// Resolver overrides DNS resolution; nil uses endpoint.NewSystemResolver().
	Resolver endpoint.Resolver

	// Dialer overrides connection establishment; nil uses
	// netio.DefaultDialer(TCPTimeout).
	Dialer netio.Dialer

	Logger          *log.Entry
	MessageListener func(*resp.Reply)

	// FaultInjector, when set, lets tests force reconnect/handshake
	// failures deterministically (SPEC_FULL.md item 1).
	FaultInjector FaultInjector
}

// withDefaults returns a copy of o with zero-valued fields replaced by
// spec.md §6.5's defaults.
func (o Options) withDefaults() Options {
	if o.TCPTimeout <= 0 {
		o.TCPTimeout = 2 * time.Second
	}
	if o.BackpressureStrategy.Mode == LimitSize && o.BackpressureStrategy.Param <= 0 {
		o.BackpressureStrategy.Param = defaultBackpressureLimit
	}
	if o.Logger == nil {
		o.Logger = log.NewEntry(log.StandardLogger())
	}
	if o.Resolver == nil {
		o.Resolver = endpoint.NewSystemResolver()
	}
	if o.Dialer == nil {
		o.Dialer = netio.DefaultDialer(o.TCPTimeout)
	}
	return o
}

func (o Options) buildBackpressure() connection.Backpressure {
	switch o.BackpressureStrategy.Mode {
	case LimitSize:
		return connection.NewLimitSize(o.BackpressureStrategy.Param)
	default:
		return connection.Infinite{}
	}
}

// buildHandshake assembles the configured handshake chain, attaching a
// trailing Ping when EnsureConnectionIsPrimed is set and no handshake was
// supplied, and an ActivatePushTypes step when EnablePushTypes is set.
func (o Options) buildHandshake() *handshake.Handshake {
	var steps []*handshake.Handshake
	if o.Handshake != nil {
		steps = append(steps, o.Handshake)
	} else if o.EnsureConnectionIsPrimed {
		steps = append(steps, handshake.NewPing(""))
	}
	if o.EnablePushTypes {
		steps = append(steps, handshake.NewActivatePushTypes())
	}
	switch len(steps) {
	case 0:
		// ConnectionCore always runs one request/response round before
		// flipping to Open (spec.md §4.4), so a Client configured with
		// neither an explicit handshake nor EnsureConnectionIsPrimed
		// still gets a bare Ping: the alternative is a Core that can
		// start Open with nothing staged, which spec.md never describes.
		return handshake.NewPing("")
	case 1:
		return steps[0]
	default:
		return handshake.NewChain(steps...)
	}
}
