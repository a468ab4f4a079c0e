// Package diag exposes an HTTP admin server for an embedding process to
// scrape: prometheus metrics, a liveness probe, and a readiness probe
// backed by the Client's own connection state. Adapted from linkerd2's
// pkg/admin, which serves the same three concerns for a proxy process.
package diag

import (
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker reports whether the wrapped Client currently considers
// itself connected (handshake complete, not mid-reconnect). Satisfied by
// qclient.Client; narrowed here so this package doesn't import the
// top-level package.
type HealthChecker interface {
	IsConnected() bool
}

type handler struct {
	promHandler http.Handler
	health      HealthChecker
	enablePprof bool
}

// NewServer returns an initialized *http.Server exposing /metrics,
// /ping (liveness), /ready (readiness, gated on health.IsConnected),
// and, if enablePprof is set, /debug/pprof/*.
func NewServer(addr string, health HealthChecker, enablePprof bool) *http.Server {
	h := &handler{
		promHandler: promhttp.Handler(),
		health:      health,
		enablePprof: enablePprof,
	}

	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 15 * time.Second,
	}
}

func (h *handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if h.enablePprof && strings.HasPrefix(req.URL.Path, "/debug/pprof/") {
		h.servePprof(w, req)
		return
	}
	switch req.URL.Path {
	case "/metrics":
		h.promHandler.ServeHTTP(w, req)
	case "/ping":
		h.servePing(w)
	case "/ready":
		h.serveReady(w)
	default:
		http.NotFound(w, req)
	}
}

// servePprof dispatches the handful of named pprof endpoints net/http/pprof
// registers on DefaultServeMux by default; reimplemented here so pprof
// only mounts when enablePprof is set, instead of always registering
// globally as importing net/http/pprof for its side effect would do.
func (h *handler) servePprof(w http.ResponseWriter, req *http.Request) {
	switch strings.TrimPrefix(req.URL.Path, "/debug/pprof/") {
	case "cmdline":
		pprof.Cmdline(w, req)
	case "profile":
		pprof.Profile(w, req)
	case "trace":
		pprof.Trace(w, req)
	case "symbol":
		pprof.Symbol(w, req)
	default:
		pprof.Index(w, req)
	}
}

func (h *handler) servePing(w http.ResponseWriter) {
	w.Write([]byte("pong\n"))
}

// serveReady answers 503 while the client has no open, handshake-complete
// connection - a caller load-balancing across several Clients can use
// this to drain traffic away from one that's mid-reconnect.
func (h *handler) serveReady(w http.ResponseWriter) {
	if h.health != nil && !h.health.IsConnected() {
		http.Error(w, "not connected\n", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ok\n"))
}
