package netio

import (
	"crypto/tls"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/grantae/certinfo"
	log "github.com/sirupsen/logrus"
)

// TLSConfig carries the options spec.md §6.5 enumerates for the optional
// TLS filter. It is a transparent byte filter over the socket, per
// spec.md §4.3: plaintext in/out on the public Send/Recv face, ciphertext
// on the wire.
type TLSConfig struct {
	Active     bool
	CertPath   string
	KeyPath    string
	KeyPassword string
	CAPath     string
	VerifyPeer bool
}

// Stream is the byte-level send/recv duplex over a connected socket,
// optionally wrapped in TLS. It implements spec.md §4.3's NetworkStream.
//
// Unlike the C++ original, Stream has no non-blocking EWOULDBLOCK path:
// Go's net.Conn blocks per-call. The Client runs its writer and reader
// loops in goroutines of their own; a Recv blocked without a timeout is
// released by Shutdown on connections that support half-close.
type Stream struct {
	conn net.Conn

	mu       sync.Mutex
	shutdown bool
}

// NewStream wraps a dialed connection, applying TLS if cfg.Active.
func NewStream(conn net.Conn, cfg *TLSConfig, logger *log.Entry) (*Stream, error) {
	if cfg == nil || !cfg.Active {
		return &Stream{conn: conn}, nil
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	tlsConf := &tls.Config{InsecureSkipVerify: !cfg.VerifyPeer}
	if cfg.CertPath != "" && cfg.KeyPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertPath, cfg.KeyPath)
		if err != nil {
			conn.Close()
			return nil, err
		}
		tlsConf.Certificates = []tls.Certificate{cert}
	}

	tlsConn := tls.Client(conn, tlsConf)
	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, err
	}

	if state := tlsConn.ConnectionState(); len(state.PeerCertificates) > 0 {
		if text, err := certinfo.CertificateText(state.PeerCertificates[0]); err == nil {
			logger.WithField("peer_cert", text).Debug("netio: TLS handshake complete")
		}
	}

	return &Stream{conn: tlsConn}, nil
}

// Send writes buf, blocking until it is fully written or an error occurs.
func (s *Stream) Send(buf []byte) (int, error) {
	return s.conn.Write(buf)
}

// RecvResult mirrors spec.md §4.3's recv() contract.
type RecvResult struct {
	Alive     bool
	N         int
	Err       error
}

// Recv reads into buf with the given deadline (zero means no deadline). A
// timeout (Alive=true, N=0, Err=os.ErrDeadlineExceeded) means "no data
// yet, connection healthy" per spec.md §4.3; EOF or any other error means
// Alive=false.
func (s *Stream) Recv(buf []byte, timeout time.Duration) RecvResult {
	if timeout > 0 {
		s.conn.SetReadDeadline(time.Now().Add(timeout))
		defer s.conn.SetReadDeadline(time.Time{})
	}
	n, err := s.conn.Read(buf)
	if err == nil {
		return RecvResult{Alive: true, N: n}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return RecvResult{Alive: true, N: n, Err: err}
	}
	if errors.Is(err, io.EOF) {
		return RecvResult{Alive: false, N: n, Err: err}
	}
	return RecvResult{Alive: false, N: n, Err: err}
}

// Shutdown half-closes the stream. Idempotent; the fd is not released
// until a later Close, to avoid a use-after-close race between the reader
// and writer goroutines (spec.md §4.3).
func (s *Stream) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return
	}
	s.shutdown = true
	if closer, ok := s.conn.(interface{ CloseRead() error }); ok {
		closer.CloseRead()
	}
	if closer, ok := s.conn.(interface{ CloseWrite() error }); ok {
		closer.CloseWrite()
	}
}

// Ok reports whether Shutdown has not yet been called.
func (s *Stream) Ok() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.shutdown
}

// Close releases the underlying file descriptor.
func (s *Stream) Close() error {
	return s.conn.Close()
}
