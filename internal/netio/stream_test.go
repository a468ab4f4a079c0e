package netio

import (
	"net"
	"testing"
	"time"
)

func TestStreamSendRecv(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	cs := &Stream{conn: client}
	ss := &Stream{conn: server}

	go func() {
		cs.Send([]byte("PING\r\n"))
	}()

	buf := make([]byte, 64)
	res := ss.Recv(buf, time.Second)
	if !res.Alive || res.Err != nil {
		t.Fatalf("expected a healthy read, got %+v", res)
	}
	if string(buf[:res.N]) != "PING\r\n" {
		t.Fatalf("got %q", buf[:res.N])
	}
}

func TestStreamShutdownIsIdempotent(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	s := &Stream{conn: client}

	s.Shutdown()
	s.Shutdown() // must not panic

	if s.Ok() {
		t.Fatalf("expected Ok() to be false after Shutdown")
	}
}
