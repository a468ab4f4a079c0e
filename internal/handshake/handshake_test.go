package handshake

import (
	"crypto/hmac"
	"crypto/sha256"
	"testing"

	"github.com/theanalyst/qclient-go/internal/resp"
)

func TestAuthHandshake(t *testing.T) {
	h := NewAuth("s3cr3t")
	tokens := h.ProvideHandshake()
	if len(tokens) != 2 || tokens[0] != "AUTH" || tokens[1] != "s3cr3t" {
		t.Fatalf("got %v", tokens)
	}
	if got := h.ValidateResponse(resp.NewStatus("OK")); got != ValidComplete {
		t.Fatalf("got %v", got)
	}
}

func TestAuthHandshakeRejectsNonOK(t *testing.T) {
	h := NewAuth("s3cr3t")
	h.ProvideHandshake()
	if got := h.ValidateResponse(resp.NewError("WRONGPASS")); got != Invalid {
		t.Fatalf("got %v", got)
	}
}

func TestPingHandshakeRoundTrip(t *testing.T) {
	h := NewPing("hello")
	tokens := h.ProvideHandshake()
	if tokens[1] != "hello" {
		t.Fatalf("got %v", tokens)
	}
	if got := h.ValidateResponse(resp.NewBulkString([]byte("hello"))); got != ValidComplete {
		t.Fatalf("got %v", got)
	}
}

func TestHMACHandshakeFullRoundTrip(t *testing.T) {
	password := "topsecret"
	h := NewHMAC(password)

	tokens := h.ProvideHandshake()
	if len(tokens) != 2 || tokens[0] != "HMAC-AUTH-GENERATE-CHALLENGE" {
		t.Fatalf("got %v", tokens)
	}
	challenge := []byte(tokens[1])

	// Simulate the server: S = R · "additional-data", raw bytes on the wire.
	s := append(append([]byte{}, challenge...), []byte("additional-data")...)

	result := h.ValidateResponse(resp.NewBulkString(s))
	if result != ValidIncomplete {
		t.Fatalf("expected ValidIncomplete after receiving challenge string, got %v", result)
	}

	macTokens := h.ProvideHandshake()
	if macTokens[0] != "HMAC-AUTH-VALIDATE-CHALLENGE" {
		t.Fatalf("got %v", macTokens)
	}

	mac := hmac.New(sha256.New, []byte(password))
	mac.Write(s)
	want := string(mac.Sum(nil))
	if macTokens[1] != want {
		t.Fatalf("got mac %q, want %q", macTokens[1], want)
	}

	if got := h.ValidateResponse(resp.NewStatus("OK")); got != ValidComplete {
		t.Fatalf("got %v", got)
	}
}

func TestHMACHandshakeRejectsPrefixMismatch(t *testing.T) {
	h := NewHMAC("topsecret")
	h.ProvideHandshake()
	if got := h.ValidateResponse(resp.NewBulkString([]byte("not-the-challenge"))); got != Invalid {
		t.Fatalf("got %v", got)
	}
}

func TestChainRequiresAllStepsComplete(t *testing.T) {
	c := NewChain(NewAuth("pw"), NewPing("hi"))

	authTokens := c.ProvideHandshake()
	if authTokens[0] != "AUTH" {
		t.Fatalf("got %v", authTokens)
	}
	if got := c.ValidateResponse(resp.NewStatus("OK")); got != ValidIncomplete {
		t.Fatalf("expected ValidIncomplete after first step, got %v", got)
	}

	pingTokens := c.ProvideHandshake()
	if pingTokens[0] != "PING" {
		t.Fatalf("got %v", pingTokens)
	}
	if got := c.ValidateResponse(resp.NewBulkString([]byte("hi"))); got != ValidComplete {
		t.Fatalf("expected ValidComplete after final step, got %v", got)
	}
}

func TestChainRestartResetsAllSteps(t *testing.T) {
	c := NewChain(NewAuth("pw"), NewPing("hi"))
	c.ProvideHandshake()
	c.ValidateResponse(resp.NewStatus("OK"))
	c.Restart()

	tokens := c.ProvideHandshake()
	if tokens[0] != "AUTH" {
		t.Fatalf("expected restart to rewind to the first step, got %v", tokens)
	}
}
