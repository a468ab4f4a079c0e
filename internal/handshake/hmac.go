package handshake

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"

	"github.com/theanalyst/qclient-go/internal/resp"
)

const challengeSize = 64

// NewHMAC builds the challenge-response handshake of spec.md §4.7:
//
//  1. Generate 64 cryptographically secure random bytes R.
//  2. Send "HMAC-AUTH-GENERATE-CHALLENGE R".
//  3. Expect a string S that starts with R (anti-replay).
//  4. Compute HMAC-SHA256(password, S); send
//     "HMAC-AUTH-VALIDATE-CHALLENGE <mac>"; expect status OK.
func NewHMAC(password string) *Handshake {
	h := &hmacHandshake{password: []byte(password)}
	return &Handshake{
		ProvideHandshake: h.provide,
		ValidateResponse: h.validate,
		Restart:          h.restart,
	}
}

type hmacHandshake struct {
	password    []byte
	challenge   []byte
	computedMAC []byte
	stage       int // 0: awaiting challenge string, 1: awaiting final OK
}

// provide sends the raw challenge and signature bytes as RESP bulk
// strings - RESP is binary-safe, and the server compares/echoes them
// raw, so no hex or other text encoding belongs on the wire here.
func (h *hmacHandshake) provide() []string {
	switch h.stage {
	case 0:
		h.challenge = make([]byte, challengeSize)
		if _, err := rand.Read(h.challenge); err != nil {
			// crypto/rand failing is unrecoverable; surface via an
			// obviously-invalid challenge so validate() rejects the
			// eventual reply rather than silently proceeding insecurely.
			h.challenge = nil
		}
		return []string{"HMAC-AUTH-GENERATE-CHALLENGE", string(h.challenge)}
	case 1:
		return []string{"HMAC-AUTH-VALIDATE-CHALLENGE", string(h.computedMAC)}
	default:
		return nil
	}
}

func (h *hmacHandshake) validate(reply *resp.Reply) Result {
	switch h.stage {
	case 0:
		if h.challenge == nil || (reply.Kind != resp.KindString && reply.Kind != resp.KindStatus) {
			return Invalid
		}
		s := reply.Str
		if !bytes.HasPrefix(s, h.challenge) {
			return Invalid
		}
		mac := hmac.New(sha256.New, h.password)
		mac.Write(s)
		h.computedMAC = mac.Sum(nil)
		h.stage = 1
		return ValidIncomplete
	case 1:
		if reply.Kind == resp.KindStatus && string(reply.Str) == "OK" {
			return ValidComplete
		}
		return Invalid
	default:
		return Invalid
	}
}

func (h *hmacHandshake) restart() {
	h.stage = 0
	h.challenge = nil
	h.computedMAC = nil
}
