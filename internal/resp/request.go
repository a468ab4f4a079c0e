package resp

import "strconv"

// EncodedRequest is an owned wire-format buffer in RESP array-of-bulk-
// strings form (spec.md §3). MultiSize is non-zero only for the final
// command of a transaction block (spec.md §4.8); it tells ConnectionCore
// how many interim "QUEUED" replies to discard before resolving this
// request with the real reply.
type EncodedRequest struct {
	Buf       []byte
	MultiSize int
}

// Encode builds a RESP array-of-bulk-strings request from tokens, the way
// other_examples/aaafb1f8_pascaldekloe-redis builds a request buffer
// incrementally rather than via reflection/formatting.
func Encode(tokens ...string) *EncodedRequest {
	buf := make([]byte, 0, 32)
	buf = append(buf, '*')
	buf = strconv.AppendInt(buf, int64(len(tokens)), 10)
	buf = append(buf, '\r', '\n')
	for _, tok := range tokens {
		buf = append(buf, '$')
		buf = strconv.AppendInt(buf, int64(len(tok)), 10)
		buf = append(buf, '\r', '\n')
		buf = append(buf, tok...)
		buf = append(buf, '\r', '\n')
	}
	return &EncodedRequest{Buf: buf}
}

// EncodeBytes is like Encode but for binary-safe tokens.
func EncodeBytes(tokens ...[]byte) *EncodedRequest {
	buf := make([]byte, 0, 32)
	buf = append(buf, '*')
	buf = strconv.AppendInt(buf, int64(len(tokens)), 10)
	buf = append(buf, '\r', '\n')
	for _, tok := range tokens {
		buf = append(buf, '$')
		buf = strconv.AppendInt(buf, int64(len(tok)), 10)
		buf = append(buf, '\r', '\n')
		buf = append(buf, tok...)
		buf = append(buf, '\r', '\n')
	}
	return &EncodedRequest{Buf: buf}
}

// WithMultiSize tags req as the terminal command of a transaction whose
// n interim replies should be discarded (spec.md §4.8).
func (req *EncodedRequest) WithMultiSize(n int) *EncodedRequest {
	req.MultiSize = n
	return req
}
