// Package correlate implements the correlation-token scheme that ties a
// translated line back to the cue it came from after a round trip through
// a free-text translation service. Tokens are attached out of band, carried
// through the request as inline markers, and recovered from the reply by
// the Extractor.
package correlate

import (
	"crypto/rand"
)

const (
	tokenLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	tokenDigits  = "0123456789"

	// TokenLength is the total token length: three letters then three digits.
	TokenLength = 6
)

// Sentinel is the reserved all-zero token used as the item separator in
// request bodies. It can never be produced by NewToken (tokens always
// start with letters) and the Extractor never yields it as a pair.
const Sentinel Token = "000000"

// Token is one correlation token. Tokens exist only for the duration of
// a translation run and never appear in output files.
type Token string

// NewToken returns a random token of the form LLLDDD, e.g. "KQZ417".
// Uniqueness is not checked: with 26^3 * 10^3 possible values a collision
// within one file is improbable but possible, and when it happens the
// colliding cues end up sharing one translation.
func NewToken() Token {
	buf := make([]byte, TokenLength)
	rand.Read(buf)

	out := make([]byte, TokenLength)
	for i := 0; i < 3; i++ {
		out[i] = tokenLetters[int(buf[i])%len(tokenLetters)]
	}
	for i := 3; i < TokenLength; i++ {
		out[i] = tokenDigits[int(buf[i])%len(tokenDigits)]
	}
	return Token(out)
}

// Marker renders the token in its inline request/reply form, e.g. "<KQZ417>".
func (t Token) Marker() string {
	return "<" + string(t) + ">"
}
