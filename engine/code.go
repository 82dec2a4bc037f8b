package engine

import (
	crand "crypto/rand"
	"math/big"
	"math/rand"
)

// SessionCodeLength is the fixed length of a session code.
const SessionCodeLength = 8

// sessionCodeChars excludes visually ambiguous characters (0/O, 1/I/L) so
// codes survive being read aloud or scrawled on a whiteboard.
const sessionCodeChars = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// NewSessionCode returns a random session code.
func NewSessionCode() string {
	code := make([]byte, SessionCodeLength)
	for i := range code {
		n, err := crand.Int(crand.Reader, big.NewInt(int64(len(sessionCodeChars))))
		if err != nil {
			// fall back to math/rand if crypto fails
			code[i] = sessionCodeChars[rand.Intn(len(sessionCodeChars))]
			continue
		}
		code[i] = sessionCodeChars[n.Int64()]
	}
	return string(code)
}
