package app

import (
	"crypto/rand"
	"fmt"
)

// tokenCharset omits 0/O/1/I so redemption codes survive being read
// over a counter or a phone line.
const tokenCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const tokenLength = 6

// newToken generates a random redemption code. Uniqueness is enforced
// by the database; collisions retry the booking transaction.
func newToken() (string, error) {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	for i := range buf {
		buf[i] = tokenCharset[int(buf[i])%len(tokenCharset)]
	}
	return string(buf), nil
}
