package auth

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewRefreshToken returns a 256-bit opaque token. Refresh tokens are
// bearer secrets, so they come from crypto/rand rather than uuid.
func NewRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewSessionID identifies a session. It is never a secret on its own,
// the access token carries it signed.
func NewSessionID() string {
	return uuid.NewString()
}
