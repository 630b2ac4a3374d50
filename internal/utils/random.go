package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	// IDBytes is the entropy of user and session ids (128 bits)
	IDBytes = 16
	// TokenBytes is the entropy of session tokens (256 bits)
	TokenBytes = 32
)

// RandomHex returns n cryptographically random bytes, hex-encoded
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateID returns a new 128-bit hex identifier
func GenerateID() (string, error) {
	return RandomHex(IDBytes)
}

// GenerateSessionToken returns a new 256-bit hex session token
func GenerateSessionToken() (string, error) {
	return RandomHex(TokenBytes)
}
