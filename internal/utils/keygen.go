package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// GenerateToken returns a random hex token with the given prefix.
// Format: prefix_randomhex
// Example: pulse_a1b2c3d4e5f6...
func GenerateToken(prefix string) (string, error) {
	b := make([]byte, 32) // 64 char hex
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	if prefix == "" {
		return hex.EncodeToString(b), nil
	}
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b)), nil
}

// GenerateSecretKey returns a random value suitable for SECRET_KEY or JWT_SECRET.
func GenerateSecretKey() (string, error) {
	b := make([]byte, 48)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateAPIToken generates a client API token: pulse_xxx
func GenerateAPIToken() (string, error) {
	return GenerateToken("pulse")
}
