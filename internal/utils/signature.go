package utils

import (
	"crypto/hmac"
	"crypto/sha256"
)

// digest keys an HMAC-SHA256 over value so comparisons run over equal-length inputs.
func digest(value, key []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(value)
	return mac.Sum(nil)
}

// ConstantTimeEqual compares two secrets without leaking their contents or lengths
// through timing.
func ConstantTimeEqual(got, want string) bool {
	key := []byte("pulse-token-compare")
	return hmac.Equal(digest([]byte(got), key), digest([]byte(want), key))
}
