// Package secret encrypts API key values at rest.
package secret

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrDecryption is returned for any ciphertext that cannot be opened: bad
// encoding, truncated input, a different master secret, or tampering.
var ErrDecryption = errors.New("secret: unable to decrypt value")

const (
	maskStars   = 16
	visibleTail = 4
)

// Cipher seals values with XChaCha20-Poly1305 under a key derived from the
// master secret. Rotating the master secret makes existing values unreadable.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives a 32-byte key as SHA-256(masterSecret).
func NewCipher(masterSecret string) (*Cipher, error) {
	if masterSecret == "" {
		return nil, errors.New("secret: master secret is empty")
	}
	key := sha256.Sum256([]byte(masterSecret))
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("secret: init aead: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt returns base64url(nonce || ciphertext || tag) without padding.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, chacha20poly1305.NonceSizeX, chacha20poly1305.NonceSizeX+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secret: read nonce: %w", err)
	}
	out := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. All failures collapse into ErrDecryption.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrDecryption
	}
	if len(raw) < chacha20poly1305.NonceSizeX+c.aead.Overhead() {
		return "", ErrDecryption
	}
	nonce, sealed := raw[:chacha20poly1305.NonceSizeX], raw[chacha20poly1305.NonceSizeX:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryption
	}
	return string(plaintext), nil
}

// Mask hides a value for display, revealing at most its last four characters.
// Short values get a fixed mask so their length is hidden too.
func Mask(value string) string {
	stars := strings.Repeat("*", maskStars)
	runes := []rune(value)
	if len(runes) <= visibleTail {
		return stars
	}
	return stars + "..." + string(runes[len(runes)-visibleTail:])
}
