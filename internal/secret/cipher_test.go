package secret

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCipher(t *testing.T, secret string) *Cipher {
	t.Helper()
	c, err := NewCipher(secret)
	require.NoError(t, err)
	return c
}

func TestRoundTrip(t *testing.T) {
	c := newTestCipher(t, "master-secret")

	for _, v := range []string{"", "sk_live_abc123", "ключ-🔑-値", strings.Repeat("x", 4096)} {
		enc, err := c.Encrypt(v)
		require.NoError(t, err)
		assert.NotContains(t, enc, "=")

		dec, err := c.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, v, dec)
	}
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	c := newTestCipher(t, "master-secret")

	a, err := c.Encrypt("same")
	require.NoError(t, err)
	b, err := c.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptWrongKey(t *testing.T) {
	enc, err := newTestCipher(t, "one").Encrypt("value")
	require.NoError(t, err)

	_, err = newTestCipher(t, "two").Decrypt(enc)
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestDecryptTampered(t *testing.T) {
	c := newTestCipher(t, "master-secret")
	enc, err := c.Encrypt("value")
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(enc)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01

	_, err = c.Decrypt(base64.RawURLEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestDecryptMalformed(t *testing.T) {
	c := newTestCipher(t, "master-secret")

	for _, in := range []string{"", "!!not-base64!!", base64.RawURLEncoding.EncodeToString([]byte("short"))} {
		_, err := c.Decrypt(in)
		assert.ErrorIs(t, err, ErrDecryption)
		assert.NotContains(t, err.Error(), in)
	}
}

func TestNewCipherRejectsEmpty(t *testing.T) {
	_, err := NewCipher("")
	assert.Error(t, err)
}

func TestMask(t *testing.T) {
	stars := strings.Repeat("*", 16)

	assert.Equal(t, stars+"...cdef", Mask("sk_live_abcdef"))
	assert.Equal(t, stars+"...2345", Mask("12345"))
	assert.Equal(t, stars, Mask("1234"))
	assert.Equal(t, stars, Mask(""))
	assert.Equal(t, stars+"...é値🔑x", Mask("abcdé値🔑x"))
}
