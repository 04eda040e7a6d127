package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipher_RoundTrip(t *testing.T) {
	c := NewCipher("correct horse battery staple")

	data, salt, nonce, err := c.Encrypt("today was a strange, hopeful day")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.NotEmpty(t, salt)
	assert.NotEmpty(t, nonce)
	assert.NotEqual(t, "today was a strange, hopeful day", data)

	plaintext, err := c.Decrypt(data, salt, nonce)
	require.NoError(t, err)
	assert.Equal(t, "today was a strange, hopeful day", plaintext)
}

func TestCipher_FreshSaltPerMessage(t *testing.T) {
	c := NewCipher("passphrase")

	_, salt1, _, err := c.Encrypt("same text")
	require.NoError(t, err)
	_, salt2, _, err := c.Encrypt("same text")
	require.NoError(t, err)

	assert.NotEqual(t, salt1, salt2)
}

func TestCipher_WrongPassphraseFails(t *testing.T) {
	c := NewCipher("right")
	data, salt, nonce, err := c.Encrypt("secret")
	require.NoError(t, err)

	wrong := NewCipher("wrong")
	_, err = wrong.Decrypt(data, salt, nonce)
	assert.Error(t, err)
}

func TestCipher_TamperedCiphertextFails(t *testing.T) {
	c := NewCipher("passphrase")
	data, salt, nonce, err := c.Encrypt("secret")
	require.NoError(t, err)

	tampered := "A" + data[1:]
	if tampered == data {
		tampered = "B" + data[1:]
	}
	_, err = c.Decrypt(tampered, salt, nonce)
	assert.Error(t, err)
}

func TestNewCipher_EmptyPassphrase(t *testing.T) {
	assert.Nil(t, NewCipher(""))
}
