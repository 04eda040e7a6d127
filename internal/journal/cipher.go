package journal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	cipherSaltLength = 32
	cipherKeyLength  = 32
	cipherIterations = 100000
)

// Cipher encrypts journal content at rest with AES-GCM. Each message gets
// its own salt so the key is derived fresh per entry and survives restarts.
type Cipher struct {
	passphrase []byte
}

// NewCipher creates a cipher from a passphrase. An empty passphrase returns
// nil, which stores treat as encryption disabled.
func NewCipher(passphrase string) *Cipher {
	if passphrase == "" {
		return nil
	}
	return &Cipher{passphrase: []byte(passphrase)}
}

// Encrypt seals the plaintext and returns base64 ciphertext, salt, and nonce.
func (c *Cipher) Encrypt(plaintext string) (data, salt, nonce string, err error) {
	rawSalt := make([]byte, cipherSaltLength)
	if _, err = rand.Read(rawSalt); err != nil {
		return "", "", "", fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := c.aead(rawSalt)
	if err != nil {
		return "", "", "", err
	}

	rawNonce := make([]byte, gcm.NonceSize())
	if _, err = rand.Read(rawNonce); err != nil {
		return "", "", "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, rawNonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(ciphertext),
		base64.StdEncoding.EncodeToString(rawSalt),
		base64.StdEncoding.EncodeToString(rawNonce),
		nil
}

// Decrypt opens a sealed message produced by Encrypt.
func (c *Cipher) Decrypt(data, salt, nonce string) (string, error) {
	rawSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return "", fmt.Errorf("failed to decode salt: %w", err)
	}
	rawNonce, err := base64.StdEncoding.DecodeString(nonce)
	if err != nil {
		return "", fmt.Errorf("failed to decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	gcm, err := c.aead(rawSalt)
	if err != nil {
		return "", err
	}
	if len(rawNonce) != gcm.NonceSize() {
		return "", errors.New("invalid nonce length")
	}

	plaintext, err := gcm.Open(nil, rawNonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}

func (c *Cipher) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(c.passphrase, salt, cipherIterations, cipherKeyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
