package infrastructure

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"chatdagang/internal/entities"
)

// ErrDecrypt is returned for any malformed or tampered ciphertext. Callers
// must treat it as terminal: retrying a decrypt cannot succeed.
var ErrDecrypt = errors.New("credential decrypt failed")

// CredentialCipher seals provider tokens at rest. Ciphertext layout is
// nonce||box, base64-encoded.
type CredentialCipher struct {
	aead cipher.AEAD
}

func NewCredentialCipher(key []byte) (*CredentialCipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("credential key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &CredentialCipher{aead: aead}, nil
}

func (c *CredentialCipher) Seal(plaintext []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	box := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(box), nil
}

func (c *CredentialCipher) Open(sealed string) ([]byte, error) {
	box, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(box) < c.aead.NonceSize() {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}
	nonce, body := box[:c.aead.NonceSize()], box[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return plaintext, nil
}

// SealCredentials and OpenCredentials are the JSON convenience pair used by
// the integration registry.
func (c *CredentialCipher) SealCredentials(creds entities.Credentials) (string, error) {
	raw, err := json.Marshal(creds)
	if err != nil {
		return "", err
	}
	return c.Seal(raw)
}

func (c *CredentialCipher) OpenCredentials(sealed string) (entities.Credentials, error) {
	var creds entities.Credentials
	raw, err := c.Open(sealed)
	if err != nil {
		return creds, err
	}
	if err := json.Unmarshal(raw, &creds); err != nil {
		return creds, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return creds, nil
}
