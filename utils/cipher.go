package utils

import (
	"errors"
	"fmt"

	"github.com/fernet/fernet-go"
)

// ErrDecrypt is returned when a ciphertext fails authentication or decoding.
var ErrDecrypt = errors.New("cipher: cannot decrypt value")

// Cipher is the process-wide symmetric cipher. It encrypts user ids inside
// bearer tokens and camera credentials at rest. It is not scoped per tenant:
// any holder can decrypt any tenant's values.
type Cipher struct {
	keys []*fernet.Key
}

// NewCipher parses a url-safe base64 Fernet key.
func NewCipher(encodedKey string) (*Cipher, error) {
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decoding fernet key: %w", err)
	}
	return &Cipher{keys: []*fernet.Key{key}}, nil
}

func (c *Cipher) Encrypt(plaintext string) (string, error) {
	tok, err := fernet.EncryptAndSign([]byte(plaintext), c.keys[0])
	if err != nil {
		return "", fmt.Errorf("encrypting value: %w", err)
	}
	return string(tok), nil
}

// Decrypt never expires ciphertexts; token lifetime is enforced by the JWT.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	msg := fernet.VerifyAndDecrypt([]byte(ciphertext), -1, c.keys)
	if msg == nil {
		return "", ErrDecrypt
	}
	return string(msg), nil
}

// GenerateKey returns a fresh encoded Fernet key.
func GenerateKey() (string, error) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		return "", fmt.Errorf("generating fernet key: %w", err)
	}
	return key.Encode(), nil
}
