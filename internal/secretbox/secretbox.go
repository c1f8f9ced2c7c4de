package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const prefix = "enc:"

// saltLen bytes of random salt precede the nonce in every encrypted value.
const saltLen = 16

var ErrDecryptFailed = errors.New("decrypt failed; check KAMATERA_CONFIG_SECRET or log in again")

// Box encrypts credential values with a passphrase. A nil *Box stores
// values as plaintext.
type Box struct {
	passphrase []byte
}

// New returns nil for an empty passphrase.
func New(passphrase string) *Box {
	if passphrase == "" {
		return nil
	}
	return &Box{passphrase: []byte(passphrase)}
}

// IsEncrypted reports whether value carries the encrypted prefix.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), prefix)
}

func (b *Box) key(salt []byte) ([]byte, error) {
	return scrypt.Key(b.passphrase, salt, 1<<15, 8, 1, 32)
}

func (b *Box) Encrypt(plaintext string) (string, error) {
	if b == nil || plaintext == "" {
		return plaintext, nil
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key, err := b.key(salt)
	if err != nil {
		return "", err
	}
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out := append(salt, nonce...)
	out = gcm.Seal(out, nonce, []byte(plaintext), nil)
	return prefix + base64.RawStdEncoding.EncodeToString(out), nil
}

// Decrypt returns plaintext values unchanged.
func (b *Box) Decrypt(value string) (string, error) {
	value = strings.TrimSpace(value)
	if !IsEncrypted(value) {
		return value, nil
	}
	if b == nil {
		return "", fmt.Errorf("value is encrypted but no passphrase is configured")
	}
	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(value, prefix))
	if err != nil {
		return "", fmt.Errorf("invalid encrypted secret: %w", err)
	}
	if len(raw) < saltLen {
		return "", fmt.Errorf("invalid encrypted secret")
	}
	key, err := b.key(raw[:saltLen])
	if err != nil {
		return "", err
	}
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	raw = raw[saltLen:]
	if len(raw) < gcm.NonceSize() {
		return "", fmt.Errorf("invalid encrypted secret")
	}
	plaintext, err := gcm.Open(nil, raw[:gcm.NonceSize()], raw[gcm.NonceSize():], nil)
	if err != nil {
		return "", ErrDecryptFailed
	}
	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
