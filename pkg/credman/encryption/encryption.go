// Package encryption seals small secrets with AES-GCM.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
)

const gcmPrefix = "gcm1"

var (
	ErrTooShort      = errors.New("ciphertext too short")
	ErrUnknownFormat = errors.New("unknown ciphertext format")
)

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptValue seals value with key. The output is the format prefix, the
// random nonce and the ciphertext.
func EncryptValue(value string, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	ciphertext := gcm.Seal(nil, nonce, []byte(value), nil)
	out := make([]byte, 0, len(gcmPrefix)+len(nonce)+len(ciphertext))
	out = append(out, gcmPrefix...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// DecryptValue opens a value produced by EncryptValue.
func DecryptValue(ciphertext []byte, key []byte) ([]byte, error) {
	if len(ciphertext) < len(gcmPrefix) {
		return nil, ErrTooShort
	}
	if string(ciphertext[:len(gcmPrefix)]) != gcmPrefix {
		return nil, ErrUnknownFormat
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	rest := ciphertext[len(gcmPrefix):]
	if len(rest) < gcm.NonceSize() {
		return nil, ErrTooShort
	}
	return gcm.Open(nil, rest[:gcm.NonceSize()], rest[gcm.NonceSize():], nil)
}
