package encryption

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x11}, 32)
	ciphertext, err := EncryptValue("hällo", key)
	if err != nil {
		t.Fatalf("EncryptValue: %v", err)
	}
	if bytes.Contains(ciphertext, []byte("hällo")) {
		t.Fatal("plaintext visible in ciphertext")
	}
	plaintext, err := DecryptValue(ciphertext, key)
	if err != nil {
		t.Fatalf("DecryptValue: %v", err)
	}
	if string(plaintext) != "hällo" {
		t.Fatalf("expected plaintext 'hällo', got %q", string(plaintext))
	}
}

func TestEncryptValueInvalidKey(t *testing.T) {
	if _, err := EncryptValue("hi", []byte{0x01}); err == nil {
		t.Fatalf("expected error for invalid key length")
	}
}

func TestDecryptValueTooShort(t *testing.T) {
	key := bytes.Repeat([]byte{0x22}, 32)
	if _, err := DecryptValue([]byte{0x00, 0x01}, key); !errors.Is(err, ErrTooShort) {
		t.Fatalf("DecryptValue = %v, want ErrTooShort", err)
	}
	if _, err := DecryptValue([]byte(gcmPrefix+"abc"), key); !errors.Is(err, ErrTooShort) {
		t.Fatalf("DecryptValue = %v, want ErrTooShort", err)
	}
}

func TestDecryptValueUnknownFormat(t *testing.T) {
	key := bytes.Repeat([]byte{0x33}, 32)
	if _, err := DecryptValue([]byte("plain text value"), key); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("DecryptValue = %v, want ErrUnknownFormat", err)
	}
}

func TestDecryptValueWrongKey(t *testing.T) {
	ciphertext, err := EncryptValue("secret", bytes.Repeat([]byte{0x44}, 32))
	if err != nil {
		t.Fatalf("EncryptValue: %v", err)
	}
	if _, err := DecryptValue(ciphertext, bytes.Repeat([]byte{0x55}, 32)); err == nil {
		t.Fatal("expected authentication failure with the wrong key")
	}
}
