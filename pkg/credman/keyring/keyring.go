package keyring

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// ErrNotFound is returned when the keyring holds no password for a user.
var ErrNotFound = keyring.ErrNotFound

// Keyring stores forum passwords in the operating system's keyring, one
// entry per user under the AppName service.
type Keyring struct {
	AppName string
}

var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
)

func NewKeyring() *Keyring {
	return &Keyring{
		AppName: "fzpwuploader",
	}
}

func (k *Keyring) SetPassword(user, password string) error {
	if user == "" {
		return errors.New("empty user name")
	}
	return keyringSet(k.AppName, user, password)
}

func (k *Keyring) GetPassword(user string) (string, error) {
	return keyringGet(k.AppName, user)
}

func (k *Keyring) DeletePassword(user string) error {
	return keyringDelete(k.AppName, user)
}
