package keyring

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestKeyringSetGetDelete(t *testing.T) {
	keyring.MockInit()
	kr := NewKeyring()

	if err := kr.SetPassword("bob", "s3cret"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	got, err := kr.GetPassword("bob")
	if err != nil {
		t.Fatalf("GetPassword: %v", err)
	}
	if got != "s3cret" {
		t.Fatalf("GetPassword = %q", got)
	}
	if err := kr.DeletePassword("bob"); err != nil {
		t.Fatalf("DeletePassword: %v", err)
	}
	if _, err := kr.GetPassword("bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetPassword after delete = %v, want ErrNotFound", err)
	}
}

func TestKeyringUsesAppNameAndUser(t *testing.T) {
	origSet := keyringSet
	defer func() { keyringSet = origSet }()

	var gotService, gotUser, gotValue string
	keyringSet = func(service, user, value string) error {
		gotService, gotUser, gotValue = service, user, value
		return nil
	}

	kr := NewKeyring()
	if err := kr.SetPassword("alice", "pw"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if gotService != "fzpwuploader" || gotUser != "alice" || gotValue != "pw" {
		t.Fatalf("unexpected set call: %q %q %q", gotService, gotUser, gotValue)
	}
}

func TestKeyringRejectsEmptyUser(t *testing.T) {
	keyring.MockInit()
	if err := NewKeyring().SetPassword("", "pw"); err == nil {
		t.Fatal("expected error for empty user")
	}
}

func TestKeyringUnavailable(t *testing.T) {
	keyring.MockInitWithError(errors.New("no dbus"))
	defer keyring.MockInit()

	if err := NewKeyring().SetPassword("bob", "pw"); err == nil {
		t.Fatal("expected error from unavailable keyring")
	}
}
