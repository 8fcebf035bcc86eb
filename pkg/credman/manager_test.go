package credman

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/zalando/go-keyring"
)

func TestManager_KeyringRoundTrip(t *testing.T) {
	keyring.MockInit()
	fs := afero.NewMemMapFs()
	m := NewManager(fs, "/cfg", nil)

	backend, err := m.Save("bob", "s3cret")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if backend != BackendKeyring {
		t.Errorf("backend = %s, want keyring", backend)
	}
	pw, from, err := m.Lookup("bob")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if pw != "s3cret" || from != BackendKeyring {
		t.Errorf("Lookup = %q from %s", pw, from)
	}
	if ok, _ := afero.Exists(fs, "/cfg/"+credFileName); ok {
		t.Error("fallback file written although the keyring works")
	}
	if err := m.Forget("bob"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if _, _, err := m.Lookup("bob"); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("Lookup after Forget = %v, want ErrNoCredentials", err)
	}
}

func TestManager_FileFallback(t *testing.T) {
	keyring.MockInitWithError(errors.New("no secret service"))
	defer keyring.MockInit()
	fs := afero.NewMemMapFs()
	m := NewManager(fs, "/cfg", nil)

	backend, err := m.Save("bob", "pässwort")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if backend != BackendFile {
		t.Errorf("backend = %s, want file", backend)
	}
	raw, err := afero.ReadFile(fs, "/cfg/"+credFileName)
	if err != nil {
		t.Fatalf("credentials file: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("credentials file is empty")
	}

	// a new manager must read what the first one wrote
	pw, from, err := NewManager(fs, "/cfg", nil).Lookup("bob")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if pw != "pässwort" || from != BackendFile {
		t.Errorf("Lookup = %q from %s", pw, from)
	}

	if err := m.Forget("bob"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if _, _, err := m.Lookup("bob"); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("Lookup after Forget = %v, want ErrNoCredentials", err)
	}
}

func TestManager_ForgetUnknownUser(t *testing.T) {
	keyring.MockInit()
	m := NewManager(afero.NewMemMapFs(), "/cfg", nil)
	if err := m.Forget("nobody"); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("Forget = %v, want ErrNoCredentials", err)
	}
}

func TestManager_KeyringSaveRemovesFileEntry(t *testing.T) {
	fs := afero.NewMemMapFs()
	keyring.MockInitWithError(errors.New("locked"))
	m := NewManager(fs, "/cfg", nil)
	if _, err := m.Save("bob", "old"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	keyring.MockInit()
	if _, err := m.Save("bob", "new"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := m.lookupFile("bob"); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("stale file entry still present: %v", err)
	}
	pw, _, err := m.Lookup("bob")
	if err != nil || pw != "new" {
		t.Errorf("Lookup = %q, %v", pw, err)
	}
}

func TestManager_CorruptFile(t *testing.T) {
	keyring.MockInit()
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/cfg/"+credFileName, []byte("garbage"), 0600)
	m := NewManager(fs, "/cfg", nil)

	if _, _, err := m.Lookup("bob"); err == nil || errors.Is(err, ErrNoCredentials) {
		t.Fatalf("Lookup = %v, want decode error", err)
	}
}
