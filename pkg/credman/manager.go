// Package credman remembers forum passwords. The OS keyring is used when
// available, otherwise an AES-GCM encrypted file in the config directory.
package credman

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/achterblog/fzpwuploader/pkg/credman/encryption"
	"github.com/achterblog/fzpwuploader/pkg/credman/keyring"
	"github.com/achterblog/fzpwuploader/pkg/credman/types"
	"github.com/achterblog/fzpwuploader/pkg/logger"
)

const credFileName = "credentials.enc"

// ErrNoCredentials is returned when no password is stored for a user.
var ErrNoCredentials = errors.New("no stored credentials")

// Backend names where a password lives.
type Backend string

const (
	BackendKeyring Backend = "keyring"
	BackendFile    Backend = "file"
)

// Manager stores and looks up passwords per forum user.
type Manager struct {
	fs       afero.Fs
	filePath string
	kr       *keyring.Keyring
	keys     *keyring.FileKeyStore
	l        logger.Logger
}

// NewManager creates a Manager keeping its fallback files in configDir.
// A nil fs means the OS filesystem.
func NewManager(fs afero.Fs, configDir string, l logger.Logger) *Manager {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Manager{
		fs:       fs,
		filePath: filepath.Join(configDir, credFileName),
		kr:       keyring.NewKeyring(),
		keys:     keyring.NewFileKeyStore(fs, configDir),
		l:        logger.OrNop(l),
	}
}

// Save stores password for user, in the keyring if possible.
func (m *Manager) Save(user, password string) (Backend, error) {
	err := m.kr.SetPassword(user, password)
	if err == nil {
		// drop a stale fallback entry
		m.deleteFromFile(user)
		return BackendKeyring, nil
	}
	m.l.Warning("Keyring unavailable (%v), storing password in %s", err, m.filePath)
	if err := m.saveToFile(user, password); err != nil {
		return "", err
	}
	return BackendFile, nil
}

// Lookup returns the stored password for user and where it was found.
func (m *Manager) Lookup(user string) (string, Backend, error) {
	pw, err := m.kr.GetPassword(user)
	if err == nil {
		return pw, BackendKeyring, nil
	}
	if !errors.Is(err, keyring.ErrNotFound) {
		m.l.Debug("Keyring lookup for %s failed: %v", user, err)
	}
	pw, err = m.lookupFile(user)
	if err != nil {
		return "", "", err
	}
	return pw, BackendFile, nil
}

// Forget removes user's password from every backend. It fails with
// ErrNoCredentials when nothing was stored.
func (m *Manager) Forget(user string) error {
	krErr := m.kr.DeletePassword(user)
	removed, err := m.deleteFromFile(user)
	if err != nil {
		return err
	}
	if krErr != nil && !removed {
		if errors.Is(krErr, keyring.ErrNotFound) {
			return fmt.Errorf("%w for %s", ErrNoCredentials, user)
		}
		return krErr
	}
	return nil
}

func (m *Manager) load() (map[string]types.Credential, error) {
	creds := make(map[string]types.Credential)
	data, err := afero.ReadFile(m.fs, m.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return creds, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 { // don't decode empty data
		return creds, nil
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&creds); err != nil {
		return nil, fmt.Errorf("decode %s: %w", m.filePath, err)
	}
	return creds, nil
}

func (m *Manager) store(creds map[string]types.Credential) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(creds); err != nil {
		return err
	}
	if err := m.fs.MkdirAll(filepath.Dir(m.filePath), 0755); err != nil {
		return err
	}
	tmp := m.filePath + ".tmp"
	if err := afero.WriteFile(m.fs, tmp, buf.Bytes(), 0600); err != nil {
		return err
	}
	return m.fs.Rename(tmp, m.filePath)
}

func (m *Manager) saveToFile(user, password string) error {
	key, err := m.keys.GetOrCreateKey()
	if err != nil {
		return fmt.Errorf("credentials key: %w", err)
	}
	secret, err := encryption.EncryptValue(password, key)
	if err != nil {
		return err
	}
	creds, err := m.load()
	if err != nil {
		return err
	}
	creds[user] = types.Credential{User: user, Secret: secret, SavedAt: time.Now()}
	return m.store(creds)
}

func (m *Manager) lookupFile(user string) (string, error) {
	creds, err := m.load()
	if err != nil {
		return "", err
	}
	c, ok := creds[user]
	if !ok {
		return "", fmt.Errorf("%w for %s", ErrNoCredentials, user)
	}
	key, err := m.keys.GetKey()
	if err != nil {
		return "", fmt.Errorf("credentials key: %w", err)
	}
	pw, err := encryption.DecryptValue(c.Secret, key)
	if err != nil {
		return "", fmt.Errorf("decrypt password of %s: %w", user, err)
	}
	return string(pw), nil
}

func (m *Manager) deleteFromFile(user string) (bool, error) {
	creds, err := m.load()
	if err != nil {
		return false, err
	}
	if _, ok := creds[user]; !ok {
		return false, nil
	}
	delete(creds, user)
	return true, m.store(creds)
}
