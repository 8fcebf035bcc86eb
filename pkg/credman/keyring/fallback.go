// Package keyring keeps forum passwords in the operating system's native
// keyring and provides the key for the encrypted file store used when no
// keyring service is available.
package keyring

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	keyFileName = "credentials.key"
	keyFileMode = 0600
)

// FileKeyStore keeps the encryption key of the fallback credential file.
// The key is stored hex-encoded with 0600 permissions.
type FileKeyStore struct {
	fs        afero.Fs
	configDir string
}

var fileRandRead = rand.Read

// NewFileKeyStore creates a FileKeyStore below configDir. A nil fs means
// the OS filesystem.
func NewFileKeyStore(fs afero.Fs, configDir string) *FileKeyStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileKeyStore{
		fs:        fs,
		configDir: configDir,
	}
}

func (f *FileKeyStore) keyPath() string {
	return filepath.Join(f.configDir, keyFileName)
}

// SetKey generates a new 32-byte key, writes it atomically (temp file and
// rename) and returns the raw key bytes.
func (f *FileKeyStore) SetKey() ([]byte, error) {
	if err := f.fs.MkdirAll(f.configDir, 0755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	key := make([]byte, 32)
	if _, err := fileRandRead(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	tmpFile, err := afero.TempFile(f.fs, f.configDir, ".credentials.key.tmp.*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.WriteString(hex.EncodeToString(key)); err != nil {
		tmpFile.Close()
		f.fs.Remove(tmpPath)
		return nil, fmt.Errorf("write key: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		f.fs.Remove(tmpPath)
		return nil, fmt.Errorf("close temp file: %w", err)
	}
	if err := f.fs.Chmod(tmpPath, keyFileMode); err != nil {
		f.fs.Remove(tmpPath)
		return nil, fmt.Errorf("set permissions: %w", err)
	}
	if err := f.fs.Rename(tmpPath, f.keyPath()); err != nil {
		f.fs.Remove(tmpPath)
		return nil, fmt.Errorf("rename key file: %w", err)
	}
	return key, nil
}

// GetKey reads and decodes the stored key.
func (f *FileKeyStore) GetKey() ([]byte, error) {
	data, err := afero.ReadFile(f.fs, f.keyPath())
	if err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(string(data))
	if err != nil {
		return nil, fmt.Errorf("invalid key format: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid key length: expected 32, got %d", len(key))
	}
	return key, nil
}

// GetOrCreateKey returns the stored key, creating one when none exists.
func (f *FileKeyStore) GetOrCreateKey() ([]byte, error) {
	key, err := f.GetKey()
	if err == nil {
		return key, nil
	}
	exists, serr := afero.Exists(f.fs, f.keyPath())
	if serr != nil {
		return nil, serr
	}
	if exists {
		return nil, err
	}
	return f.SetKey()
}

// DeleteKey removes the key file.
func (f *FileKeyStore) DeleteKey() error {
	return f.fs.Remove(f.keyPath())
}
