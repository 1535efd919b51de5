// Package passstore persists the optional custom passphrase used in
// place of the Gist ID as the crypto envelope's key derivation secret
// (spec.md §4.2, §4.6): obfuscated at rest via a device-fingerprint XOR
// keystream, cached in memory once loaded.
package passstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nullboard/gistsync/internal/devicefp"
)

const (
	filePermissions = 0o600
	dirPermissions  = 0o700
)

// ErrNotSet is returned when no custom passphrase has been saved.
var ErrNotSet = errors.New("passstore: no passphrase set")

type fileFormat struct {
	Obfuscated string `json:"obfuscated"`
}

// Store persists the custom passphrase flag and obfuscated value.
type Store struct {
	path        string
	fingerprint string

	mu       sync.Mutex
	cached   string
	hasValue bool
	loaded   bool
}

// New returns a Store backed by the file at path.
func New(path string) *Store {
	return &Store{path: path, fingerprint: devicefp.Fingerprint()}
}

// Save obfuscates and persists passphrase. An empty passphrase clears
// custom-password mode (the envelope falls back to the Gist ID as its
// secret).
func (s *Store) Save(passphrase string) error {
	if passphrase == "" {
		return s.Clear()
	}

	obfuscated := devicefp.Obfuscate(passphrase, s.fingerprint)

	data, err := json.Marshal(fileFormat{Obfuscated: obfuscated})
	if err != nil {
		return fmt.Errorf("passstore: encoding: %w", err)
	}

	if err := atomicWrite(s.path, data); err != nil {
		return err
	}

	s.mu.Lock()
	s.cached = passphrase
	s.hasValue = true
	s.loaded = true
	s.mu.Unlock()

	return nil
}

// Load returns the stored passphrase, or ErrNotSet if none is set.
func (s *Store) Load() (string, error) {
	s.mu.Lock()
	if s.loaded {
		defer s.mu.Unlock()

		if !s.hasValue {
			return "", ErrNotSet
		}

		return s.cached, nil
	}
	s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.mu.Lock()
		s.loaded = true
		s.hasValue = false
		s.mu.Unlock()

		return "", ErrNotSet
	}
	if err != nil {
		return "", fmt.Errorf("passstore: reading file: %w", err)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return "", fmt.Errorf("passstore: decoding file: %w", err)
	}

	passphrase, err := devicefp.Deobfuscate(ff.Obfuscated, s.fingerprint)
	if err != nil {
		return "", fmt.Errorf("passstore: deobfuscating: %w", err)
	}

	s.mu.Lock()
	s.cached = passphrase
	s.hasValue = true
	s.loaded = true
	s.mu.Unlock()

	return passphrase, nil
}

// HasCustomPassword reports whether a custom passphrase is currently set.
func (s *Store) HasCustomPassword() bool {
	_, err := s.Load()
	return err == nil
}

// Clear removes the stored passphrase.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.clearLocked()
}

func (s *Store) clearLocked() error {
	s.cached = ""
	s.hasValue = false
	s.loaded = true

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("passstore: removing file: %w", err)
	}

	return nil
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("passstore: creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pass-*.tmp")
	if err != nil {
		return fmt.Errorf("passstore: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, filePermissions); err != nil {
		tmp.Close()
		return fmt.Errorf("passstore: setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("passstore: writing temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("passstore: syncing temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("passstore: closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("passstore: renaming temp file: %w", err)
	}

	success = true

	return nil
}
