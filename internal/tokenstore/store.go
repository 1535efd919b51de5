package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nullboard/gistsync/internal/crypto"
	"github.com/nullboard/gistsync/internal/devicefp"
)

const (
	filePermissions = 0o600
	dirPermissions  = 0o700
)

// ErrNotSet is returned when no token has been saved yet.
var ErrNotSet = errors.New("tokenstore: no token set")

type fileFormat struct {
	Sealed string `json:"sealed"`
}

// Store persists the API token AES-wrapped with a device-local key
// derived from the installation's fingerprint (spec.md §4.6), and
// implements gistapi.TokenSource for direct use by the remote gateway.
type Store struct {
	path        string
	envelope    *crypto.Envelope
	fingerprint string

	mu     sync.Mutex
	cached string
	loaded bool
}

// New returns a Store backed by the file at path.
func New(path string) *Store {
	return &Store{
		path:        path,
		envelope:    crypto.New(),
		fingerprint: devicefp.Fingerprint(),
	}
}

// Save validates token's format and writes it to disk, AES-wrapped.
func (s *Store) Save(token string) error {
	if err := ValidateFormat(token); err != nil {
		return err
	}

	sealed, err := s.envelope.Encrypt([]byte(token), s.fingerprint, true)
	if err != nil {
		return fmt.Errorf("tokenstore: sealing token: %w", err)
	}

	data, err := json.Marshal(fileFormat{Sealed: string(sealed)})
	if err != nil {
		return fmt.Errorf("tokenstore: encoding token file: %w", err)
	}

	if err := atomicWrite(s.path, data); err != nil {
		return err
	}

	s.mu.Lock()
	s.cached = token
	s.loaded = true
	s.mu.Unlock()

	return nil
}

// Load reads and unseals the stored token, returning ErrNotSet if none
// has been saved.
func (s *Store) Load() (string, error) {
	s.mu.Lock()
	if s.loaded {
		defer s.mu.Unlock()
		return s.cached, nil
	}
	s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotSet
	}
	if err != nil {
		return "", fmt.Errorf("tokenstore: reading token file: %w", err)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return "", fmt.Errorf("tokenstore: decoding token file: %w", err)
	}

	plaintext, err := s.envelope.Decrypt([]byte(ff.Sealed), "", s.fingerprint)
	if err != nil {
		return "", fmt.Errorf("tokenstore: unsealing token: %w", err)
	}

	token := string(plaintext)

	s.mu.Lock()
	s.cached = token
	s.loaded = true
	s.mu.Unlock()

	return token, nil
}

// Token implements gistapi.TokenSource.
func (s *Store) Token() (string, error) {
	token, err := s.Load()
	if errors.Is(err, ErrNotSet) {
		return "", nil
	}

	return token, err
}

// Clear removes the stored token file and in-memory cache (used by
// disconnect, spec.md §4.1.11).
func (s *Store) Clear() error {
	s.mu.Lock()
	s.cached = ""
	s.loaded = false
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("tokenstore: removing token file: %w", err)
	}

	return nil
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("tokenstore: creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*.tmp")
	if err != nil {
		return fmt.Errorf("tokenstore: creating temp file: %w", err)
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
		return fmt.Errorf("tokenstore: setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: writing temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: syncing temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tokenstore: closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("tokenstore: renaming temp file: %w", err)
	}

	success = true

	return nil
}
