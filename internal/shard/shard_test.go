package shard

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nullboard/gistsync/internal/gistapi"
)

// fakeGateway is an in-memory stand-in for gistapi.Gateway used across
// shard package tests.
type fakeGateway struct {
	mu      sync.Mutex
	nextID  int
	gists   map[string]map[string]string // gistID -> filename -> content
	failing map[string]bool              // gistID -> force UpdateGistFiles failure
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		gists:   make(map[string]map[string]string),
		failing: make(map[string]bool),
	}
}

func (f *fakeGateway) CreateGist(ctx context.Context, description string, files map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := fmt.Sprintf("gist-%d", f.nextID)

	copyFiles := make(map[string]string, len(files))
	for k, v := range files {
		copyFiles[k] = v
	}

	f.gists[id] = copyFiles

	return id, nil
}

func (f *fakeGateway) GetGistFileContent(ctx context.Context, gistID, filename string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	files, ok := f.gists[gistID]
	if !ok {
		return nil, gistapi.ErrNotFound
	}

	content, ok := files[filename]
	if !ok {
		return nil, gistapi.ErrNotFound
	}

	return []byte(content), nil
}

func (f *fakeGateway) UpdateGistFiles(ctx context.Context, gistID string, updates []gistapi.FileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing[gistID] {
		return fmt.Errorf("fake: forced failure for %s", gistID)
	}

	files, ok := f.gists[gistID]
	if !ok {
		files = make(map[string]string)
		f.gists[gistID] = files
	}

	for _, u := range updates {
		if u.Content == nil {
			delete(files, u.Name)
			continue
		}

		files[u.Name] = *u.Content
	}

	return nil
}

func (f *fakeGateway) DeleteGistFiles(ctx context.Context, gistID string, filenames []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	files, ok := f.gists[gistID]
	if !ok {
		return nil
	}

	for _, name := range filenames {
		delete(files, name)
	}

	return nil
}

func (f *fakeGateway) DeleteGist(ctx context.Context, gistID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.gists, gistID)

	return nil
}

func (f *fakeGateway) ListGistFilenames(ctx context.Context, gistID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	files, ok := f.gists[gistID]
	if !ok {
		return nil, gistapi.ErrNotFound
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}

// passthroughSealer implements Sealer without real crypto, so tests can
// assert on the plaintext they round-trip.
type passthroughSealer struct{}

func (passthroughSealer) Encrypt(plaintext []byte, secret string, customPassword bool) ([]byte, error) {
	return plaintext, nil
}

func (passthroughSealer) DecryptOrPassthrough(data []byte, gistID, passphrase string) ([]byte, error) {
	return data, nil
}

func fixedNow(ts int64) func() int64 {
	return func() int64 { return ts }
}
