package shard

import (
	"context"

	"github.com/nullboard/gistsync/internal/gistapi"
)

// Gateway is the subset of the remote gist gateway the shard router and
// syncer need. Satisfied by *gistapi.Gateway.
type Gateway interface {
	CreateGist(ctx context.Context, description string, files map[string]string) (string, error)
	GetGistFileContent(ctx context.Context, gistID, filename string) ([]byte, error)
	UpdateGistFiles(ctx context.Context, gistID string, updates []gistapi.FileUpdate) error
	DeleteGistFiles(ctx context.Context, gistID string, filenames []string) error
	DeleteGist(ctx context.Context, gistID string) error
	ListGistFilenames(ctx context.Context, gistID string) ([]string, error)
}

// Sealer encrypts and decrypts shard manifests, which are stored
// encrypted per spec.md's file format table (unlike media files, which
// are plaintext wrappers).
type Sealer interface {
	Encrypt(plaintext []byte, secret string, customPassword bool) ([]byte, error)
	DecryptOrPassthrough(data []byte, gistID, passphrase string) ([]byte, error)
}
