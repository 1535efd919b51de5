package store

import "context"

// Well-known kv keys for the small set of singleton documents (spec.md
// §3.2's "workspace", "prompts" files) that don't warrant their own
// table — each is one JSON blob, read and replaced whole.
const (
	workspaceDocumentKey = "document:workspace"
	promptsDocumentKey   = "document:prompts"
)

// DocumentStore holds the singleton workspace and prompt-history
// documents.
type DocumentStore interface {
	GetWorkspace(ctx context.Context) ([]byte, error)
	PutWorkspace(ctx context.Context, data []byte) error
	GetPrompts(ctx context.Context) ([]byte, error)
	PutPrompts(ctx context.Context, data []byte) error
}

func (s *SQLiteStore) GetWorkspace(ctx context.Context) ([]byte, error) {
	return s.Get(ctx, workspaceDocumentKey)
}

func (s *SQLiteStore) PutWorkspace(ctx context.Context, data []byte) error {
	return s.Set(ctx, workspaceDocumentKey, data)
}

func (s *SQLiteStore) GetPrompts(ctx context.Context) ([]byte, error) {
	return s.Get(ctx, promptsDocumentKey)
}

func (s *SQLiteStore) PutPrompts(ctx context.Context, data []byte) error {
	return s.Set(ctx, promptsDocumentKey, data)
}
