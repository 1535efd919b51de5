package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := Open(context.Background(), ":memory:", nil)
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestOpen_AppliesMigrations(t *testing.T) {
	s := openTestStore(t)

	_, err := s.db.Exec(`SELECT 1 FROM boards LIMIT 1`)
	require.NoError(t, err)

	_, err = s.db.Exec(`SELECT 1 FROM paged_items LIMIT 1`)
	require.NoError(t, err)
}
