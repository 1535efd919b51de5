package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobCache_PutGetHasDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	has, err := s.HasBlob(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, s.PutBlob(ctx, "u1", []byte("bytes"), 1000))

	has, err = s.HasBlob(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, has)

	got, err := s.GetBlob(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []byte("bytes"), got)

	require.NoError(t, s.DeleteBlob(ctx, "u1"))
	_, err = s.GetBlob(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}
