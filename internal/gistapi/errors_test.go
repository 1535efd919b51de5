package gistapi

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

func TestClassifyStatus_MapsKnownCodes(t *testing.T) {
	assert.ErrorIs(t, classifyStatus(http.StatusUnauthorized), ErrTokenInvalid)
	assert.ErrorIs(t, classifyStatus(http.StatusForbidden), ErrInsufficientScope)
	assert.ErrorIs(t, classifyStatus(http.StatusNotFound), ErrNotFound)
	assert.ErrorIs(t, classifyStatus(http.StatusUnprocessableEntity), ErrBadRequest)
	assert.ErrorIs(t, classifyStatus(http.StatusInternalServerError), ErrServerError)
	assert.Nil(t, classifyStatus(http.StatusOK))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(http.StatusTooManyRequests))
	assert.True(t, isRetryable(http.StatusServiceUnavailable))
	assert.False(t, isRetryable(http.StatusNotFound))
	assert.False(t, isRetryable(http.StatusBadRequest))
}

func TestUpdateGistFiles_RejectsLongFilename(t *testing.T) {
	g := New(staticToken(""), nil)

	longName := strings.Repeat("a", 300)
	content := "x"
	err := g.UpdateGistFiles(context.Background(), "gist-id", []FileUpdate{{Name: longName, Content: &content}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestUpdateGistFiles_RejectsEmptyContent(t *testing.T) {
	g := New(staticToken(""), nil)

	empty := ""
	err := g.UpdateGistFiles(context.Background(), "gist-id", []FileUpdate{{Name: "f.json", Content: &empty}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestAuthedClient_NoToken(t *testing.T) {
	g := New(staticToken(""), nil)

	_, err := g.authedClient()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestGistAPIError_FormatsWithDetail(t *testing.T) {
	err := &GistAPIError{StatusCode: 404, Detail: "not here", Err: ErrNotFound}
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "not here")
	assert.ErrorIs(t, err, ErrNotFound)
}
