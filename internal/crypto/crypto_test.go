package crypto

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_EncryptDecryptRoundTrip(t *testing.T) {
	e := New()

	plaintext := []byte(`{"boards":[]}`)
	data, err := e.Encrypt(plaintext, "gist-123", false)
	require.NoError(t, err)

	out, err := e.Decrypt(data, "gist-123", "")
	require.NoError(t, err)
	assert.Equal(t, plaintext, out)
}

func TestEnvelope_CustomPasswordRoundTrip(t *testing.T) {
	e := New()

	plaintext := []byte(`{"boards":[]}`)
	data, err := e.Encrypt(plaintext, "s3cret", true)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.True(t, env.CustomPassword)

	out, err := e.Decrypt(data, "gist-123", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, plaintext, out)
}

func TestEnvelope_Decrypt_NeedsPassword(t *testing.T) {
	e := New()

	data, err := e.Encrypt([]byte("secret doc"), "my-password", true)
	require.NoError(t, err)

	_, err = e.Decrypt(data, "gist-123", "")
	assert.ErrorIs(t, err, ErrNeedsPassword)
}

func TestEnvelope_Decrypt_WrongPassword(t *testing.T) {
	e := New()

	data, err := e.Encrypt([]byte("secret doc"), "correct-password", true)
	require.NoError(t, err)

	_, err = e.Decrypt(data, "gist-123", "wrong-password")
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestEnvelope_Decrypt_WrongGistID(t *testing.T) {
	e := New()

	data, err := e.Encrypt([]byte("secret doc"), "gist-a", false)
	require.NoError(t, err)

	_, err = e.Decrypt(data, "gist-b", "")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestEnvelope_Decrypt_CorruptNotJSON(t *testing.T) {
	e := New()

	_, err := e.Decrypt([]byte("not json at all"), "gist-123", "")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestEnvelope_Decrypt_CorruptBadIV(t *testing.T) {
	e := New()

	_, err := e.Decrypt([]byte(`{"v":2,"encrypted":true,"iv":"!!!not-base64","data":"AAAA"}`), "gist-123", "")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestEnvelope_Decrypt_UnsupportedVersion(t *testing.T) {
	e := New()

	data, err := e.Encrypt([]byte("doc"), "gist-123", false)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	env.Version = 99

	bumped, err := json.Marshal(env)
	require.NoError(t, err)

	_, err = e.Decrypt(bumped, "gist-123", "")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecryptOrPassthrough_PlainContentUnchanged(t *testing.T) {
	e := New()

	plain := []byte(`{"legacy":true,"boards":[]}`)
	out, err := e.DecryptOrPassthrough(plain, "gist-123", "")
	require.NoError(t, err)
	assert.Equal(t, plain, out)
}

func TestDecryptOrPassthrough_EnvelopeStillDecrypts(t *testing.T) {
	e := New()

	plaintext := []byte(`{"boards":[]}`)
	data, err := e.Encrypt(plaintext, "gist-123", false)
	require.NoError(t, err)

	out, err := e.DecryptOrPassthrough(data, "gist-123", "")
	require.NoError(t, err)
	assert.Equal(t, plaintext, out)
}

func TestEnvelope_EachEncryptUsesFreshIV(t *testing.T) {
	e := New()

	a, err := e.Encrypt([]byte("same content"), "gist-123", false)
	require.NoError(t, err)

	b, err := e.Encrypt([]byte("same content"), "gist-123", false)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestKeyCache_DerivesOnceAndMemoizes(t *testing.T) {
	c := newKeyCache()

	k1 := c.derive("shared-secret")
	k2 := c.derive("shared-secret")
	assert.Equal(t, k1, k2)

	k3 := c.derive("different-secret")
	assert.NotEqual(t, k1, k3)
}

func TestIsEnvelope_RejectsMissingFields(t *testing.T) {
	_, ok := isEnvelope([]byte(`{"encrypted":true}`))
	assert.False(t, ok)
}

func TestIsEnvelope_RejectsPlainObject(t *testing.T) {
	_, ok := isEnvelope([]byte(`{"boards":[]}`))
	assert.False(t, ok)
}

func TestErrors_AreDistinctSentinels(t *testing.T) {
	assert.False(t, errors.Is(ErrNeedsPassword, ErrWrongPassword))
	assert.False(t, errors.Is(ErrWrongPassword, ErrCorrupt))
}
