package devicefp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_StableAcrossCalls(t *testing.T) {
	a := Fingerprint()
	b := Fingerprint()
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a)
}

func TestObfuscate_RoundTrip(t *testing.T) {
	fp := Fingerprint()

	stored := Obfuscate("correct-horse-battery-staple", fp)
	assert.NotEqual(t, "correct-horse-battery-staple", stored)

	out, err := Deobfuscate(stored, fp)
	require.NoError(t, err)
	assert.Equal(t, "correct-horse-battery-staple", out)
}

func TestObfuscate_DifferentFingerprintsProduceDifferentOutput(t *testing.T) {
	a := Obfuscate("passphrase", "fingerprint-a")
	b := Obfuscate("passphrase", "fingerprint-b")
	assert.NotEqual(t, a, b)
}

func TestDeobfuscate_WrongFingerprintYieldsWrongPassphrase(t *testing.T) {
	stored := Obfuscate("passphrase", "fingerprint-a")

	out, err := Deobfuscate(stored, "fingerprint-b")
	require.NoError(t, err)
	assert.NotEqual(t, "passphrase", out)
}

func TestDeobfuscate_InvalidBase64(t *testing.T) {
	_, err := Deobfuscate("not-valid-base64!!!", "fp")
	assert.Error(t, err)
}

func TestObfuscate_EmptyPassphrase(t *testing.T) {
	fp := Fingerprint()
	stored := Obfuscate("", fp)

	out, err := Deobfuscate(stored, fp)
	require.NoError(t, err)
	assert.Empty(t, out)
}
