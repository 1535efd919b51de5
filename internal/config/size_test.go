package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSize_Empty(t *testing.T) {
	n, err := ParseSize("")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestParseSize_Zero(t *testing.T) {
	n, err := ParseSize("0")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestParseSize_RawBytes(t *testing.T) {
	n, err := ParseSize("1024")
	assert.NoError(t, err)
	assert.Equal(t, int64(1024), n)
}

func TestParseSize_SISuffixes(t *testing.T) {
	cases := map[string]int64{
		"1KB": 1000,
		"1MB": 1_000_000,
		"1GB": 1_000_000_000,
		"1TB": 1_000_000_000_000,
	}

	for input, want := range cases {
		n, err := ParseSize(input)
		assert.NoError(t, err, input)
		assert.Equal(t, want, n, input)
	}
}

func TestParseSize_IECSuffixes(t *testing.T) {
	cases := map[string]int64{
		"1KiB": 1024,
		"1MiB": 1024 * 1024,
		"1GiB": 1024 * 1024 * 1024,
	}

	for input, want := range cases {
		n, err := ParseSize(input)
		assert.NoError(t, err, input)
		assert.Equal(t, want, n, input)
	}
}

func TestParseSize_CaseInsensitive(t *testing.T) {
	n, err := ParseSize("50mb")
	assert.NoError(t, err)
	assert.Equal(t, int64(50_000_000), n)
}

func TestParseSize_FractionalValue(t *testing.T) {
	n, err := ParseSize("1.5MB")
	assert.NoError(t, err)
	assert.Equal(t, int64(1_500_000), n)
}

func TestParseSize_InvalidNumber(t *testing.T) {
	_, err := ParseSize("abcMB")
	assert.Error(t, err)
}

func TestParseSize_NegativeRawBytes(t *testing.T) {
	_, err := ParseSize("-5")
	assert.Error(t, err)
}
