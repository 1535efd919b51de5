// Package tokenstore persists the GitHub API token used to authenticate
// against the Gist API: format validation, device-local AES-wrapped
// storage, and live validation against the remote (spec.md §4.6).
package tokenstore

import (
	"errors"
	"strings"
)

// ErrInvalidFormat is returned when a token does not match any of the
// accepted GitHub token shapes.
var ErrInvalidFormat = errors.New("tokenstore: invalid token format")

// recognizedPrefixes are the GitHub token type prefixes spec.md §6.4
// names: ghp_ (classic PAT), github_pat_ (fine-grained PAT), gho_ (OAuth
// app), ghu_ (user-to-server), ghs_ (server-to-server), ghr_ (refresh).
var recognizedPrefixes = []string{"ghp_", "github_pat_", "gho_", "ghu_", "ghs_", "ghr_"}

// ValidateFormat reports whether token matches one of the accepted
// prefixed shapes or the legacy 40-character hex format.
func ValidateFormat(token string) error {
	for _, prefix := range recognizedPrefixes {
		if strings.HasPrefix(token, prefix) {
			return nil
		}
	}

	if isLegacyHex(token) {
		return nil
	}

	return ErrInvalidFormat
}

func isLegacyHex(token string) bool {
	if len(token) != 40 {
		return false
	}

	for _, r := range token {
		isHex := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
		if !isHex {
			return false
		}
	}

	return true
}
