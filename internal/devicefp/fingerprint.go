// Package devicefp derives a stable per-installation device fingerprint
// and uses it to obfuscate the locally-stored passphrase (spec.md §4.6).
// This is explicitly obfuscation, not encryption — the passphrase's actual
// security relies on the envelope's PBKDF2 + AES-GCM on the remote.
package devicefp

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Fingerprint returns a stable, process-independent string identifying
// this installation: the client analog of the browser-side UA + language
// + screen dimensions + timezone offset the spec describes. CLI builds
// have no UA or screen, so OS/arch/hostname/timezone stand in for the
// same purpose — a value stable across runs on one machine, different
// across machines.
func Fingerprint() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}

	_, tzOffset := time.Now().Zone()

	raw := fmt.Sprintf("%s|%s|%s|%d", runtime.GOOS, runtime.GOARCH, hostname, tzOffset)

	return norm.NFC.String(raw)
}
