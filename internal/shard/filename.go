package shard

import "encoding/base64"

const (
	shardManifestFilename = "shard-manifest.json"
	mediaFilenamePrefix   = "media_"
	mediaFilenameSuffix   = ".json"
)

// mediaFilename returns the per-blob filename for url within a shard
// Gist: media_{base64(url)}.json (spec.md file format table).
func mediaFilename(url string) string {
	return mediaFilenamePrefix + base64.RawURLEncoding.EncodeToString([]byte(url)) + mediaFilenameSuffix
}

// decodeMediaFilename recovers the original URL from a media_*.json
// filename, used during orphan repair when the file's own URL field is
// unavailable or untrusted.
func decodeMediaFilename(filename string) (string, bool) {
	if len(filename) <= len(mediaFilenamePrefix)+len(mediaFilenameSuffix) {
		return "", false
	}
	if filename[:len(mediaFilenamePrefix)] != mediaFilenamePrefix {
		return "", false
	}
	if filename[len(filename)-len(mediaFilenameSuffix):] != mediaFilenameSuffix {
		return "", false
	}

	encoded := filename[len(mediaFilenamePrefix) : len(filename)-len(mediaFilenameSuffix)]
	decoded, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}

	return string(decoded), true
}
