package utils

import (
	_ "crypto/sha256" // registers sha256 for go-digest
	"fmt"
	"os"
	"strings"

	"github.com/opencontainers/go-digest"
)

// FileDigest computes the sha256 digest of the file at path
func FileDigest(path string) (digest.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return digest.SHA256.FromReader(f)
}

// SHA256Digest converts a hex sha256 checksum as reported by the server to a
// digest. An empty or malformed checksum yields "".
func SHA256Digest(checksum string) digest.Digest {
	if checksum == "" {
		return ""
	}
	d := digest.NewDigestFromEncoded(digest.SHA256, strings.ToLower(checksum))
	if err := d.Validate(); err != nil {
		return ""
	}
	return d
}

// SHA256Matches reports whether the file at path has the given hex sha256.
// A missing file or an empty checksum never matches.
func SHA256Matches(path, checksum string) bool {
	expected := SHA256Digest(checksum)
	if expected == "" {
		return false
	}

	actual, err := FileDigest(path)
	if err != nil {
		return false
	}
	return actual == expected
}

// FormatBytes formats byte size in human-readable format
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	suffixes := []string{"KB", "MB", "GB", "TB", "PB", "EB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), suffixes[exp])
}

// MegabytesToBytes converts a quota expressed in MB to bytes
func MegabytesToBytes(mb int64) int64 {
	return mb * 1024 * 1024
}
