package filemanager

import (
	"crypto/sha256"
	"fmt"

	"github.com/gowebpki/jcs"
)

// HashBytes computes the SHA256 hash of a byte slice.
func HashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("sha256:%x", h)
}

// HashJSON hashes the RFC 8785 canonical form of a JSON document, so key
// order and whitespace do not change the digest.
func HashJSON(data []byte) (string, error) {
	canonical, err := jcs.Transform(data)
	if err != nil {
		return "", fmt.Errorf("canonicalizing json: %w", err)
	}
	return HashBytes(canonical), nil
}
