package services

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint derives the dedup key for a feed entry from its title and
// canonical link. The digest is the idempotency key for the whole pipeline:
// two fetches of the same logical item collide here and the second insert is
// rejected by the store's unique constraint.
func Fingerprint(title, url string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(title + url)))
	return hex.EncodeToString(sum[:])
}
