package record

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Normalize case-folds content for matching and indexing. The text itself is
// otherwise preserved: numbers, punctuation, newlines all stay, because the
// sequential matcher scans the entire body.
func Normalize(s string) string {
	return strings.ToLower(s)
}

// NormalizeQuery case-folds a query and removes literal spaces, so a
// multi-word query becomes one contiguous character sequence ("grade 100"
// can match "Grade 100%").
func NormalizeQuery(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "")
}

// Fingerprint returns the hex SHA-256 digest of content, used for cheap
// equality checks and as the stored integrity check for each record.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
