package feed

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/onnwee/mentorfeed/internal/ranking"
)

// fingerprintEntry fixes the canonical field order of a fingerprinted candidate.
type fingerprintEntry struct {
	Description *string `json:"description"`
	ID          string  `json:"id"`
}

// Fingerprint returns the SHA-256 hex digest of the candidates' ids and
// descriptions, independent of input order. The empty set hashes "[]".
func Fingerprint(candidates []ranking.Candidate) string {
	entries := make([]fingerprintEntry, len(candidates))
	for i, c := range candidates {
		entries[i] = fingerprintEntry{Description: c.Description, ID: c.ID}
	}
	slices.SortStableFunc(entries, func(a, b fingerprintEntry) int {
		return compareIDs(a.ID, b.ID)
	})

	// Marshalling strings and nil pointers cannot fail.
	payload, _ := json.Marshal(entries)

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// compareIDs orders integer ids numerically and before any non-integer id,
// which are ordered lexically.
func compareIDs(a, b string) int {
	ai, errA := strconv.ParseInt(a, 10, 64)
	bi, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(ai, bi)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return cmp.Compare(a, b)
}
