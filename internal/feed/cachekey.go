package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/onnwee/mentorfeed/internal/candidate"
)

// DefaultCacheKeyPrefix namespaces feed entries in a shared cache.
const DefaultCacheKeyPrefix = "feed"

// cacheKeyVersion changes whenever the cached Response layout changes.
const cacheKeyVersion = "v1"

// CacheKeyParts are the inputs a cached page depends on.
type CacheKeyParts struct {
	Audience          candidate.Kind
	ViewerDescription string
	Fingerprint       string
	Filtered          bool

	// FilterScope is the canonical filter text, empty when unfiltered.
	FilterScope string

	Page int
	Size int
}

// CacheKey builds the cache key for a ranked page:
//
//	<prefix>:v1:<audience>:<sha256 description>:<fingerprint>:<filtered>:<sha256 scope>:<page>:<size>
//
// Free text enters the key only as a digest.
func CacheKey(prefix string, p CacheKeyParts) string {
	if prefix == "" {
		prefix = DefaultCacheKeyPrefix
	}
	return strings.Join([]string{
		prefix,
		cacheKeyVersion,
		string(p.Audience),
		digest(p.ViewerDescription),
		p.Fingerprint,
		strconv.FormatBool(p.Filtered),
		digest(p.FilterScope),
		strconv.Itoa(p.Page),
		strconv.Itoa(p.Size),
	}, ":")
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
