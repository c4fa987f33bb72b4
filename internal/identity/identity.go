// Package identity implements the document identifiers described in
// spec.md section 6: the content-derived docid and the gno:// URI, and
// their exact round-trip.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// DocIDLen is the number of hex characters taken from the source hash.
const DocIDLen = 8

// SourceHash returns the hex SHA-256 digest of raw file bytes, the
// "source hash" of spec.md section 3.
func SourceHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// DocID derives the docid "#" + first8(sourceHash) from a source hash.
func DocID(sourceHash string) string {
	n := DocIDLen
	if len(sourceHash) < n {
		n = len(sourceHash)
	}
	return "#" + sourceHash[:n]
}

// BuildURI builds the canonical gno://<collection>/<relPath> handle with
// percent-encoded path segments (slashes preserved).
func BuildURI(collection, relPath string) string {
	segs := strings.Split(relPath, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("gno://%s/%s", url.PathEscape(collection), strings.Join(segs, "/"))
}

// ParseURI inverts BuildURI. It returns ok=false if uri is not a
// well-formed gno:// handle.
func ParseURI(uri string) (collection, relPath string, ok bool) {
	const prefix = "gno://"
	if !strings.HasPrefix(uri, prefix) {
		return "", "", false
	}
	rest := uri[len(prefix):]
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return "", "", false
	}
	collRaw, pathRaw := rest[:slash], rest[slash+1:]
	coll, err := url.PathUnescape(collRaw)
	if err != nil {
		return "", "", false
	}
	segs := strings.Split(pathRaw, "/")
	for i, s := range segs {
		decoded, err := url.PathUnescape(s)
		if err != nil {
			return "", "", false
		}
		segs[i] = decoded
	}
	return coll, strings.Join(segs, "/"), true
}
