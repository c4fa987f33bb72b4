package linkgraph

import (
	"net/url"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeWikiRef applies NFC + lowercase + trim
func NormalizeWikiRef(ref string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(ref)))
}

// NormalizeMarkdownPath decodes safe percent-escapes (but not %2F),
// resolves the target relative to the source document's directory, and
// rejects absolute paths, backslash paths, and any resolution that
// escapes the collection root. Returns ("", false) when rejected.
func NormalizeMarkdownPath(target, sourceRelDir string) (string, bool) {
	if strings.Contains(target, "\\") {
		return "", false
	}
	if path.IsAbs(target) {
		return "", false
	}
	decoded, ok := decodePreservingSlashEscape(target)
	if !ok {
		return "", false
	}

	joined := decoded
	if sourceRelDir != "" && sourceRelDir != "." {
		joined = path.Join(sourceRelDir, decoded)
	} else {
		joined = path.Clean(decoded)
	}
	joined = strings.TrimPrefix(joined, "./")

	if joined == ".." || strings.HasPrefix(joined, "../") {
		return "", false
	}
	if path.IsAbs(joined) {
		return "", false
	}
	return joined, true
}

// decodePreservingSlashEscape percent-decodes a path while leaving a
// literal "%2F"/"%2f" sequence untouched, since decoding it would
// introduce a path separator the author didn't write as one.
func decodePreservingSlashEscape(s string) (string, bool) {
	const sentinel = "\x00SLASH\x00"
	if strings.Contains(s, sentinel) {
		return "", false
	}
	protected := strings.ReplaceAll(s, "%2F", sentinel)
	protected = strings.ReplaceAll(protected, "%2f", sentinel)
	decoded, err := url.PathUnescape(protected)
	if err != nil {
		return "", false
	}
	return strings.ReplaceAll(decoded, sentinel, "%2F"), true
}
