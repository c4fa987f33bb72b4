package modelcache

import (
	"path"
	"strings"

	"github.com/gmickel/gno/internal/gnoerr"
)

// ParseURI recognizes the model URI grammar of spec.md section 4.4 and
// returns a structured URI, or INVALID_URI for anything else (unknown
// schemes, malformed hf: refs, relative paths).
func ParseURI(raw string) (URI, *gnoerr.Error) {
	trimmed := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(trimmed, "hf:"):
		return parseHuggingFace(trimmed)
	case strings.HasPrefix(trimmed, "file://"):
		return URI{Scheme: SchemeFile, Raw: trimmed, Path: filePathFromURL(trimmed[len("file://"):])}, nil
	case strings.HasPrefix(trimmed, "file:"):
		return URI{Scheme: SchemeFile, Raw: trimmed, Path: trimmed[len("file:"):]}, nil
	case strings.HasPrefix(trimmed, "http://"), strings.HasPrefix(trimmed, "https://"):
		return parseHTTP(trimmed)
	case isNativeAbsolutePath(trimmed):
		return URI{Scheme: SchemeFile, Raw: trimmed, Path: trimmed}, nil
	default:
		return URI{}, gnoerr.New(gnoerr.CodeInvalidURI, "unrecognized model URI: "+raw, nil)
	}
}

// parseHuggingFace handles "hf:org/repo/file.ext" and "hf:org/repo:QUANT".
func parseHuggingFace(trimmed string) (URI, *gnoerr.Error) {
	body := strings.TrimPrefix(trimmed, "hf:")
	if body == "" {
		return URI{}, gnoerr.New(gnoerr.CodeInvalidURI, "empty hf: reference", nil)
	}

	// Quant shorthand: org/repo:QUANT — colon after the repo segment.
	if idx := strings.LastIndex(body, ":"); idx >= 0 && !strings.Contains(body[idx+1:], "/") {
		orgRepo := body[:idx]
		quant := body[idx+1:]
		parts := strings.SplitN(orgRepo, "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" || quant == "" {
			return URI{}, gnoerr.New(gnoerr.CodeInvalidURI, "malformed hf: quant reference: "+trimmed, nil)
		}
		return URI{Scheme: SchemeHuggingFace, Raw: trimmed, Org: parts[0], Repo: parts[1], Quant: quant}, nil
	}

	// Explicit file form: org/repo/file.ext — the file segment must
	// carry an extension (spec.md boundary case: "hf:org/repo/noextension"
	// is rejected).
	parts := strings.SplitN(body, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return URI{}, gnoerr.New(gnoerr.CodeInvalidURI, "malformed hf: reference: "+trimmed, nil)
	}
	if path.Ext(parts[2]) == "" {
		return URI{}, gnoerr.New(gnoerr.CodeInvalidURI, "hf: file reference has no extension: "+trimmed, nil)
	}
	return URI{Scheme: SchemeHuggingFace, Raw: trimmed, Org: parts[0], Repo: parts[1], File: parts[2]}, nil
}

// parseHTTP handles "http(s)://host/path[#modelName]", routed past the
// cache straight to an OpenAI-compatible endpoint.
func parseHTTP(trimmed string) (URI, *gnoerr.Error) {
	rest := trimmed
	scheme := "http://"
	if strings.HasPrefix(rest, "https://") {
		scheme = "https://"
	}
	rest = strings.TrimPrefix(rest, scheme)

	var modelName string
	if h := strings.IndexByte(rest, '#'); h >= 0 {
		modelName = rest[h+1:]
		rest = rest[:h]
	}
	slash := strings.IndexByte(rest, '/')
	host, urlPath := rest, ""
	if slash >= 0 {
		host, urlPath = rest[:slash], rest[slash:]
	}
	if host == "" {
		return URI{}, gnoerr.New(gnoerr.CodeInvalidURI, "missing host in "+trimmed, nil)
	}
	return URI{
		Scheme:    SchemeHTTP,
		Raw:       trimmed,
		Host:      scheme + host,
		URLPath:   urlPath,
		ModelName: modelName,
	}, nil
}

// isNativeAbsolutePath recognizes POSIX absolute paths, Windows drive
// paths ("C:\..."), and UNC paths ("\\host\share\...").
func isNativeAbsolutePath(s string) bool {
	if strings.HasPrefix(s, "/") {
		return true
	}
	if strings.HasPrefix(s, `\\`) {
		return true
	}
	if len(s) >= 3 && s[1] == ':' && (s[2] == '\\' || s[2] == '/') {
		c := s[0]
		return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
	}
	return false
}

// filePathFromURL converts the path part of an authority-less file://
// URL: POSIX paths are returned as-is (leading "/" kept), while the
// leading "/" of a Windows drive form is stripped ("file:///C:/x" gives
// "C:/x").
func filePathFromURL(rest string) string {
	if len(rest) >= 3 && rest[0] == '/' && rest[2] == ':' {
		return rest[1:]
	}
	return rest
}
