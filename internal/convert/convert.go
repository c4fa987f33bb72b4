// Package convert defines the conversion pipeline port (spec.md section
// 4.4, mostly external): detecting a source file's MIME type and
// delegating to a Converter that produces Markdown. Format-specific
// converters (PDF, DOCX, ...) are out of scope; this package supplies
// the interface and a built-in passthrough converter for text sources
// that are already Markdown or plain text.
package convert

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gmickel/gno/internal/gnoerr"
)

// Result is the output of a successful conversion (spec.md section 4.1,
// Document fields mirrorHash/title/languageHint/converterId/converterVersion).
type Result struct {
	Markdown     string
	Title        string
	LanguageHint string
	ConverterID  string
	ConverterVer string
}

// Input bundles everything a converter needs to process one file.
type Input struct {
	SourcePath   string
	RelativePath string
	Collection   string
	Bytes        []byte
	Mime         string
	Ext          string
	MaxBytes     int64
}

// Converter turns raw source bytes into Markdown. Implementations for
// non-text formats (PDF, DOCX, HTML, ...) live outside this module; the
// sync service only depends on this interface (spec.md section 9:
// "ports as traits").
type Converter interface {
	// Accepts reports whether this converter handles the given MIME
	// type or extension.
	Accepts(mimeType, ext string) bool
	Convert(in Input) (Result, *gnoerr.Error)
	ID() string
	Version() string
}

// DetectMime sniffs a file's MIME type from its leading bytes, falling
// back to the extension registry when sniffing is inconclusive.
func DetectMime(path string, data []byte) string {
	if len(data) > 0 {
		sniffLen := len(data)
		if sniffLen > 512 {
			sniffLen = 512
		}
		sniffed := http.DetectContentType(data[:sniffLen])
		if !strings.HasPrefix(sniffed, "text/plain") && !strings.HasPrefix(sniffed, "application/octet-stream") {
			return stripParams(sniffed)
		}
	}
	if ext := filepath.Ext(path); ext != "" {
		if t := mime.TypeByExtension(ext); t != "" {
			return stripParams(t)
		}
	}
	return "text/plain"
}

func stripParams(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		return strings.TrimSpace(mimeType[:i])
	}
	return mimeType
}

// Registry dispatches Input to the first Converter that accepts its
// MIME type or extension, falling back to the passthrough converter.
type Registry struct {
	converters []Converter
	fallback   Converter
}

// NewRegistry builds a Registry with the built-in passthrough converter
// as the terminal fallback, plus any additional converters supplied by
// the caller (tried in order before the fallback).
func NewRegistry(extra ...Converter) *Registry {
	return &Registry{converters: extra, fallback: NewPassthroughConverter()}
}

// Convert finds a converter for in.Mime/in.Ext and invokes it.
func (r *Registry) Convert(in Input) (Result, *gnoerr.Error) {
	for _, c := range r.converters {
		if c.Accepts(in.Mime, in.Ext) {
			return c.Convert(in)
		}
	}
	if r.fallback.Accepts(in.Mime, in.Ext) {
		return r.fallback.Convert(in)
	}
	return Result{}, gnoerr.New(gnoerr.CodeInternal, "no converter accepts "+in.Mime+" ("+in.Ext+")", nil)
}
