// Package config loads the collection configuration gno's sync pipeline
// walks: a YAML document with defaulted, validated fields
// (gopkg.in/yaml.v3).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Collection describes a logical root directory of source files and the
// filters the walker applies under it (spec.md section 3: Collection).
type Collection struct {
	Name          string   `yaml:"name" json:"name"`
	Root          string   `yaml:"root" json:"root"`
	GlobPattern   string   `yaml:"glob" json:"glob"`
	IncludeExts   []string `yaml:"include_exts" json:"include_exts"`
	ExcludeGlobs  []string `yaml:"exclude_globs" json:"exclude_globs"`
	UpdateCmd     string   `yaml:"update_cmd" json:"update_cmd"`
	LanguageHint  string   `yaml:"language_hint" json:"language_hint"`
	MaxBytes      int64    `yaml:"max_bytes" json:"max_bytes"`
}

// Document is the top-level collections.yaml document.
type Document struct {
	Collections []Collection `yaml:"collections" json:"collections"`
}

// DefaultMaxBytes is applied when a collection does not set MaxBytes.
const DefaultMaxBytes = 10 * 1024 * 1024

// DefaultGlobPattern matches everything; collections narrow via IncludeExts.
const DefaultGlobPattern = "**/*"

// Load reads and validates a collections document from path.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse validates and defaults a raw YAML document.
func Parse(raw []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	seen := make(map[string]struct{}, len(doc.Collections))
	for i := range doc.Collections {
		c := &doc.Collections[i]
		if c.Name == "" {
			return nil, fmt.Errorf("collection %d: name is required", i)
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("collection %q: duplicate name", c.Name)
		}
		seen[c.Name] = struct{}{}
		if c.Root == "" {
			return nil, fmt.Errorf("collection %q: root is required", c.Name)
		}
		if c.GlobPattern == "" {
			c.GlobPattern = DefaultGlobPattern
		}
		if c.MaxBytes <= 0 {
			c.MaxBytes = DefaultMaxBytes
		}
	}
	return &doc, nil
}
