package syncsvc

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gmickel/gno/internal/linkgraph"
	"github.com/gmickel/gno/internal/store"
)

// hashtagRe matches a body hashtag: '#' followed by a word character,
// never a space, so ATX headings ("# Title") never match.
var hashtagRe = regexp.MustCompile(`#[\p{L}\p{N}_][\p{L}\p{N}_/.-]*`)

// frontmatterDoc is the subset of YAML frontmatter syncsvc understands.
// Tags may be authored as a list or as a single comma-separated string.
type frontmatterDoc struct {
	Tags any `yaml:"tags"`
}

// extractTags derives the full tag set for one document's converted
// Markdown: frontmatter "tags" plus body hashtags outside code, inline
// code, HTML comments, and the frontmatter block itself (spec.md
// section 4.3, "extract frontmatter tags + body hashtags").
func extractTags(markdown string) []store.Tag {
	var tags []store.Tag
	seen := make(map[string]struct{})
	add := func(raw string, source store.TagSource) {
		norm := store.NormalizeTag(raw)
		if norm == "" {
			return
		}
		key := string(source) + "\x00" + norm
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		tags = append(tags, store.Tag{Tag: norm, Source: source})
	}

	for _, raw := range parseFrontmatterTags(markdown) {
		add(raw, store.TagSourceFrontmatter)
	}

	excluded := linkgraph.ExcludedRanges(markdown)
	for _, m := range hashtagRe.FindAllStringIndex(markdown, -1) {
		if linkgraph.InExcluded(m[0], excluded) {
			continue
		}
		add(strings.TrimPrefix(markdown[m[0]:m[1]], "#"), store.TagSourceBody)
	}

	return tags
}

// parseFrontmatterTags extracts the raw tag strings from a document's
// leading YAML frontmatter block, if any.
func parseFrontmatterTags(markdown string) []string {
	block, ok := splitFrontmatter(markdown)
	if !ok {
		return nil
	}
	var fm frontmatterDoc
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return nil
	}
	switch v := fm.Tags.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				out = append(out, t)
			}
		}
		return out
	default:
		return nil
	}
}

// splitFrontmatter returns the YAML body of a leading "---\n...\n---"
// block, if markdown starts with one.
func splitFrontmatter(markdown string) (string, bool) {
	if !strings.HasPrefix(markdown, "---\n") {
		return "", false
	}
	rest := markdown[4:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}
