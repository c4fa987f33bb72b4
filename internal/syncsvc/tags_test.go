package syncsvc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gmickel/gno/internal/store"
)

func tagNames(tags []store.Tag, source store.TagSource) []string {
	var out []string
	for _, t := range tags {
		if t.Source == source {
			out = append(out, t.Tag)
		}
	}
	return out
}

func TestExtractTagsFrontmatterList(t *testing.T) {
	md := "---\ntags: [Important, Work]\n---\n\n# Title\n"
	tags := extractTags(md)
	assert.ElementsMatch(t, []string{"important", "work"}, tagNames(tags, store.TagSourceFrontmatter))
}

func TestExtractTagsBodyHashtag(t *testing.T) {
	md := "# Title\n\nThis is #work related.\n"
	tags := extractTags(md)
	assert.ElementsMatch(t, []string{"work"}, tagNames(tags, store.TagSourceBody))
}

func TestExtractTagsIgnoresHeadingHashes(t *testing.T) {
	md := "# Title\n\n## Subheading\n\nNo tags here.\n"
	tags := extractTags(md)
	assert.Empty(t, tagNames(tags, store.TagSourceBody))
}

func TestExtractTagsIgnoresHashtagsInCodeAndComments(t *testing.T) {
	md := "# Title\n\n```\n#not-a-tag\n```\n\n<!-- #also-not-a-tag -->\n\nReal #tag here.\n"
	tags := extractTags(md)
	assert.ElementsMatch(t, []string{"tag"}, tagNames(tags, store.TagSourceBody))
}

func TestExtractTagsCombinedFrontmatterAndBody(t *testing.T) {
	md := "---\ntags: important\n---\n\nThis is #work related.\n"
	tags := extractTags(md)
	var all []string
	for _, tg := range tags {
		all = append(all, tg.Tag)
	}
	assert.ElementsMatch(t, []string{"important", "work"}, all)
}
