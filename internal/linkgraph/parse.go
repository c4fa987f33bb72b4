package linkgraph

import (
	"regexp"
	"sort"
	"strings"
)

// wikiLinkRe matches [[ref]] or [[ref|display]]. ref may carry a
// "collection:" prefix and a "#anchor" suffix.
var wikiLinkRe = regexp.MustCompile(`\[\[([^\[\]|]+)(?:\|([^\[\]]+))?\]\]`)

// markdownLinkRe matches [text](target), capturing the target verbatim
// so scheme/anchor handling can be done manually.
var markdownLinkRe = regexp.MustCompile(`(!)?\[([^\[\]]*)\]\(([^()]*)\)`)

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)

// Parse scans markdown for wiki and Markdown links, dropping any whose
// start falls inside excluded. Output is sorted by (StartLine, StartCol).
func Parse(markdown string, excluded []Range) []Link {
	idx := newPositionIndex(markdown)
	var links []Link

	for _, m := range wikiLinkRe.FindAllStringSubmatchIndex(markdown, -1) {
		start := m[0]
		if InExcluded(start, excluded) {
			continue
		}
		refRaw := markdown[m[2]:m[3]]
		var display string
		if m[4] >= 0 {
			display = strings.TrimSpace(markdown[m[4]:m[5]])
		}
		link := parseWikiRef(refRaw, display)
		line, col := idx.lineCol(start)
		link.StartLine, link.StartCol = line, col
		links = append(links, link)
	}

	for _, m := range markdownLinkRe.FindAllStringSubmatchIndex(markdown, -1) {
		start := m[0]
		if m[2] >= 0 {
			// leading "!" capture group matched: this is an image link.
			continue
		}
		if InExcluded(start, excluded) {
			continue
		}
		text := markdown[m[4]:m[5]]
		target := strings.TrimSpace(markdown[m[6]:m[7]])
		if target == "" || strings.HasPrefix(target, "#") || strings.HasPrefix(target, "//") {
			continue
		}
		if schemeRe.MatchString(target) {
			continue
		}
		path, anchor := splitAnchor(target)
		line, col := idx.lineCol(start)
		links = append(links, Link{
			Kind:         KindMarkdown,
			StartLine:    line,
			StartCol:     col,
			TargetRef:    path,
			TargetAnchor: anchor,
			DisplayText:  displayOrEmpty(text, path),
		})
	}

	sort.SliceStable(links, func(i, j int) bool {
		if links[i].StartLine != links[j].StartLine {
			return links[i].StartLine < links[j].StartLine
		}
		return links[i].StartCol < links[j].StartCol
	})
	return links
}

// parseWikiRef splits a raw wiki ref into collection:ref#anchor parts.
func parseWikiRef(raw, display string) Link {
	ref := raw
	var collection string
	if i := strings.IndexByte(ref, ':'); i > 0 && isCollectionPrefix(ref[:i]) {
		collection = strings.ToLower(ref[:i])
		ref = ref[i+1:]
	}
	var anchor string
	if i := strings.IndexByte(ref, '#'); i >= 0 {
		anchor = ref[i+1:]
		ref = ref[:i]
	}
	ref = strings.TrimSpace(ref)
	return Link{
		Kind:             KindWiki,
		TargetRef:        ref,
		TargetRefNorm:    NormalizeWikiRef(ref),
		TargetAnchor:     anchor,
		TargetCollection: collection,
		DisplayText:      displayOrEmpty(display, strings.TrimSpace(raw)),
	}
}

// isCollectionPrefix guards against treating a Windows drive letter or
// URL-like scheme as a collection prefix; collection names are expected
// to be short identifiers without spaces.
func isCollectionPrefix(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t") {
		return false
	}
	return true
}

func splitAnchor(target string) (path, anchor string) {
	if i := strings.IndexByte(target, '#'); i >= 0 {
		return target[:i], target[i+1:]
	}
	return target, ""
}

func displayOrEmpty(display, ref string) string {
	if display == "" || display == ref {
		return ""
	}
	return display
}

// positionIndex converts byte offsets to 1-indexed (line, column).
type positionIndex struct {
	newlineOffsets []int
}

func newPositionIndex(text string) *positionIndex {
	idx := &positionIndex{}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			idx.newlineOffsets = append(idx.newlineOffsets, i)
		}
	}
	return idx
}

func (idx *positionIndex) lineCol(pos int) (line, col int) {
	lo, hi := 0, len(idx.newlineOffsets)
	for lo < hi {
		mid := (lo + hi) / 2
		if idx.newlineOffsets[mid] < pos {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	lineStart := 0
	if lo > 0 {
		lineStart = idx.newlineOffsets[lo-1] + 1
	}
	return lo + 1, pos - lineStart + 1
}
