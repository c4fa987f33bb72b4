package linkgraph

import "strings"

// ExcludedRanges computes the byte ranges that link parsing must skip:
// a leading YAML frontmatter block, fenced code blocks, inline code
// spans, and HTML comments.
func ExcludedRanges(markdown string) []Range {
	var ranges []Range
	if r, ok := frontmatterRange(markdown); ok {
		ranges = append(ranges, r)
	}
	ranges = append(ranges, fencedCodeRanges(markdown)...)
	ranges = append(ranges, htmlCommentRanges(markdown)...)
	ranges = append(ranges, inlineCodeRanges(markdown, ranges)...)
	return ranges
}

// frontmatterRange matches a "---\n...\n---" block at the very start
// of the document.
func frontmatterRange(markdown string) (Range, bool) {
	if !strings.HasPrefix(markdown, "---\n") && markdown != "---" {
		return Range{}, false
	}
	end := strings.Index(markdown[4:], "\n---")
	if end < 0 {
		return Range{}, false
	}
	closeStart := 4 + end + 1 // index of the closing "---"
	closeEnd := closeStart + 3
	// Consume the rest of the closing delimiter's line.
	if nl := strings.IndexByte(markdown[closeEnd:], '\n'); nl >= 0 {
		closeEnd += nl + 1
	} else {
		closeEnd = len(markdown)
	}
	return Range{Start: 0, End: closeEnd}, true
}

// fencedCodeRanges matches ``` or ~~~ delimited blocks, including the
// fence lines themselves.
func fencedCodeRanges(markdown string) []Range {
	var ranges []Range
	lines := splitLinesKeepOffsets(markdown)
	var open bool
	var fence string
	var start int
	for _, l := range lines {
		trimmed := strings.TrimSpace(l.text)
		if !open {
			if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
				open = true
				fence = trimmed[:3]
				start = l.start
			}
			continue
		}
		if strings.HasPrefix(trimmed, fence) {
			ranges = append(ranges, Range{Start: start, End: l.end})
			open = false
		}
	}
	if open {
		ranges = append(ranges, Range{Start: start, End: len(markdown)})
	}
	return ranges
}

// htmlCommentRanges matches <!-- ... --> spans, including multi-line ones.
func htmlCommentRanges(markdown string) []Range {
	var ranges []Range
	pos := 0
	for {
		start := strings.Index(markdown[pos:], "<!--")
		if start < 0 {
			break
		}
		start += pos
		rel := strings.Index(markdown[start+4:], "-->")
		if rel < 0 {
			ranges = append(ranges, Range{Start: start, End: len(markdown)})
			break
		}
		end := start + 4 + rel + 3
		ranges = append(ranges, Range{Start: start, End: end})
		pos = end
	}
	return ranges
}

// inlineCodeRanges matches backtick spans (a run of one or more
// backticks closed by the same run) on a single line,
// skipping any byte offsets already covered by existing (fence/comment)
// ranges so a backtick inside a fenced block isn't double-counted.
func inlineCodeRanges(markdown string, existing []Range) []Range {
	var ranges []Range
	n := len(markdown)
	for i := 0; i < n; i++ {
		if markdown[i] != '`' || inRanges(i, existing) {
			continue
		}
		runLen := 0
		for i+runLen < n && markdown[i+runLen] == '`' {
			runLen++
		}
		fence := markdown[i : i+runLen]
		closeIdx := strings.Index(markdown[i+runLen:], fence)
		if closeIdx < 0 {
			i += runLen - 1
			continue
		}
		end := i + runLen + closeIdx + runLen
		if nl := strings.IndexByte(markdown[i:end], '\n'); nl >= 0 {
			// Inline code spans don't cross lines; treat the run as literal text.
			i += runLen - 1
			continue
		}
		ranges = append(ranges, Range{Start: i, End: end})
		i = end - 1
	}
	return ranges
}

func inRanges(pos int, ranges []Range) bool {
	for _, r := range ranges {
		if pos >= r.Start && pos < r.End {
			return true
		}
	}
	return false
}

// InExcluded reports whether byte offset pos falls inside any range.
func InExcluded(pos int, ranges []Range) bool {
	return inRanges(pos, ranges)
}

type lineSpan struct {
	text       string
	start, end int // end is exclusive, includes the trailing newline if present
}

func splitLinesKeepOffsets(s string) []lineSpan {
	var spans []lineSpan
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			spans = append(spans, lineSpan{text: s[start : i+1], start: start, end: i + 1})
			start = i + 1
		}
	}
	if start < len(s) {
		spans = append(spans, lineSpan{text: s[start:], start: start, end: len(s)})
	}
	return spans
}
