package chunk

import "unicode"

// Chunk splits markdown into an ordered sequence of positionally-tracked
// chunks. It is a pure function: identical
// (text, params) always produces byte-identical output. Empty or
// whitespace-only input returns an empty (nil) slice.
//
// params may be nil to take the documented defaults. docLanguageHint,
// when non-empty, is attached to every chunk instead of running the
// language detector.
func Chunk(markdown string, params *Params, docLanguageHint string) []Chunk {
	if isBlank(markdown) {
		return nil
	}

	p := normalizeParams(params)
	maxChars := p.MaxTokens * CharsPerToken
	overlapChars := int(float64(maxChars) * p.OverlapPercent)
	window := int(float64(maxChars) * 0.1)

	idx := newLineIndex(markdown)
	n := len(markdown)

	var chunks []Chunk
	pos := 0
	seq := 0
	for pos < n {
		target := pos + maxChars
		var end int
		if target >= n {
			end = n
		} else {
			end = findBreak(markdown, pos, target, window, n)
		}
		text := markdown[pos:end]
		lang := docLanguageHint
		if lang == "" {
			lang = DetectLanguage(text)
		}
		chunks = append(chunks, Chunk{
			Seq:        seq,
			Pos:        pos,
			Text:       text,
			StartLine:  idx.lineAt(pos),
			EndLine:    lineEndOf(idx, pos, end),
			Language:   lang,
			TokenCount: estimateTokens(len(text)),
		})
		seq++

		next := end - overlapChars
		if next <= pos {
			next = pos + 1
		}
		pos = next
	}
	return chunks
}

// lineEndOf returns the line number of the chunk's last character. An
// empty slice (end == pos) still reports the line at pos.
func lineEndOf(idx *lineIndex, pos, end int) int {
	if end <= pos {
		return idx.lineAt(pos)
	}
	return idx.lineAt(end - 1)
}

// findBreak searches [target-window, target+window] (clipped to
// [pos+1, n]) for the best semantic break point, preferring in order:
// paragraph break, sentence terminator, single newline, space, else the
// raw target position.
func findBreak(text string, pos, target, window, n int) int {
	lo := target - window
	if lo < pos+1 {
		lo = pos + 1
	}
	hi := target + window
	if hi > n {
		hi = n
	}
	if lo > hi {
		lo, hi = pos+1, n
	}

	if at, ok := lastParagraphBreak(text, lo, hi); ok {
		return at
	}
	if at, ok := lastSentenceBreak(text, lo, hi); ok {
		return at
	}
	if at, ok := lastSingleNewline(text, lo, hi); ok {
		return at
	}
	if at, ok := lastSpace(text, lo, hi); ok {
		return at
	}
	if target < pos+1 {
		return pos + 1
	}
	if target > n {
		return n
	}
	return target
}

// lastParagraphBreak finds the last "\n\n" whose end falls within
// [lo, hi]; the break point is placed right after the blank line so the
// paragraph separator stays with the chunk that ends it.
func lastParagraphBreak(text string, lo, hi int) (int, bool) {
	for i := hi - 2; i >= lo-1 && i >= 0; i-- {
		if i+2 > len(text) {
			continue
		}
		if text[i] == '\n' && text[i+1] == '\n' {
			end := i + 2
			if end >= lo && end <= hi {
				return end, true
			}
		}
	}
	return 0, false
}

// lastSentenceBreak finds the last occurrence of a sentence terminator
// ('.', '!', '?') followed by whitespace and an uppercase letter, within
// [lo, hi). The break point is the start of the following sentence.
func lastSentenceBreak(text string, lo, hi int) (int, bool) {
	upper := hi
	if upper > len(text) {
		upper = len(text)
	}
	for i := upper - 1; i >= lo; i-- {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		j := i + 1
		for j < len(text) && isASCIISpace(text[j]) {
			j++
		}
		if j == i+1 || j >= len(text) {
			continue
		}
		r := rune(text[j])
		if unicode.IsUpper(r) && j >= lo && j <= hi {
			return j, true
		}
	}
	return 0, false
}

// lastSingleNewline finds the last '\n' within [lo, hi); the break point
// is right after the newline.
func lastSingleNewline(text string, lo, hi int) (int, bool) {
	upper := hi
	if upper > len(text) {
		upper = len(text)
	}
	for i := upper - 1; i >= lo; i-- {
		if i < len(text) && text[i] == '\n' {
			end := i + 1
			if end >= lo && end <= hi {
				return end, true
			}
		}
	}
	return 0, false
}

// lastSpace finds the last ' ' within [lo, hi); the break point is right
// after the space.
func lastSpace(text string, lo, hi int) (int, bool) {
	upper := hi
	if upper > len(text) {
		upper = len(text)
	}
	for i := upper - 1; i >= lo; i-- {
		if i < len(text) && text[i] == ' ' {
			end := i + 1
			if end >= lo && end <= hi {
				return end, true
			}
		}
	}
	return 0, false
}

func isASCIISpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func isBlank(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
