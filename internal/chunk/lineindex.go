package chunk

import "sort"

// lineIndex maps a byte position to a 1-based line number in O(log n),
// built once per source by a single scan for newlines (spec.md
// section 4.1: "Build a line index once by scanning newlines").
type lineIndex struct {
	// newlineOffsets[i] is the byte offset of the i-th '\n' in the source.
	newlineOffsets []int
}

// newLineIndex scans text once, recording every newline offset.
func newLineIndex(text string) *lineIndex {
	idx := &lineIndex{}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			idx.newlineOffsets = append(idx.newlineOffsets, i)
		}
	}
	return idx
}

// lineAt returns the 1-based line number containing byte offset pos.
// It binary-searches the newline offsets: the line number is the count
// of newlines strictly before pos, plus one.
func (idx *lineIndex) lineAt(pos int) int {
	n := sort.Search(len(idx.newlineOffsets), func(i int) bool {
		return idx.newlineOffsets[i] >= pos
	})
	return n + 1
}
