package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkEmptyInput(t *testing.T) {
	assert.Nil(t, Chunk("", nil, ""))
	assert.Nil(t, Chunk("   \n\t  ", nil, ""))
}

func TestChunkDeterministic(t *testing.T) {
	text := strings.Repeat("Word ", 2000)
	a := Chunk(text, &Params{MaxTokens: 800, OverlapPercent: 0.15}, "")
	b := Chunk(text, &Params{MaxTokens: 800, OverlapPercent: 0.15}, "")
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i], b[i])
	}
}

func TestChunkPositionalFidelity(t *testing.T) {
	text := "# Hello\n\nThis is a paragraph with some words in it.\n\nAnother paragraph follows here with more text to chunk."
	idx := newLineIndex(text)
	chunks := Chunk(text, &Params{MaxTokens: 20, OverlapPercent: 0.1}, "")
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.Equal(t, text[c.Pos:c.Pos+len(c.Text)], c.Text)
		assert.Equal(t, idx.lineAt(c.Pos), c.StartLine)
		assert.Equal(t, idx.lineAt(c.Pos+len(c.Text)-1), c.EndLine)
	}
}

func TestChunkProgress(t *testing.T) {
	text := strings.Repeat("Word ", 2000)
	chunks := Chunk(text, &Params{MaxTokens: 800, OverlapPercent: 0.15}, "")
	require.GreaterOrEqual(t, len(chunks), 3)
	for i := 1; i < len(chunks); i++ {
		assert.Greater(t, chunks[i].Pos, chunks[i-1].Pos)
		assert.Less(t, chunks[i].Pos, chunks[i-1].Pos+len(chunks[i-1].Text))
	}
}

func TestChunkSingleLineDocument(t *testing.T) {
	chunks := Chunk("# Hello World", nil, "")
	require.Len(t, chunks, 1)
	c := chunks[0]
	assert.Equal(t, 0, c.Seq)
	assert.Equal(t, 0, c.Pos)
	assert.Equal(t, "# Hello World", c.Text)
	assert.Equal(t, 1, c.StartLine)
	assert.Equal(t, 1, c.EndLine)
}

func TestChunkClampsMaxTokens(t *testing.T) {
	text := strings.Repeat("a", 1000)
	chunks := Chunk(text, &Params{MaxTokens: 1, OverlapPercent: 0}, "")
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), MinTokens*CharsPerToken+1)
	}
}

func TestChunkPreservesIndentedCodeBlocks(t *testing.T) {
	text := "# Title\n\n    indented code line\n    another line\n\nnormal text"
	chunks := Chunk(text, &Params{MaxTokens: 800, OverlapPercent: 0}, "")
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Text, "    indented code line")
}

func TestChunkLanguageHintOverridesDetector(t *testing.T) {
	chunks := Chunk(strings.Repeat("word ", 20), nil, "fr")
	require.NotEmpty(t, chunks)
	assert.Equal(t, "fr", chunks[0].Language)
}

func TestChunkDocLanguageDetection(t *testing.T) {
	text := strings.Repeat("the quick brown fox and the dog are running ", 5)
	chunks := Chunk(text, nil, "")
	require.NotEmpty(t, chunks)
	assert.Equal(t, "en", chunks[0].Language)
}
