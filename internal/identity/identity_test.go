package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocIDDerivation(t *testing.T) {
	h := SourceHash([]byte("# Hello World"))
	require.Len(t, h, 64)
	docid := DocID(h)
	assert.Equal(t, "#"+h[:8], docid)
	assert.Len(t, docid, 9)
}

func TestURIRoundTrip(t *testing.T) {
	cases := []struct{ collection, relPath string }{
		{"notes", "hello.md"},
		{"notes", "a/b/c.md"},
		{"my collection", "weird name/file name.md"},
		{"notes", "a#b/c?d.md"},
	}
	for _, c := range cases {
		uri := BuildURI(c.collection, c.relPath)
		gotColl, gotPath, ok := ParseURI(uri)
		require.True(t, ok, uri)
		assert.Equal(t, c.collection, gotColl)
		assert.Equal(t, c.relPath, gotPath)
	}
}

func TestParseURIRejectsMalformed(t *testing.T) {
	_, _, ok := ParseURI("not-a-uri")
	assert.False(t, ok)
	_, _, ok = ParseURI("gno://onlycollection")
	assert.False(t, ok)
}
