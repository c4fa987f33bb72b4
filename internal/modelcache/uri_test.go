package modelcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmickel/gno/internal/gnoerr"
)

func TestParseURIHuggingFaceExplicitFile(t *testing.T) {
	u, err := ParseURI("hf:org/repo/file.gguf")
	require.Nil(t, err)
	assert.Equal(t, SchemeHuggingFace, u.Scheme)
	assert.Equal(t, "org", u.Org)
	assert.Equal(t, "repo", u.Repo)
	assert.Equal(t, "file.gguf", u.File)
}

func TestParseURIHuggingFaceQuantShorthand(t *testing.T) {
	u, err := ParseURI("hf:org/repo:Q4_K_M")
	require.Nil(t, err)
	assert.Equal(t, SchemeHuggingFace, u.Scheme)
	assert.Equal(t, "Q4_K_M", u.Quant)
	assert.Empty(t, u.File)
}

func TestParseURIRejectsInvalidHF(t *testing.T) {
	for _, raw := range []string{"hf:invalid", "hf:org/repo/noextension", "hf:"} {
		_, err := ParseURI(raw)
		require.NotNil(t, err, raw)
		assert.Equal(t, gnoerr.CodeInvalidURI, err.Code)
	}
}

func TestParseURIFileSchemes(t *testing.T) {
	u, err := ParseURI("file:///abs/path/model.gguf")
	require.Nil(t, err)
	assert.Equal(t, SchemeFile, u.Scheme)
	assert.Equal(t, "/abs/path/model.gguf", u.Path)

	u2, err := ParseURI("/abs/path/model.gguf")
	require.Nil(t, err)
	assert.Equal(t, SchemeFile, u2.Scheme)
}

func TestParseURIRejectsUnknownScheme(t *testing.T) {
	_, err := ParseURI("s3://bucket/key")
	require.NotNil(t, err)
	assert.Equal(t, gnoerr.CodeInvalidURI, err.Code)
}

func TestParseURIRejectsRelativePath(t *testing.T) {
	_, err := ParseURI("relative/path/model.gguf")
	require.NotNil(t, err)
}

func TestParseURIHTTPWithModelFragment(t *testing.T) {
	u, err := ParseURI("https://api.example.com/v1#my-model")
	require.Nil(t, err)
	assert.Equal(t, SchemeHTTP, u.Scheme)
	assert.Equal(t, "my-model", u.ModelName)
	assert.Equal(t, "/v1", u.URLPath)
}
