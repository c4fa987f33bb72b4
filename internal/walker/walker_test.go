package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string, size int) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, make([]byte, size), 0o644))
}

func TestWalkSortsLexicographically(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.md", 10)
	writeFile(t, root, "a.md", 10)
	writeFile(t, root, "sub/c.md", 10)

	res, err := Walk(Config{Root: root})
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)
	require.Equal(t, []string{"a.md", "b.md", "sub/c.md"}, []string{res.Entries[0].RelPath, res.Entries[1].RelPath, res.Entries[2].RelPath})
}

func TestWalkTooLarge(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.md", 50)
	writeFile(t, root, "big.md", 200)

	res, err := Walk(Config{Root: root, MaxBytes: 100})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	require.Equal(t, "small.md", res.Entries[0].RelPath)
	require.Len(t, res.Skipped, 1)
	require.Equal(t, ReasonTooLarge, res.Skipped[0].Reason)
	require.Equal(t, "big.md", res.Skipped[0].RelPath)
}

func TestWalkExcludesBySegmentAndPrefix(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.md", 10)
	writeFile(t, root, "node_modules/dep.md", 10)
	writeFile(t, root, "archive/old.md", 10)

	res, err := Walk(Config{Root: root, ExcludeGlobs: []string{"node_modules", "archive"}})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	require.Equal(t, "keep.md", res.Entries[0].RelPath)

	reasons := map[string]SkipReason{}
	for _, s := range res.Skipped {
		reasons[s.RelPath] = s.Reason
	}
	require.Equal(t, ReasonExcluded, reasons["node_modules/dep.md"])
	require.Equal(t, ReasonExcluded, reasons["archive/old.md"])
}

func TestWalkIncludeExtensionFallback(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "doc.md", 10)
	writeFile(t, root, "readme.txt", 10)
	writeFile(t, root, "binary.exe", 10)
	writeFile(t, root, "noext", 10)

	res, err := Walk(Config{Root: root})
	require.NoError(t, err)
	var names []string
	for _, e := range res.Entries {
		names = append(names, e.RelPath)
	}
	require.ElementsMatch(t, []string{"doc.md", "readme.txt"}, names)
}

func TestWalkExplicitIncludeExtsWithOrWithoutDot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", 10)
	writeFile(t, root, "b.py", 10)
	writeFile(t, root, "c.md", 10)

	res, err := Walk(Config{Root: root, IncludeExts: []string{"go", ".py"}})
	require.NoError(t, err)
	var names []string
	for _, e := range res.Entries {
		names = append(names, e.RelPath)
	}
	require.ElementsMatch(t, []string{"a.go", "b.py"}, names)
}

func TestWalkDoesNotFollowSymlinks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "real.md", 10)
	outside := t.TempDir()
	writeFile(t, outside, "outside.md", 10)

	require.NoError(t, os.Symlink(filepath.Join(outside, "outside.md"), filepath.Join(root, "link.md")))

	res, err := Walk(Config{Root: root})
	require.NoError(t, err)
	var names []string
	for _, e := range res.Entries {
		names = append(names, e.RelPath)
	}
	require.Equal(t, []string{"real.md"}, names)
}

func TestWalkGlobPattern(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/a.md", 10)
	writeFile(t, root, "docs/nested/b.md", 10)
	writeFile(t, root, "src/c.md", 10)

	res, err := Walk(Config{Root: root, GlobPattern: "docs/**"})
	require.NoError(t, err)
	var names []string
	for _, e := range res.Entries {
		names = append(names, e.RelPath)
	}
	require.ElementsMatch(t, []string{"docs/a.md", "docs/nested/b.md"}, names)
}
