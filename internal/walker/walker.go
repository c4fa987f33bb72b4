package walker

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Walk enumerates files under cfg.Root: glob
// matching, exclude-before-include filtering, a size ceiling, symlinks
// never followed, deterministic lexicographic order by RelPath.
func Walk(cfg Config) (Result, error) {
	root := cfg.Root
	glob := cfg.GlobPattern
	if glob == "" {
		glob = "**/*"
	}
	maxBytes := cfg.MaxBytes

	if err := statRoot(root); err != nil {
		return Result{}, err
	}

	var res Result
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == root {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		matched, _ := doublestar.Match(glob, relPath)
		if !matched {
			return nil
		}

		if matchesExclude(relPath, cfg.ExcludeGlobs) {
			res.Skipped = append(res.Skipped, Skipped{RelPath: relPath, Reason: ReasonExcluded})
			return nil
		}

		if !matchesInclude(relPath, cfg.IncludeExts) {
			res.Skipped = append(res.Skipped, Skipped{RelPath: relPath, Reason: ReasonExcluded})
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}

		if maxBytes > 0 && info.Size() > maxBytes {
			res.Skipped = append(res.Skipped, Skipped{RelPath: relPath, Reason: ReasonTooLarge})
			return nil
		}

		res.Entries = append(res.Entries, Entry{
			AbsPath: path,
			RelPath: relPath,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	sort.Slice(res.Entries, func(i, j int) bool { return res.Entries[i].RelPath < res.Entries[j].RelPath })
	sort.Slice(res.Skipped, func(i, j int) bool { return res.Skipped[i].RelPath < res.Skipped[j].RelPath })
	return res, nil
}

// matchesExclude implements the segment-or-prefix rule: a pattern
// matches when any path segment equals it verbatim, or the relative
// path is prefixed by "pattern/".
func matchesExclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	segments := strings.Split(relPath, "/")
	for _, pattern := range patterns {
		pattern = strings.Trim(pattern, "/")
		if pattern == "" {
			continue
		}
		for _, seg := range segments {
			if seg == pattern {
				return true
			}
		}
		if strings.HasPrefix(relPath, pattern+"/") {
			return true
		}
	}
	return false
}

// matchesInclude implements the extension-allowlist rule: empty list
// falls back to the built-in supported set; extensionless files never
// match the fallback; explicit entries may carry a leading dot or not.
func matchesInclude(relPath string, exts []string) bool {
	ext := filepath.Ext(relPath)
	if len(exts) == 0 {
		if ext == "" {
			return false
		}
		_, ok := defaultSupportedExts[strings.ToLower(ext)]
		return ok
	}
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// statRoot validates that root is a directory before walking begins,
// surfacing a clearer error than WalkDir's generic one on a bad path.
func statRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &fs.PathError{Op: "walk", Path: root, Err: fs.ErrInvalid}
	}
	return nil
}
