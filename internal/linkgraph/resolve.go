package linkgraph

import (
	"path"
	"sort"
	"strings"
)

// DocCandidate is the minimal document projection link resolution
// needs. The store supplies these, scoped to the relevant collection(s).
type DocCandidate struct {
	DocID      string
	Collection string
	RelPath    string // normalized, POSIX slashes
	Title      string
}

// Resolve resolves a batch of links against candidates, which must
// already be restricted to the collections the links may target (the
// source collection, plus any explicit targetCollection). sourceRelDir
// is the source document's directory (POSIX slashes, "" for the
// collection root), used to resolve relative Markdown targets. Resolution
// never reorders links; it returns one ResolvedLink per input Link in
// the same order.
func Resolve(links []Link, sourceCollection, sourceRelDir string, candidates []DocCandidate) []ResolvedLink {
	out := make([]ResolvedLink, len(links))
	for i, l := range links {
		out[i] = resolveOne(l, sourceCollection, sourceRelDir, candidates)
	}
	return out
}

func resolveOne(l Link, sourceCollection, sourceRelDir string, candidates []DocCandidate) ResolvedLink {
	switch l.Kind {
	case KindMarkdown:
		return resolveMarkdown(l, sourceCollection, sourceRelDir, candidates)
	case KindWiki:
		return resolveWiki(l, sourceCollection, candidates)
	default:
		return ResolvedLink{Link: l}
	}
}

func resolveMarkdown(l Link, sourceCollection, sourceRelDir string, candidates []DocCandidate) ResolvedLink {
	collection := l.TargetCollection
	if collection == "" {
		collection = sourceCollection
	}
	norm, ok := NormalizeMarkdownPath(l.TargetRef, sourceRelDir)
	if !ok {
		return ResolvedLink{Link: l}
	}
	norm = path.Clean(norm)
	var matches []DocCandidate
	for _, c := range candidates {
		if c.Collection == collection && c.RelPath == norm {
			matches = append(matches, c)
		}
	}
	return pickMatch(l, matches)
}

func resolveWiki(l Link, sourceCollection string, candidates []DocCandidate) ResolvedLink {
	collection := l.TargetCollection
	if collection == "" {
		collection = sourceCollection
	}
	ref := l.TargetRefNorm
	hasExt := strings.Contains(path.Base(ref), ".")

	scoped := make([]DocCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Collection == collection {
			scoped = append(scoped, c)
		}
	}

	// (a) exact match on normalized relPath.
	if m := filterByRelPath(scoped, ref); len(m) > 0 {
		return pickMatch(l, m)
	}
	// (b) match with .md appended if the ref had no extension.
	if !hasExt {
		if m := filterByRelPath(scoped, ref+".md"); len(m) > 0 {
			return pickMatch(l, m)
		}
	}
	// (c) match by normalized title basename.
	if m := filterByTitleBasename(scoped, ref); len(m) > 0 {
		return pickMatch(l, m)
	}
	// (d) match by basename of relPath.
	if m := filterByRelPathBasename(scoped, ref); len(m) > 0 {
		return pickMatch(l, m)
	}
	return ResolvedLink{Link: l}
}

func filterByRelPath(candidates []DocCandidate, norm string) []DocCandidate {
	var out []DocCandidate
	for _, c := range candidates {
		if strings.ToLower(c.RelPath) == norm {
			out = append(out, c)
		}
	}
	return out
}

func filterByRelPathBasename(candidates []DocCandidate, norm string) []DocCandidate {
	var out []DocCandidate
	for _, c := range candidates {
		if strings.ToLower(path.Base(c.RelPath)) == norm {
			out = append(out, c)
		}
	}
	return out
}

func filterByTitleBasename(candidates []DocCandidate, norm string) []DocCandidate {
	var out []DocCandidate
	for _, c := range candidates {
		if NormalizeWikiRef(c.Title) == norm {
			out = append(out, c)
		}
	}
	return out
}

// pickMatch breaks ties deterministically by smallest document id.
func pickMatch(l Link, matches []DocCandidate) ResolvedLink {
	if len(matches) == 0 {
		return ResolvedLink{Link: l}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].DocID < matches[j].DocID })
	return ResolvedLink{Link: l, TargetDocID: matches[0].DocID, Resolved: true}
}
