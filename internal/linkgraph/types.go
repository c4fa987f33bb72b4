// Package linkgraph scans converted Markdown for wiki-style and
// Markdown-style links, normalizes their targets, and resolves them
// against a document set.
package linkgraph

// Kind distinguishes the two link syntaxes this package understands.
type Kind string

const (
	KindWiki     Kind = "wiki"
	KindMarkdown Kind = "markdown"
)

// Link is one parsed reference, before resolution.
type Link struct {
	Kind             Kind
	StartLine        int // 1-indexed
	StartCol         int // 1-indexed, byte offset within the line
	TargetRef        string
	TargetRefNorm    string // normalized form used for matching
	TargetAnchor     string
	TargetCollection string // wiki links only; "" means same collection
	DisplayText      string // omitted (empty) when equal to the target as written (wiki: the whole ref incl. collection/anchor; Markdown: TargetRef)
}

// Range is a half-open byte range [Start, End) excluded from parsing:
// frontmatter, fenced code blocks, inline code spans, HTML comments.
type Range struct {
	Start, End int
}

// ResolvedLink pairs a parsed Link with the document it was found to
// point at, if resolution succeeded.
type ResolvedLink struct {
	Link
	TargetDocID string
	Resolved    bool
}
