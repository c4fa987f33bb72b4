package convert

import (
	"strings"

	"github.com/gmickel/gno/internal/gnoerr"
)

// passthroughExts are extensions already in Markdown or plain-text form;
// no conversion is needed beyond a title extraction pass.
var passthroughExts = map[string]struct{}{
	".md":       {},
	".markdown": {},
	".mdx":      {},
	".txt":      {},
	".rst":      {},
}

// PassthroughConverter handles sources that are already Markdown or
// plain text: it passes bytes through unchanged and extracts a title
// from the first ATX heading, if any.
type PassthroughConverter struct{}

func NewPassthroughConverter() *PassthroughConverter { return &PassthroughConverter{} }

func (p *PassthroughConverter) ID() string      { return "passthrough" }
func (p *PassthroughConverter) Version() string { return "1" }

func (p *PassthroughConverter) Accepts(mimeType, ext string) bool {
	if _, ok := passthroughExts[strings.ToLower(ext)]; ok {
		return true
	}
	return strings.HasPrefix(mimeType, "text/")
}

func (p *PassthroughConverter) Convert(in Input) (Result, *gnoerr.Error) {
	if in.MaxBytes > 0 && int64(len(in.Bytes)) > in.MaxBytes {
		return Result{}, gnoerr.New(gnoerr.CodeTooLarge, "source exceeds maxBytes", nil).
			WithDetail("relPath", in.RelativePath)
	}
	markdown := string(in.Bytes)
	return Result{
		Markdown:     markdown,
		Title:        extractTitle(markdown),
		ConverterID:  p.ID(),
		ConverterVer: p.Version(),
	}, nil
}

// extractTitle returns the text of the first ATX level-1 heading
// ("# Title"), or "" if none is found in the leading lines.
func extractTitle(markdown string) string {
	lines := strings.SplitN(markdown, "\n", 64)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		}
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			continue
		}
	}
	return ""
}
