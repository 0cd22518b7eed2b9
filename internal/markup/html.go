package markup

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	renderer = goldmark.New(goldmark.WithRendererOptions(html.WithUnsafe()))
	policy   = bluemonday.UGCPolicy()
)

// FromMarkdown renders Markdown source as HTML. Inline and block HTML pass
// through untouched; run the result through Sanitize before storing it.
func FromMarkdown(source string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := renderer.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Sanitize strips scripts, event handlers and anything else outside the
// user-content policy, leaving formatting tags intact.
func Sanitize(fragment string) string {
	return policy.Sanitize(fragment)
}
