package ux

import (
	"github.com/charmbracelet/glamour"
)

// RenderMarkdown pretty-prints markdown for terminal display. Falls back to
// the raw text when the renderer cannot be built, so display never blocks a
// run from finishing.
func RenderMarkdown(markdown string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
