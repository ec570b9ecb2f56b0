// Package render produces terminal output for FAQ entries.
package render

import (
	"fmt"

	"github.com/charmbracelet/glamour"

	"relayfaq/internal/document"
)

// Renderer renders markdown for the terminal, falling back to plain text
// when styled rendering is unavailable (no TTY, broken TERM, etc).
type Renderer struct {
	tr   *glamour.TermRenderer
	wrap int
}

// New creates a renderer wrapping at the given width. A width of 0 uses
// the default of 100 columns.
func New(wrap int) *Renderer {
	if wrap <= 0 {
		wrap = 100
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		tr = nil
	}
	return &Renderer{tr: tr, wrap: wrap}
}

// Entry renders a single FAQ entry, heading included.
func (r *Renderer) Entry(doc *document.Document, e *document.Entry) string {
	return r.Markdown(string(doc.Raw(e)))
}

// Markdown renders arbitrary markdown, returning the input unchanged when
// styled rendering fails.
func (r *Renderer) Markdown(md string) string {
	if r.tr == nil {
		return md
	}
	out, err := r.tr.Render(md)
	if err != nil {
		return md
	}
	return out
}

// Summary formats a one-line listing for an entry.
func Summary(position int, title string, snippets, links int) string {
	return fmt.Sprintf("%2d. %s  [%d snippets, %d links]", position+1, title, snippets, links)
}
