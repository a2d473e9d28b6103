// Package transcript renders a session's question/answer history as a
// markdown briefing document.
//
// The renderer is a pure consumer of ledger history: one subsection per
// entry in ledger order, the user's literal answer text untouched. It
// must tolerate whatever the ledger hands it — an empty history renders
// an explicit placeholder, entries with missing fields render what they
// have.
package transcript

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/dmcandrade/briefing/internal/session"
)

//go:embed briefing.md.tmpl
var briefingTemplate string

// Renderer turns a session history into a briefing document.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded briefing template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("briefing").Funcs(template.FuncMap{
		"ordinal": func(i int) int { return i + 1 },
	}).Parse(briefingTemplate)
	if err != nil {
		return nil, fmt.Errorf("transcript: parsing briefing template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render produces the markdown briefing for a session. Entries are
// rendered in the order given; the caller is responsible for handing
// them over in ledger order.
func (r *Renderer) Render(sessionID string, entries []session.Entry) (string, error) {
	data := struct {
		SessionID string
		Entries   []session.Entry
	}{
		SessionID: sessionID,
		Entries:   entries,
	}

	var b strings.Builder
	if err := r.tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("transcript: rendering briefing: %w", err)
	}
	return b.String(), nil
}
