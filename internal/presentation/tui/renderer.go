package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/telelab/pkg/domain"
	"github.com/aretw0/telelab/pkg/truthtable"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// NewRenderer returns a function that renders markdown using glamour.
// Without a usable terminal style it falls back to the raw markdown.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// RenderSnapshot renders the truth table of a workflow followed by its status line.
func RenderSnapshot(render func(string) (string, error), snap domain.Snapshot) (string, error) {
	var sb strings.Builder
	sb.WriteString(truthtable.Render(snap.Experiment, snap.Rows))
	if snap.Misaligned != "" {
		fmt.Fprintf(&sb, "\n> ⚠️ %s\n", snap.Misaligned)
	}

	out, err := render(sb.String())
	if err != nil {
		return "", err
	}
	return out + StatusLine(snap.Status) + "\n", nil
}

// StatusLine colours the workflow status for the prompt.
func StatusLine(s domain.Status) string {
	p := termenv.ColorProfile()
	color := "#9ca3af"
	switch s {
	case domain.StatusConfigured:
		color = "#facc15"
	case domain.StatusPolling:
		color = "#34d399"
	}
	return termenv.String("● " + string(s)).Foreground(p.Color(color)).String()
}

// Notice formats a user-visible error notification.
func Notice(e *domain.NotifyEvent) string {
	p := termenv.ColorProfile()
	return termenv.String(fmt.Sprintf("✖ %s: %s", e.Operation, e.Message)).Foreground(p.Color("#f87171")).String()
}
