package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/telelab/pkg/domain"
	"github.com/aretw0/telelab/pkg/workflow"
)

// Overlay contains live workflow data to highlight on the diagram.
type Overlay struct {
	Visited []domain.Status
	Current domain.Status
}

// GenerateMermaid produces a Mermaid flowchart of the workflow state machine.
// The initial status is drawn as a circle and the polling status as a subroutine.
// Overlay styles (visited/current) are applied when overlay is not nil.
func GenerateMermaid(transitions []workflow.Transition, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	seen := make(map[domain.Status]bool)
	declare := func(s domain.Status) {
		if seen[s] {
			return
		}
		seen[s] = true
		opener, closer := "[", "]"
		switch s {
		case domain.StatusUnconfigured:
			opener, closer = "((", "))"
		case domain.StatusPolling:
			opener, closer = "[[", "]]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", sanitizeMermaidID(s), opener, s, closer))
	}

	for _, t := range transitions {
		declare(t.From)
		declare(t.To)
	}
	for _, t := range transitions {
		label := strings.ReplaceAll(t.Operation, "\"", "'")
		sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", sanitizeMermaidID(t.From), label, sanitizeMermaidID(t.To)))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[domain.Status]bool)
		for _, s := range overlay.Visited {
			if !visited[s] && seen[s] {
				visited[s] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", sanitizeMermaidID(s)))
			}
		}
		if overlay.Current != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.Current)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(s domain.Status) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", " ", "_")
	return r.Replace(string(s))
}
