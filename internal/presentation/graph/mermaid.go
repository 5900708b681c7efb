// Package graph renders the booking dialog as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/intake/pkg/dialog"
	"github.com/aretw0/intake/pkg/domain"
)

// Overlay highlights a session on the chart.
type Overlay struct {
	Answered []domain.Step
	Current  domain.Step
}

// GenerateMermaid produces Mermaid flowchart syntax for edges.
// Shapes follow the step kind:
// - Idle: ((Circle))
// - Collecting: [/Parallelogram/]
// - Committing: [[Subroutine]]
// - Terminal: ([Stadium])
func GenerateMermaid(edges []dialog.Edge, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	declared := map[domain.Step]bool{}
	declare := func(step domain.Step) {
		if declared[step] {
			return
		}
		declared[step] = true
		opener, closer := shape(step)
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(step), opener, step, closer)
	}

	for _, e := range edges {
		declare(e.From)
		declare(e.To)
	}
	for _, e := range edges {
		arrow := "-->"
		if e.To == domain.StepIdle {
			arrow = "-.->"
		}
		if e.Trigger != "" {
			label := strings.ReplaceAll(e.Trigger, "\"", "'")
			arrow = fmt.Sprintf("-- \"%s\" -->", label)
			if e.To == domain.StepIdle {
				arrow = fmt.Sprintf("-. \"%s\" .->", label)
			}
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(e.From), arrow, sanitizeMermaidID(e.To))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := map[string]bool{}
		for _, step := range overlay.Answered {
			id := sanitizeMermaidID(step)
			if id != "" && !seen[id] {
				seen[id] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", id)
			}
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.Current))
		}
	}

	return sb.String()
}

func shape(step domain.Step) (string, string) {
	switch {
	case step == domain.StepIdle:
		return "((", "))"
	case step == domain.StepCommitting:
		return "[[", "]]"
	case step == domain.StepTerminal:
		return "([", "])"
	case step.Collecting():
		return "[/", "/]"
	}
	return "[", "]"
}

func sanitizeMermaidID(step domain.Step) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", " ", "_").Replace(string(step))
}
