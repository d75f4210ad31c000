package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/aretw0/skphelp/pkg/ports"
)

// Overlay carries session data to highlight on the rendered graph.
type Overlay struct {
	Visited []string
	Current string
}

// Mermaid renders the graph as a Mermaid flowchart.
// Shapes:
// - Root: ((Circle))
// - Branch: {Rhombus}
// - Terminal: [Rectangle]
// - Terminal with contact trigger: [[Subroutine]]
// Option labels become edge labels. Visited/current classes are applied when overlay is set.
func Mermaid(g ports.GraphStore, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range g.Nodes() {
		id := node.NodeID()
		safeID := sanitizeMermaidID(id)

		opener, closer := "[", "]"
		switch {
		case id == g.Root():
			opener, closer = "((", "))"
		case node.Kind() == domain.KindBranch:
			opener, closer = "{", "}"
		case domain.IsContactTrigger(node):
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, id, closer)

		for _, opt := range domain.OptionsOf(node) {
			label := strings.ReplaceAll(opt.Label, "\"", "'")
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, label, sanitizeMermaidID(opt.NextID))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on the light fills in both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Visited {
			if id == overlay.Current {
				continue
			}
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !seen[safeID] {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.Current))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
