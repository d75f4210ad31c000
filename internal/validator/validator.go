// Package validator lints a decision tree beyond the structural checks done when it is loaded.
package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/skphelp/internal/graph"
	"github.com/aretw0/skphelp/pkg/domain"
)

// Report lists authoring problems that do not prevent the tree from being served.
type Report struct {
	Nodes    int
	Contacts int
	Warnings []string
}

// OK reports whether the tree has no warnings.
func (r Report) OK() bool {
	return len(r.Warnings) == 0
}

// Lint crawls the tree from its root and reports unreachable nodes, branches whose
// options repeat a label or target, contact triggers with no contacts to show and
// contacts that cannot be reached.
func Lint(doc *graph.Document) Report {
	g := doc.Graph
	r := Report{Nodes: g.Len(), Contacts: len(doc.Contacts)}
	warn := func(format string, args ...any) {
		r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
	}

	for _, id := range g.Unreachable() {
		warn("node '%s' is unreachable from '%s'", id, g.Root())
	}

	triggers := 0
	for _, node := range g.Nodes() {
		if domain.IsContactTrigger(node) {
			triggers++
		}
		labels := map[string]bool{}
		targets := map[string]bool{}
		for _, opt := range domain.OptionsOf(node) {
			label := strings.ToLower(strings.TrimSpace(opt.Label))
			if label == "" {
				warn("node '%s' has an option to '%s' without a label", node.NodeID(), opt.NextID)
			} else if labels[label] {
				warn("node '%s' repeats the option label %q", node.NodeID(), opt.Label)
			}
			if targets[opt.NextID] {
				warn("node '%s' has two options leading to '%s'", node.NodeID(), opt.NextID)
			}
			labels[label] = true
			targets[opt.NextID] = true
		}
	}

	if triggers > 0 && len(doc.Contacts) == 0 {
		warn("%d node(s) ask for human contact but the directory is empty", triggers)
	}
	for _, c := range doc.Contacts {
		if c.WhatsApp == "" && c.Email == "" {
			warn("contact '%s' has neither whatsapp nor email", c.ID)
		}
	}
	return r
}
