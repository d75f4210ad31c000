package graph

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/skphelp/pkg/domain"
)

// ErrInvalidGraph is returned when graph data fails structural validation.
var ErrInvalidGraph = errors.New("invalid graph")

// ValidationError lists every structural problem found while building a Graph.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("found %d errors:\n- %s", len(e.Problems), strings.Join(e.Problems, "\n- "))
}

// Is lets errors.Is match ErrInvalidGraph.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidGraph
}

// Graph is an explicit, validated decision graph keyed by node id.
// It is immutable once built and safe for concurrent reads.
type Graph struct {
	root  string
	nodes map[string]domain.Node
	ids   []string
}

// New builds a Graph and checks it: the root exists, ids are unique and non-empty,
// every branch has at least one option, every option target exists and every
// terminal carries a solution.
func New(root string, nodes ...domain.Node) (*Graph, error) {
	g := &Graph{
		root:  root,
		nodes: make(map[string]domain.Node, len(nodes)),
		ids:   make([]string, 0, len(nodes)),
	}

	var problems []string
	for i, n := range nodes {
		if n == nil {
			problems = append(problems, fmt.Sprintf("node #%d is nil", i))
			continue
		}
		id := n.NodeID()
		if id == "" {
			problems = append(problems, fmt.Sprintf("node #%d has an empty id", i))
			continue
		}
		if _, dup := g.nodes[id]; dup {
			problems = append(problems, fmt.Sprintf("duplicate node id '%s'", id))
			continue
		}
		g.nodes[id] = n
		g.ids = append(g.ids, id)
	}
	slices.Sort(g.ids)

	if root == "" {
		problems = append(problems, "root id is empty")
	} else if _, ok := g.nodes[root]; !ok {
		problems = append(problems, fmt.Sprintf("root node '%s' not found", root))
	}

	for _, id := range g.ids {
		switch n := g.nodes[id].(type) {
		case domain.Branch:
			if len(n.Options) == 0 {
				problems = append(problems, fmt.Sprintf("branch '%s' has no options", id))
			}
			for _, opt := range n.Options {
				if _, ok := g.nodes[opt.NextID]; !ok {
					problems = append(problems, fmt.Sprintf("dangling option '%s' -> '%s'", id, opt.NextID))
				}
			}
		case domain.Terminal:
			if strings.TrimSpace(n.Solution) == "" {
				problems = append(problems, fmt.Sprintf("terminal '%s' has no solution", id))
			}
		}
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return g, nil
}

// Lookup returns the node for id.
func (g *Graph) Lookup(id string) (domain.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Root returns the id of the entry node.
func (g *Graph) Root() string { return g.root }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Nodes returns every node ordered by id.
func (g *Graph) Nodes() []domain.Node {
	out := make([]domain.Node, 0, len(g.ids))
	for _, id := range g.ids {
		out = append(out, g.nodes[id])
	}
	return out
}

// Unreachable returns the ids, sorted, that cannot be reached from the root.
// Unreachable nodes are allowed but usually point at an authoring mistake.
func (g *Graph) Unreachable() []string {
	visited := map[string]bool{g.root: true}
	queue := []string{g.root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, opt := range domain.OptionsOf(g.nodes[id]) {
			if !visited[opt.NextID] {
				visited[opt.NextID] = true
				queue = append(queue, opt.NextID)
			}
		}
	}

	var out []string
	for _, id := range g.ids {
		if !visited[id] {
			out = append(out, id)
		}
	}
	return out
}
