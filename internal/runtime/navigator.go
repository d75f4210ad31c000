// Package runtime walks the decision graph one choice at a time.
package runtime

import (
	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/aretw0/skphelp/pkg/ports"
)

// Navigator holds the visited-path stack of a single troubleshooting session.
// It is not safe for concurrent use; callers serialise access per session
// (see session.Manager).
type Navigator struct {
	graph ports.GraphStore
	path  domain.Path
}

// NewNavigator starts a fresh walk at the graph root.
func NewNavigator(g ports.GraphStore) *Navigator {
	return &Navigator{graph: g, path: domain.Path{g.Root()}}
}

// Resume continues a walk from a previously persisted path.
// An empty path starts at the root. The path is not re-validated here: Current
// reports ErrUnknownNode if it points outside the graph.
func Resume(g ports.GraphStore, path domain.Path) *Navigator {
	if len(path) == 0 {
		return NewNavigator(g)
	}
	return &Navigator{graph: g, path: path.Clone()}
}

// Current returns the node at the top of the path.
func (n *Navigator) Current() (domain.Node, error) {
	id := n.path.Current()
	node, ok := n.graph.Lookup(id)
	if !ok {
		return nil, &domain.UnknownNodeError{ID: id}
	}
	return node, nil
}

// Advance moves to nextID, which must be an option of the current node.
// On error the path is left untouched.
func (n *Navigator) Advance(nextID string) error {
	current, err := n.Current()
	if err != nil {
		return err
	}

	branch, ok := current.(domain.Branch)
	if !ok || !branch.Allows(nextID) {
		return &domain.InvalidTransitionError{From: current.NodeID(), To: nextID}
	}
	if _, ok := n.graph.Lookup(nextID); !ok {
		return &domain.UnknownNodeError{ID: nextID}
	}

	n.path = append(n.path, nextID)
	return nil
}

// Back drops the current node unless the walk is already at its first element.
func (n *Navigator) Back() {
	if len(n.path) > 1 {
		n.path = n.path[:len(n.path)-1]
	}
}

// Reset truncates the walk to the root.
func (n *Navigator) Reset() {
	n.path = domain.Path{n.graph.Root()}
}

// Path returns a copy of the visited ids.
func (n *Navigator) Path() domain.Path {
	return n.path.Clone()
}

// Depth returns the number of visited nodes.
func (n *Navigator) Depth() int {
	return len(n.path)
}
