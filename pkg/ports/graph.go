package ports

import "github.com/aretw0/skphelp/pkg/domain"

// GraphStore is the read-only view of the decision graph.
// The graph is fixed reference data: there are no mutation operations.
type GraphStore interface {
	// Lookup returns the node for id, or false when absent.
	Lookup(id string) (domain.Node, bool)

	// Root returns the id every session starts from.
	Root() string

	// Nodes returns every node ordered by id, for introspection tools.
	Nodes() []domain.Node
}
