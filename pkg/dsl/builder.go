package dsl

import (
	"fmt"

	"github.com/aretw0/skphelp/internal/graph"
	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/aretw0/skphelp/pkg/ports"
)

// Tree is a built decision tree and its escalation contacts.
type Tree struct {
	Graph    ports.GraphStore
	Contacts []domain.Contact
}

// Builder manages the tree construction.
type Builder struct {
	root     string
	order    []string
	nodes    map[string]nodeBuilder
	contacts []domain.Contact
}

type nodeBuilder interface {
	build() domain.Node
}

// New creates a builder whose sessions start at root.
func New(root string) *Builder {
	return &Builder{
		root:  root,
		nodes: make(map[string]nodeBuilder),
	}
}

// Ask adds a question node. If id already names a question, its builder is
// returned so options can be appended.
func (b *Builder) Ask(id, text string) *QuestionBuilder {
	if qb, ok := b.nodes[id].(*QuestionBuilder); ok {
		qb.branch.Text = text
		return qb
	}
	qb := &QuestionBuilder{branch: domain.Branch{ID: id, Text: text}}
	b.put(id, qb)
	return qb
}

// Solve adds a terminal node carrying a solution.
func (b *Builder) Solve(id, text, solution string) *SolutionBuilder {
	sb := &SolutionBuilder{terminal: domain.Terminal{ID: id, Text: text, Solution: solution}}
	b.put(id, sb)
	return sb
}

// Contact adds an escalation contact.
func (b *Builder) Contact(contacts ...domain.Contact) *Builder {
	b.contacts = append(b.contacts, contacts...)
	return b
}

func (b *Builder) put(id string, nb nodeBuilder) {
	if _, ok := b.nodes[id]; !ok {
		b.order = append(b.order, id)
	}
	b.nodes[id] = nb
}

// Build validates the tree.
func (b *Builder) Build() (*Tree, error) {
	nodes := make([]domain.Node, 0, len(b.order))
	for _, id := range b.order {
		nodes = append(nodes, b.nodes[id].build())
	}

	g, err := graph.New(b.root, nodes...)
	if err != nil {
		return nil, fmt.Errorf("failed to build decision tree: %w", err)
	}
	return &Tree{Graph: g, Contacts: append([]domain.Contact(nil), b.contacts...)}, nil
}
