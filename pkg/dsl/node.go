package dsl

import "github.com/aretw0/skphelp/pkg/domain"

// QuestionBuilder configures a branch node.
type QuestionBuilder struct {
	branch domain.Branch
}

// Option adds a labelled answer leading to next.
func (q *QuestionBuilder) Option(label, next string) *QuestionBuilder {
	q.branch.Options = append(q.branch.Options, domain.Option{Label: label, NextID: next})
	return q
}

func (q *QuestionBuilder) build() domain.Node {
	b := q.branch
	b.Options = append([]domain.Option(nil), q.branch.Options...)
	return b
}

// SolutionBuilder configures a terminal node.
type SolutionBuilder struct {
	terminal domain.Terminal
}

// Escalate marks the solution as one that needs a human contact.
func (s *SolutionBuilder) Escalate() *SolutionBuilder {
	s.terminal.ContactTrigger = true
	return s
}

func (s *SolutionBuilder) build() domain.Node {
	return s.terminal
}
