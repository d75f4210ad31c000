package domain

// NodeKind tags the variant of a Node.
type NodeKind string

const (
	// KindBranch is a question with one or more options to choose from.
	KindBranch NodeKind = "branch"
	// KindTerminal ends the walk with a solution.
	KindTerminal NodeKind = "terminal"
)

// Node is a point in the decision graph.
// It is a closed variant: the only implementations are Branch and Terminal.
type Node interface {
	// NodeID returns the unique identifier of the node.
	NodeID() string
	// Prompt returns the text shown to the user when the node is active.
	Prompt() string
	// Kind reports which variant the node is.
	Kind() NodeKind

	sealed()
}

// Option is a labelled edge out of a Branch.
type Option struct {
	Label  string `json:"label" yaml:"label" mapstructure:"label"`
	NextID string `json:"next_id" yaml:"next_id" mapstructure:"next_id"`
}

// Branch is a non-terminal node. The user continues by picking one of its Options.
type Branch struct {
	ID      string
	Text    string
	Options []Option
}

// NodeID implements Node.
func (b Branch) NodeID() string { return b.ID }

// Prompt implements Node.
func (b Branch) Prompt() string { return b.Text }

// Kind implements Node.
func (b Branch) Kind() NodeKind { return KindBranch }

func (Branch) sealed() {}

// Allows reports whether nextID is one of the option targets.
func (b Branch) Allows(nextID string) bool {
	for _, opt := range b.Options {
		if opt.NextID == nextID {
			return true
		}
	}
	return false
}

// Terminal is a sink node carrying the solution text.
// ContactTrigger asks the host to suggest a human contact.
type Terminal struct {
	ID             string
	Text           string
	Solution       string
	ContactTrigger bool
}

// NodeID implements Node.
func (t Terminal) NodeID() string { return t.ID }

// Prompt implements Node.
func (t Terminal) Prompt() string { return t.Text }

// Kind implements Node.
func (t Terminal) Kind() NodeKind { return KindTerminal }

func (Terminal) sealed() {}

// OptionsOf returns the options of n, or nil when n is a Terminal.
func OptionsOf(n Node) []Option {
	if b, ok := n.(Branch); ok {
		return b.Options
	}
	return nil
}

// IsContactTrigger reports whether n is a Terminal that asks for human contact.
func IsContactTrigger(n Node) bool {
	t, ok := n.(Terminal)
	return ok && t.ContactTrigger
}
