package troubleshoot

import (
	"time"

	"github.com/aretw0/skphelp/pkg/domain"
)

// progressSteps is the depth at which the progress bar reads 100%.
const progressSteps = 5

// NodeView is the serialisable form of a domain.Node.
type NodeView struct {
	ID             string          `json:"id"`
	Kind           domain.NodeKind `json:"kind"`
	Text           string          `json:"text"`
	Options        []domain.Option `json:"options,omitempty"`
	Solution       string          `json:"solution,omitempty"`
	ContactTrigger bool            `json:"contact_trigger,omitempty"`
}

// View is what a client needs to render one step of a session.
type View struct {
	SessionID string           `json:"session_id"`
	Path      domain.Path      `json:"path"`
	Node      NodeView         `json:"node"`
	Contacts  []domain.Contact `json:"contacts"`
	Progress  int              `json:"progress"`
	CanGoBack bool             `json:"can_go_back"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewNodeView flattens a node into its serialisable form.
func NewNodeView(n domain.Node) NodeView {
	v := NodeView{ID: n.NodeID(), Kind: n.Kind(), Text: n.Prompt()}
	switch n := n.(type) {
	case domain.Branch:
		v.Options = n.Options
	case domain.Terminal:
		v.Solution = n.Solution
		v.ContactTrigger = n.ContactTrigger
	}
	return v
}

// Progress maps a path depth to a 0-100 percentage.
func Progress(depth int) int {
	return min(depth*100/progressSteps, 100)
}

// IsTerminal reports whether the session has reached a solution.
func (v *View) IsTerminal() bool {
	return v.Node.Kind == domain.KindTerminal
}
