package domain

import (
	"slices"
	"time"
)

// Path is the ordered list of visited node ids. The first element is the root,
// the last element is the current node.
type Path []string

// Current returns the last element, or "" for an empty path.
func (p Path) Current() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Clone returns an independent copy of the path.
func (p Path) Clone() Path {
	return slices.Clone(p)
}

// State is the persisted snapshot of a troubleshooting session.
type State struct {
	// SessionID identifies the session this state belongs to.
	SessionID string `json:"session_id"`

	// Path is the visited-node stack. Never empty for a live session.
	Path Path `json:"path"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Sealed holds the encrypted state when the store is wrapped with
	// encryption. Path is empty in that case.
	Sealed string `json:"sealed,omitempty"`
}

// NewState creates a clean state positioned at the root node.
func NewState(sessionID, rootID string) *State {
	now := time.Now().UTC()
	return &State{
		SessionID: sessionID,
		Path:      Path{rootID},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Snapshot creates a deep copy of the state.
func (s *State) Snapshot() *State {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Path = s.Path.Clone()
	return &cp
}
