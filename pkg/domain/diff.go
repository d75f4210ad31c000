package domain

// StateDiff represents the changes between two states of the same session.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	// CurrentNodeID is set when the active node changed.
	CurrentNodeID *string `json:"current_node_id,omitempty"`

	// Path carries the stack movement.
	Path *PathDelta `json:"path,omitempty"`
}

// PathDelta describes how the path moved. A back-navigation sets Popped,
// an advance appends to Appended. A rewrite (e.g. reset) sets Popped to the old depth
// minus the common prefix and lists the new tail.
type PathDelta struct {
	Popped   int      `json:"popped,omitempty"`
	Appended []string `json:"appended,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{
		SessionID: newState.SessionID,
	}

	if oldState == nil || oldState.Path.Current() != newState.Path.Current() {
		current := newState.Path.Current()
		diff.CurrentNodeID = &current
	}

	diff.Path = diffPath(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffPath(old *State, new *State) *PathDelta {
	if old == nil {
		if len(new.Path) == 0 {
			return nil
		}
		return &PathDelta{Appended: new.Path.Clone()}
	}

	common := 0
	for common < len(old.Path) && common < len(new.Path) && old.Path[common] == new.Path[common] {
		common++
	}

	popped := len(old.Path) - common
	appended := new.Path[common:]
	if popped == 0 && len(appended) == 0 {
		return nil
	}

	delta := &PathDelta{Popped: popped}
	if len(appended) > 0 {
		delta.Appended = Path(appended).Clone()
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.CurrentNodeID == nil && d.Path == nil
}
