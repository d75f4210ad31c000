package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name     string
		old      *State
		new      *State
		wantDiff *StateDiff // nil means we expect no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  &State{SessionID: "sess-1", Path: Path{"root"}},
			wantDiff: &StateDiff{
				SessionID:     "sess-1",
				CurrentNodeID: str("root"),
				Path:          &PathDelta{Appended: []string{"root"}},
			},
		},
		{
			name:     "No Changes",
			old:      &State{SessionID: "sess-1", Path: Path{"root", "tech_issue"}},
			new:      &State{SessionID: "sess-1", Path: Path{"root", "tech_issue"}},
			wantDiff: nil,
		},
		{
			name: "Advance",
			old:  &State{SessionID: "sess-1", Path: Path{"root"}},
			new:  &State{SessionID: "sess-1", Path: Path{"root", "tech_issue"}},
			wantDiff: &StateDiff{
				SessionID:     "sess-1",
				CurrentNodeID: str("tech_issue"),
				Path:          &PathDelta{Appended: []string{"tech_issue"}},
			},
		},
		{
			name: "Back",
			old:  &State{SessionID: "sess-1", Path: Path{"root", "tech_issue", "save_fail"}},
			new:  &State{SessionID: "sess-1", Path: Path{"root", "tech_issue"}},
			wantDiff: &StateDiff{
				SessionID:     "sess-1",
				CurrentNodeID: str("tech_issue"),
				Path:          &PathDelta{Popped: 1},
			},
		},
		{
			name: "Reset",
			old:  &State{SessionID: "sess-1", Path: Path{"root", "tech_issue", "save_fail"}},
			new:  &State{SessionID: "sess-1", Path: Path{"root"}},
			wantDiff: &StateDiff{
				SessionID:     "sess-1",
				CurrentNodeID: str("root"),
				Path:          &PathDelta{Popped: 2},
			},
		},
		{
			name: "Rewrite after divergence",
			old:  &State{SessionID: "sess-1", Path: Path{"root", "tech_issue"}},
			new:  &State{SessionID: "sess-1", Path: Path{"root", "data_issue"}},
			wantDiff: &StateDiff{
				SessionID:     "sess-1",
				CurrentNodeID: str("data_issue"),
				Path:          &PathDelta{Popped: 1, Appended: []string{"data_issue"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if !reflect.DeepEqual(got, tt.wantDiff) {
				gotJSON, _ := json.Marshal(got)
				wantJSON, _ := json.Marshal(tt.wantDiff)
				t.Errorf("Diff() = %s, want %s", gotJSON, wantJSON)
			}
		})
	}
}

func TestDiff_JSONOmitsUnchangedFields(t *testing.T) {
	d := Diff(
		&State{SessionID: "s", Path: Path{"root", "a"}},
		&State{SessionID: "s", Path: Path{"root", "a", "b"}},
	)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "popped") {
		t.Errorf("expected popped to be omitted, got %s", data)
	}
	if !strings.Contains(string(data), `"appended":["b"]`) {
		t.Errorf("expected appended tail, got %s", data)
	}
}
