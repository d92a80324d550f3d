package core

import (
	"reflect"
	"testing"
)

func checkPlan(t *testing.T, got, want Plan) {
	t.Helper()
	if !reflect.DeepEqual(normalizePlan(got), normalizePlan(want)) {
		t.Errorf("plan = {Remove: %v, Add: %v}, want {Remove: %v, Add: %v}",
			got.Remove, got.Add, want.Remove, want.Add)
	}
}

// normalizePlan maps nil slices to empty ones so DeepEqual compares content.
func normalizePlan(p Plan) Plan {
	if p.Remove == nil {
		p.Remove = []string{}
	}
	if p.Add == nil {
		p.Add = []string{}
	}
	return p
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name    string
		target  []string
		current []string
		want    Plan
	}{
		{
			name:    "Identical sequences are in sync",
			target:  []string{"a", "b", "c"},
			current: []string{"a", "b", "c"},
			want:    Plan{},
		},
		{
			name:    "Both empty are in sync",
			target:  nil,
			current: nil,
			want:    Plan{},
		},
		{
			name:    "Current is prefix of target appends tail",
			target:  []string{"a", "b", "c", "d"},
			current: []string{"a", "b"},
			want:    Plan{Add: []string{"c", "d"}},
		},
		{
			name:    "Target is prefix of current trims tail",
			target:  []string{"a", "b"},
			current: []string{"a", "b", "c", "d"},
			want:    Plan{Remove: []string{"c", "d"}},
		},
		{
			name:    "Mismatch mid-sequence rebuilds both tails",
			target:  []string{"a", "x", "c"},
			current: []string{"a", "b", "c"},
			want:    Plan{Remove: []string{"b", "c"}, Add: []string{"x", "c"}},
		},
		{
			name:    "Mismatch at first element rebuilds everything",
			target:  []string{"x", "y"},
			current: []string{"a", "b", "c"},
			want:    Plan{Remove: []string{"a", "b", "c"}, Add: []string{"x", "y"}},
		},
		{
			name:    "Empty playlist appends full target",
			target:  []string{"a", "b"},
			current: nil,
			want:    Plan{Add: []string{"a", "b"}},
		},
		{
			name:    "Reordered tail is rebuilt not patched",
			target:  []string{"a", "b", "c", "d"},
			current: []string{"a", "c", "b", "d"},
			want:    Plan{Remove: []string{"c", "b", "d"}, Add: []string{"b", "c", "d"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkPlan(t, Reconcile(tt.target, tt.current), tt.want)
		})
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	target := []string{"a", "x", "c", "d"}
	current := []string{"a", "b", "c"}

	plan := Reconcile(target, current)

	// Apply the plan to the current sequence.
	applied := applyPlan(current, plan)
	if !reflect.DeepEqual(applied, target) {
		t.Fatalf("applied sequence = %v, want %v", applied, target)
	}

	// A rerun against the applied state must be a no-op.
	rerun := Reconcile(target, applied)
	if !rerun.InSync() {
		t.Errorf("rerun plan = {Remove: %v, Add: %v}, want no-op", rerun.Remove, rerun.Add)
	}
}

// applyPlan simulates the playlist mutation a plan describes.
func applyPlan(current []string, plan Plan) []string {
	removed := make(map[string]struct{}, len(plan.Remove))
	for _, id := range plan.Remove {
		removed[id] = struct{}{}
	}

	var out []string
	for _, id := range current {
		if _, ok := removed[id]; !ok {
			out = append(out, id)
		}
	}
	return append(out, plan.Add...)
}

func TestReconcile_DoesNotMutateInputs(t *testing.T) {
	target := []string{"a", "x"}
	current := []string{"a", "b"}

	plan := Reconcile(target, current)
	plan.Remove[0] = "mutated"
	plan.Add[0] = "mutated"

	if current[1] != "b" || target[1] != "x" {
		t.Errorf("inputs were aliased by the plan: target=%v current=%v", target, current)
	}
}

func TestAdditivePlan(t *testing.T) {
	tests := []struct {
		name    string
		target  []string
		current []string
		want    Plan
	}{
		{
			name:    "All target tracks present is a no-op",
			target:  []string{"a", "b"},
			current: []string{"b", "a", "c"},
			want:    Plan{},
		},
		{
			name:    "Missing tracks appended in target order",
			target:  []string{"a", "b", "c", "d"},
			current: []string{"b", "d"},
			want:    Plan{Add: []string{"a", "c"}},
		},
		{
			name:    "Never removes even on full mismatch",
			target:  []string{"x"},
			current: []string{"a", "b"},
			want:    Plan{Add: []string{"x"}},
		},
		{
			name:    "Empty target is a no-op",
			target:  nil,
			current: []string{"a"},
			want:    Plan{},
		},
		{
			name:    "Empty playlist gets full target",
			target:  []string{"a", "b"},
			current: nil,
			want:    Plan{Add: []string{"a", "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdditivePlan(tt.target, tt.current)
			if len(got.Remove) != 0 {
				t.Fatalf("additive plan produced removals: %v", got.Remove)
			}
			checkPlan(t, got, tt.want)
		})
	}
}

func TestDivergenceIndex(t *testing.T) {
	tests := []struct {
		name    string
		target  []string
		current []string
		want    int
	}{
		{"Equal sequences", []string{"a", "b"}, []string{"a", "b"}, 2},
		{"First element differs", []string{"x"}, []string{"a"}, 0},
		{"Middle element differs", []string{"a", "x", "c"}, []string{"a", "b", "c"}, 1},
		{"Prefix relation", []string{"a", "b", "c"}, []string{"a", "b"}, 2},
		{"Both empty", nil, nil, 0},
		{"One empty", []string{"a"}, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := divergenceIndex(tt.target, tt.current); got != tt.want {
				t.Errorf("divergenceIndex() = %d, want %d", got, tt.want)
			}
		})
	}
}
