package core

// Plan is the edit derived from comparing the chat-derived target sequence
// against the playlist's current sequence: one contiguous removal followed by
// one contiguous append. Both slices are freshly allocated; the inputs are
// never aliased or mutated.
type Plan struct {
	Remove []string
	Add    []string
}

// InSync reports whether the plan is a no-op.
func (p Plan) InSync() bool {
	return len(p.Remove) == 0 && len(p.Add) == 0
}

// Reconcile computes the full (destructive) plan. The sequences are walked in
// lock-step until the first index where they disagree; if one is a strict
// prefix of the other the divergence index is the shorter length. Everything
// in current from the divergence point is removed and everything in target
// from the divergence point is re-appended in target order, so the playlist
// ends up equal to the chat chronology. Reordering after the divergence point
// is deliberately rebuilt rather than patched: the chat order is the single
// source of truth and a contiguous truncate-and-replay is robust against
// manual edits, stale exports and mid-list deletions alike.
func Reconcile(target, current []string) Plan {
	d := divergenceIndex(target, current)

	if d == len(target) && d == len(current) {
		return Plan{}
	}

	plan := Plan{}
	if d < len(current) {
		plan.Remove = append([]string(nil), current[d:]...)
	}
	if d < len(target) {
		plan.Add = append([]string(nil), target[d:]...)
	}
	return plan
}

// AdditivePlan computes the append-only plan: every target track not already
// present in the playlist, in target order, and never any removal. A target
// that is a prefix of current (chat shorter than playlist) is a true no-op;
// shrinking the playlist is a destructive operation reserved for Reconcile.
func AdditivePlan(target, current []string) Plan {
	present := make(map[string]struct{}, len(current))
	for _, id := range current {
		present[id] = struct{}{}
	}

	plan := Plan{}
	for _, id := range target {
		if _, ok := present[id]; !ok {
			plan.Add = append(plan.Add, id)
		}
	}
	return plan
}

// divergenceIndex returns the smallest index at which the sequences disagree,
// or the length of the shorter sequence when no index differs.
func divergenceIndex(target, current []string) int {
	n := len(target)
	if len(current) < n {
		n = len(current)
	}

	for i := 0; i < n; i++ {
		if target[i] != current[i] {
			return i
		}
	}
	return n
}
