package flow

import (
	"interview-engine-be/pkg/rules"
)

// Evaluate computes the visibility of every question in a flow for the given
// answers. Pure and deterministic: a full recompute from scratch on every
// call, single pass in schema order, no fixpoint iteration - a clause fires
// only off the current answer set, never off visibility it just changed.
//
// Evaluate never fails. A live user is mid-session when this runs, so on any
// internal fault it falls back to an all-show map and reports failedOpen for
// the caller to log. Showing everything beats stranding the participant,
// even though it can mask authoring bugs.
func Evaluate(questions []*Question, answers AnswerMap) (vis VisibilityMap, failedOpen bool) {
	defer func() {
		if r := recover(); r != nil {
			vis = allShow(questions)
			failedOpen = true
		}
	}()

	vis = allShow(questions)
	for _, q := range questions {
		answer, answered := answers[q.Qid]
		if !answered {
			continue
		}
		tokens := rules.Tokens(answer)
		for _, clause := range q.Clauses {
			vc, ok := clause.(rules.VisibilityClause)
			if !ok {
				continue
			}
			if !tokens.Has(vc.Trigger) {
				continue
			}
			for _, ref := range vc.Targets {
				for _, target := range ResolveTargets(questions, ref) {
					applyAction(vis, target.Qid, vc.Action)
				}
			}
		}
	}
	return vis, false
}

// allShow must not itself fault: it also runs inside the recover path.
func allShow(questions []*Question) VisibilityMap {
	vis := make(VisibilityMap, len(questions))
	for _, q := range questions {
		if q == nil {
			continue
		}
		vis[q.Qid] = Show
	}
	return vis
}

// applyAction applies a clause effect. Skip dominates: once a question is
// skipped, no optional clause downgrades it back.
func applyAction(vis VisibilityMap, qid string, action rules.Action) {
	switch action {
	case rules.ActionSkip:
		vis[qid] = Skip
	case rules.ActionOptional:
		if vis[qid] != Skip {
			vis[qid] = Optional
		}
	}
}
