package flow

import (
	"interview-engine-be/pkg/rules"
)

// NextIndex resolves the jump, if any, authored on the question at current.
// Clauses are checked in authored order; the first one that fires wins. An
// unconditional goto always fires; a conditional fires on its target when
// satisfied, on its else-target when present, and otherwise falls through to
// the next clause. A target that resolves to no question at runtime is
// treated as no jump rather than an error, to keep the session moving.
//
// The resolver performs exactly one jump per call and carries no cycle
// guard; terminating pathological goto loops is not its contract.
func NextIndex(current int, questions []*Question, answers AnswerMap) (int, bool) {
	if current < 0 || current >= len(questions) {
		return 0, false
	}
	for _, clause := range questions[current].Clauses {
		nc, ok := clause.(rules.NavClause)
		if !ok {
			continue
		}
		target := nc.Target
		if nc.Cond != nil && !nc.Cond.Satisfied(answerFor(answers, nc.Cond.Qid)) {
			if nc.ElseTarget == nil {
				continue
			}
			target = *nc.ElseTarget
		}
		if idx, ok := indexOfTarget(questions, target); ok {
			return idx, true
		}
	}
	return 0, false
}

// NextVisible scans forward from start (inclusive) for the first question
// whose visibility is not skip. This is the sequential fallback used after
// an accepted answer and the re-validation rule on resume.
func NextVisible(questions []*Question, vis VisibilityMap, start int) (int, bool) {
	if start < 0 {
		start = 0
	}
	for i := start; i < len(questions); i++ {
		if vis[questions[i].Qid] != Skip {
			return i, true
		}
	}
	return 0, false
}

// answerFor tolerates qid casing differences between the condition and the
// stored answer key.
func answerFor(answers AnswerMap, qid string) any {
	if v, ok := answers[qid]; ok {
		return v
	}
	folded := rules.Fold(qid)
	for k, v := range answers {
		if rules.Fold(k) == folded {
			return v
		}
	}
	return nil
}

func indexOfTarget(questions []*Question, ref rules.TargetRef) (int, bool) {
	targets := ResolveTargets(questions, ref)
	if len(targets) == 0 {
		return 0, false
	}
	for i, q := range questions {
		if q == targets[0] {
			return i, true
		}
	}
	return 0, false
}
