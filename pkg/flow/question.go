package flow

import (
	"strings"

	"interview-engine-be/pkg/rules"
)

// QuestionType determines validator behavior and the expected answer shape.
type QuestionType string

const (
	TypeShortText     QuestionType = "short-text"
	TypeParagraphText QuestionType = "paragraph-text"
	TypeNumber        QuestionType = "number"
	TypeSingleSelect  QuestionType = "single-select"
	TypeMultiSelect   QuestionType = "multi-select"
)

// Option is one selectable choice: the display label shown to the user and
// the canonical token stored and matched by rules.
type Option struct {
	Label string
	Token string
}

// Question is one loaded questionnaire row. Immutable once loaded; sessions
// only ever read it.
type Question struct {
	Flow     string
	Order    OrderKey
	Qid      string
	Label    string
	Help     string
	Type     QuestionType
	Required bool
	MaxLen   int
	// MaxSelections bounds multi-select answers; 0 means unbounded.
	MaxSelections int
	Options       []Option
	RulesRaw      string
	Clauses       []rules.Clause
}

// Visibility is the evaluated per-question state.
type Visibility string

const (
	Show     Visibility = "show"
	Optional Visibility = "optional"
	Skip     Visibility = "skip"
)

// VisibilityMap maps every qid in a flow to its current visibility. It is
// derived and disposable: recomputed from answers on every transition,
// never the source of truth.
type VisibilityMap map[string]Visibility

// AnswerMap holds the current answers keyed by qid.
type AnswerMap map[string]any

// EffectiveRequired reports whether a question must be answered right now:
// its sheet-declared required flag holds only while the question is shown.
// Rules can downgrade required to optional, never the reverse.
func EffectiveRequired(q *Question, vis VisibilityMap) bool {
	return q.Required && vis[q.Qid] == Show
}

// ResolveTargets expands a target reference against a flow's ordered
// questions. Exact qid wins, then exact order, then - for wildcard refs -
// every question whose order starts with the prefix.
func ResolveTargets(questions []*Question, ref rules.TargetRef) []*Question {
	raw := rules.Fold(ref.Raw)
	if raw == "" {
		return nil
	}
	if ref.Wildcard {
		var matched []*Question
		for _, q := range questions {
			if strings.HasPrefix(q.Order.String(), raw) {
				matched = append(matched, q)
			}
		}
		return matched
	}
	for _, q := range questions {
		if rules.Fold(q.Qid) == raw {
			return []*Question{q}
		}
	}
	for _, q := range questions {
		if q.Order.String() == raw {
			return []*Question{q}
		}
	}
	return nil
}
