package flow

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"interview-engine-be/pkg/rules"
)

// InputError is a recoverable, user-facing validation failure tied to one
// question. It is returned as a value, never a state transition: the session
// is untouched and the participant may retry immediately.
type InputError struct {
	Qid     string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Qid, e.Message)
}

func inputErr(q *Question, format string, args ...any) *InputError {
	return &InputError{Qid: q.Qid, Message: fmt.Sprintf(format, args...)}
}

// ValidateInput checks a raw answer against the question's type and bounds
// and returns the normalized value to store. A nil normalized value with a
// nil error means "no answer recorded": an empty input on a question that is
// not currently required clears any previous answer instead of storing one.
func ValidateInput(q *Question, vis VisibilityMap, raw any) (any, *InputError) {
	if isEmpty(raw) {
		if EffectiveRequired(q, vis) {
			return nil, inputErr(q, "an answer is required")
		}
		return nil, nil
	}

	switch q.Type {
	case TypeShortText, TypeParagraphText:
		return validateText(q, raw)
	case TypeNumber:
		num, ok := rules.NumericValue(raw)
		if !ok {
			return nil, inputErr(q, "must be a number")
		}
		return num, nil
	case TypeSingleSelect:
		return validateSingleSelect(q, raw)
	case TypeMultiSelect:
		return validateMultiSelect(q, raw)
	}
	return nil, inputErr(q, "unsupported question type %q", q.Type)
}

func validateText(q *Question, raw any) (any, *InputError) {
	s, ok := raw.(string)
	if !ok {
		return nil, inputErr(q, "expected text")
	}
	s = strings.TrimSpace(s)
	if q.MaxLen > 0 && utf8.RuneCountInString(s) > q.MaxLen {
		return nil, inputErr(q, "must be at most %d characters", q.MaxLen)
	}
	return s, nil
}

func validateSingleSelect(q *Question, raw any) (any, *InputError) {
	tokens := selectionTokens(raw)
	if len(tokens) != 1 {
		return nil, inputErr(q, "choose exactly one option")
	}
	token, ok := matchOption(q, tokens[0])
	if !ok {
		return nil, inputErr(q, "%q is not one of the listed options", tokens[0])
	}
	return token, nil
}

func validateMultiSelect(q *Question, raw any) (any, *InputError) {
	selected := selectionTokens(raw)
	if len(selected) == 0 {
		return nil, inputErr(q, "choose at least one option")
	}
	seen := map[string]bool{}
	normalized := make([]string, 0, len(selected))
	for _, sel := range selected {
		token, ok := matchOption(q, sel)
		if !ok {
			return nil, inputErr(q, "%q is not one of the listed options", sel)
		}
		if !seen[token] {
			seen[token] = true
			normalized = append(normalized, token)
		}
	}
	if q.MaxSelections > 0 && len(normalized) > q.MaxSelections {
		return nil, inputErr(q, "select at most %d options", q.MaxSelections)
	}
	return normalized, nil
}

// selectionTokens flattens a select answer into its raw choice strings.
// Chat surfaces deliver button clicks as scalars and multi-picks as arrays.
func selectionTokens(raw any) []string {
	switch v := raw.(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	case []string:
		var out []string
		for _, e := range v {
			if s := strings.TrimSpace(e); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		var out []string
		for _, e := range v {
			if s, ok := e.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	}
	return nil
}

// matchOption resolves a raw choice to its canonical option token, matching
// either the token or the display label, case- and separator-insensitively.
func matchOption(q *Question, raw string) (string, bool) {
	normalized := rules.Normalize(raw)
	for _, opt := range q.Options {
		if normalized == opt.Token || normalized == rules.Normalize(opt.Label) {
			return opt.Token, true
		}
	}
	return "", false
}

func isEmpty(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	}
	return false
}
