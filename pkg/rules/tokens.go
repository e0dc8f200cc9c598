package rules

import (
	"encoding/json"
	"strconv"
	"strings"
)

var hyphenizer = strings.NewReplacer(" ", "-", "_", "-")

// Fold case-folds and trims a raw token.
func Fold(tok string) string {
	return strings.ToLower(strings.TrimSpace(tok))
}

// Normalize produces the canonical match form of a token: case-folded,
// trimmed, with spaces and underscores collapsed to hyphens, so that
// "Early Game", "early-game" and "early_game" all normalize identically.
func Normalize(tok string) string {
	return hyphenizer.Replace(Fold(tok))
}

// TokenSet holds the normalized match tokens extracted from one answer.
type TokenSet map[string]struct{}

func (s TokenSet) add(tok string) {
	folded := Fold(tok)
	if folded == "" {
		return
	}
	s[folded] = struct{}{}
	s[hyphenizer.Replace(folded)] = struct{}{}
}

// Has reports whether the set contains tok under either its folded or its
// hyphen-normalized form.
func (s TokenSet) Has(tok string) bool {
	if _, ok := s[Fold(tok)]; ok {
		return true
	}
	_, ok := s[Normalize(tok)]
	return ok
}

// Tokens flattens an answer value into its match-token set. Scalars become a
// single token, list elements one token each, and map-shaped values
// contribute tokens from their "label"/"value"/"values" fields if present.
// Anything else is skipped rather than erroring: answers come from an
// external store and their shape is not guaranteed.
func Tokens(value any) TokenSet {
	set := TokenSet{}
	collectTokens(set, value)
	return set
}

func collectTokens(set TokenSet, value any) {
	switch v := value.(type) {
	case nil:
	case string:
		set.add(v)
	case bool:
		set.add(strconv.FormatBool(v))
	case int:
		set.add(strconv.Itoa(v))
	case int64:
		set.add(strconv.FormatInt(v, 10))
	case float64:
		set.add(strconv.FormatFloat(v, 'f', -1, 64))
	case json.Number:
		set.add(v.String())
	case []string:
		for _, e := range v {
			set.add(e)
		}
	case []any:
		for _, e := range v {
			collectTokens(set, e)
		}
	case map[string]any:
		for _, key := range []string{"label", "value", "values"} {
			if sub, ok := v[key]; ok {
				collectTokens(set, sub)
			}
		}
	}
}

// NumericValue extracts a float from an answer value for ordering
// comparisons. Returns false when the value is absent or does not parse.
func NumericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// Satisfied reports whether the condition holds for the referenced question's
// current answer. Ordering operators require both sides to parse as numbers;
// when either side does not, the condition is simply not satisfied.
func (c *NavCondition) Satisfied(answer any) bool {
	switch c.Op {
	case OpIn:
		toks := Tokens(answer)
		for _, rhs := range c.RHS {
			if toks.Has(rhs) {
				return true
			}
		}
		return false
	case OpEq:
		return len(c.RHS) > 0 && Tokens(answer).Has(c.RHS[0])
	case OpNe:
		return len(c.RHS) > 0 && !Tokens(answer).Has(c.RHS[0])
	case OpLt, OpLe, OpGt, OpGe:
		if len(c.RHS) == 0 {
			return false
		}
		lhs, ok := NumericValue(answer)
		if !ok {
			return false
		}
		rhs, err := strconv.ParseFloat(strings.TrimSpace(c.RHS[0]), 64)
		if err != nil {
			return false
		}
		switch c.Op {
		case OpLt:
			return lhs < rhs
		case OpLe:
			return lhs <= rhs
		case OpGt:
			return lhs > rhs
		default:
			return lhs >= rhs
		}
	}
	return false
}
