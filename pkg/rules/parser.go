package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Statement patterns - navigation is matched before visibility because a
// conditional goto also starts with "if".
var (
	reGoto      = regexp.MustCompile(`(?i)^goto\s+(\S+)$`)
	reLegacy    = regexp.MustCompile(`(?i)^skip\s+order\s*>=\s*\[?\s*([0-9]+[a-z]*)\s*\]?\s+and\s+order\s*<\s*\[?\s*([0-9]+[a-z]*)\s*\]?$`)
	reNavIn     = regexp.MustCompile(`(?i)^if\s+(\S+)\s+in\s+(.+?)\s+goto\s+(\S+)(?:\s+else\s+goto\s+(\S+))?$`)
	reNavCmp    = regexp.MustCompile(`(?i)^if\s+(\S+?)\s*(!=|<=|>=|=|<|>)\s*(\S+)\s+goto\s+(\S+)(?:\s+else\s+goto\s+(\S+))?$`)
	reMakeOpt   = regexp.MustCompile(`(?i)^if\s+(\S+)\s+make\s+(.+?)\s+optional$`)
	reSkip      = regexp.MustCompile(`(?i)^if\s+(\S+)\s+skip\s+(.+)$`)
	reStatement = regexp.MustCompile(`[\n;]+`)
)

// ParseClauses parses a rules cell into its clause list. Statements are
// newline- or ";"-separated and parsed independently. An unrecognizable
// statement is an error: malformed authoring must fail at load time, not
// silently change runtime behavior.
func ParseClauses(raw string) ([]Clause, error) {
	var clauses []Clause
	for _, stmt := range reStatement.Split(raw, -1) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		c, err := parseStatement(stmt)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)
	}
	return clauses, nil
}

func parseStatement(stmt string) (Clause, error) {
	if m := reGoto.FindStringSubmatch(stmt); m != nil {
		return NavClause{Target: parseTargetRef(m[1])}, nil
	}
	if m := reLegacy.FindStringSubmatch(stmt); m != nil {
		return LegacyRangeClause{Low: strings.ToLower(m[1]), High: strings.ToLower(m[2])}, nil
	}
	if containsWord(stmt, "goto") {
		if m := reNavIn.FindStringSubmatch(stmt); m != nil {
			return navClause(m[1], OpIn, splitList(m[2]), m[3], m[4]), nil
		}
		if m := reNavCmp.FindStringSubmatch(stmt); m != nil {
			return navClause(m[1], Op(m[2]), []string{m[3]}, m[4], m[5]), nil
		}
		return nil, fmt.Errorf("unparseable navigation clause %q", stmt)
	}
	if m := reMakeOpt.FindStringSubmatch(stmt); m != nil {
		targets, err := parseTargets(m[2])
		if err != nil {
			return nil, fmt.Errorf("clause %q: %w", stmt, err)
		}
		return VisibilityClause{Trigger: strings.TrimSpace(m[1]), Action: ActionOptional, Targets: targets}, nil
	}
	if m := reSkip.FindStringSubmatch(stmt); m != nil {
		targets, err := parseTargets(m[2])
		if err != nil {
			return nil, fmt.Errorf("clause %q: %w", stmt, err)
		}
		return VisibilityClause{Trigger: strings.TrimSpace(m[1]), Action: ActionSkip, Targets: targets}, nil
	}
	return nil, fmt.Errorf("unrecognized clause %q", stmt)
}

func navClause(qid string, op Op, rhs []string, target, elseTarget string) NavClause {
	c := NavClause{
		Cond:   &NavCondition{Qid: strings.TrimSpace(qid), Op: op, RHS: rhs},
		Target: parseTargetRef(target),
	}
	if elseTarget != "" {
		ref := parseTargetRef(elseTarget)
		c.ElseTarget = &ref
	}
	return c
}

func parseTargets(list string) ([]TargetRef, error) {
	var targets []TargetRef
	for _, part := range strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' }) {
		if part == "" {
			continue
		}
		targets = append(targets, parseTargetRef(part))
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets")
	}
	return targets, nil
}

func parseTargetRef(raw string) TargetRef {
	raw = strings.TrimSpace(raw)
	if strings.HasSuffix(raw, "*") {
		return TargetRef{Raw: strings.TrimSuffix(raw, "*"), Wildcard: true}
	}
	return TargetRef{Raw: raw}
}

// splitList parses an RHS membership list, comma-separated with optional
// surrounding brackets: "[eu, na]" or "eu,na".
func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsWord(s, word string) bool {
	for _, f := range strings.Fields(strings.ToLower(s)) {
		if f == word {
			return true
		}
	}
	return false
}
