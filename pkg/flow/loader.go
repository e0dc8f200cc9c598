package flow

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"interview-engine-be/pkg/rules"
)

// RawRow is one tabular question row exactly as the sheet adapter delivers
// it. The loader is the only component that interprets these strings.
type RawRow struct {
	Flow     string
	Order    string
	Qid      string
	Label    string
	Type     string
	Required bool
	MaxLen   int
	Help     string
	// Options holds select choices, ";"- or newline-separated, each entry
	// either "Label" or "Label=token".
	Options string
	Rules   string
}

// Problem is one human-readable load failure tied to a row or clause.
type Problem struct {
	Flow    string
	Order   string
	Qid     string
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("flow %q order %q qid %q: %s", p.Flow, p.Order, p.Qid, p.Message)
}

var reMultiSelect = regexp.MustCompile(`^multi-select(?:\((\d+)\))?$`)

// Load converts raw rows into a validated snapshot. Rows are grouped by
// flow and sorted by order. Any flow containing a duplicate order/qid, an
// unparseable cell, or a rule reference that resolves to no question is
// rejected whole: none of its questions register (fail closed). Other flows
// still load. Loading has no side effects on existing sessions.
func Load(rows []RawRow) (*Snapshot, []Problem) {
	grouped := map[string][]RawRow{}
	var flowNames []string
	for _, row := range rows {
		name := strings.TrimSpace(row.Flow)
		if name == "" {
			name = "welcome"
		}
		if _, seen := grouped[name]; !seen {
			flowNames = append(flowNames, name)
		}
		grouped[name] = append(grouped[name], row)
	}

	flows := map[string][]*Question{}
	var problems []Problem
	for _, name := range flowNames {
		questions, flowProblems := loadFlow(name, grouped[name])
		if len(flowProblems) > 0 {
			problems = append(problems, flowProblems...)
			continue
		}
		flows[name] = questions
	}
	return NewSnapshot(flows), problems
}

func loadFlow(name string, rows []RawRow) ([]*Question, []Problem) {
	var problems []Problem
	fail := func(row RawRow, format string, args ...any) {
		problems = append(problems, Problem{
			Flow:    name,
			Order:   strings.TrimSpace(row.Order),
			Qid:     strings.TrimSpace(row.Qid),
			Message: fmt.Sprintf(format, args...),
		})
	}

	questions := make([]*Question, 0, len(rows))
	seenOrder := map[string]bool{}
	seenQid := map[string]bool{}
	for _, row := range rows {
		q, err := buildQuestion(name, row)
		if err != nil {
			fail(row, "%v", err)
			continue
		}
		if seenOrder[q.Order.String()] {
			fail(row, "duplicate order %q", q.Order)
		}
		if seenQid[rules.Fold(q.Qid)] {
			fail(row, "duplicate qid %q", q.Qid)
		}
		seenOrder[q.Order.String()] = true
		seenQid[rules.Fold(q.Qid)] = true
		questions = append(questions, q)
	}
	if len(problems) > 0 {
		return nil, problems
	}

	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Order.Less(questions[j].Order)
	})

	// Static reference check: every clause target must resolve against the
	// fully-assembled flow, so references may point forward or backward.
	for _, q := range questions {
		for _, clause := range q.Clauses {
			for _, ref := range rules.Refs(clause) {
				if len(ResolveTargets(questions, ref)) == 0 {
					fail(rowFor(q), "rule reference %q resolves to no question", refLiteral(ref))
				}
			}
			switch c := clause.(type) {
			case rules.NavClause:
				if c.Cond != nil && lookupQid(questions, c.Cond.Qid) == nil {
					fail(rowFor(q), "condition references unknown qid %q", c.Cond.Qid)
				}
			case rules.LegacyRangeClause:
				if err := checkLegacyRange(questions, c); err != nil {
					fail(rowFor(q), "%v", err)
				}
			}
		}
	}
	if len(problems) > 0 {
		return nil, problems
	}
	return questions, nil
}

func buildQuestion(flowName string, row RawRow) (*Question, error) {
	order, err := ParseOrderKey(row.Order)
	if err != nil {
		return nil, err
	}
	qid := strings.TrimSpace(row.Qid)
	if qid == "" {
		return nil, fmt.Errorf("missing qid")
	}

	qType, maxSel, err := parseType(row.Type)
	if err != nil {
		return nil, err
	}

	options := parseOptions(row.Options)
	if (qType == TypeSingleSelect || qType == TypeMultiSelect) && len(options) == 0 {
		return nil, fmt.Errorf("select question has no options")
	}

	var clauses []rules.Clause
	if strings.TrimSpace(row.Rules) != "" {
		clauses, err = rules.ParseClauses(row.Rules)
		if err != nil {
			return nil, err
		}
	}

	return &Question{
		Flow:          flowName,
		Order:         order,
		Qid:           qid,
		Label:         row.Label,
		Help:          row.Help,
		Type:          qType,
		Required:      row.Required,
		MaxLen:        row.MaxLen,
		MaxSelections: maxSel,
		Options:       options,
		RulesRaw:      row.Rules,
		Clauses:       clauses,
	}, nil
}

func parseType(raw string) (QuestionType, int, error) {
	t := strings.ToLower(strings.TrimSpace(raw))
	switch QuestionType(t) {
	case TypeShortText, TypeParagraphText, TypeNumber, TypeSingleSelect:
		return QuestionType(t), 0, nil
	}
	if m := reMultiSelect.FindStringSubmatch(t); m != nil {
		maxSel := 0
		if m[1] != "" {
			maxSel, _ = strconv.Atoi(m[1])
		}
		return TypeMultiSelect, maxSel, nil
	}
	return "", 0, fmt.Errorf("unknown question type %q", raw)
}

func parseOptions(cell string) []Option {
	var options []Option
	for _, entry := range strings.FieldsFunc(cell, func(r rune) bool { return r == ';' || r == '\n' }) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		label, token := entry, ""
		if idx := strings.Index(entry, "="); idx >= 0 {
			label = strings.TrimSpace(entry[:idx])
			token = strings.TrimSpace(entry[idx+1:])
		}
		if token == "" {
			token = label
		}
		options = append(options, Option{Label: label, Token: rules.Normalize(token)})
	}
	return options
}

// checkLegacyRange verifies that a legacy range clause's implicit targets
// (orders in [low, high)) match at least one question. The clause stays
// inert at runtime; validation only keeps old sheets honest.
func checkLegacyRange(questions []*Question, c rules.LegacyRangeClause) error {
	low, err := ParseOrderKey(c.Low)
	if err != nil {
		return fmt.Errorf("legacy range: %v", err)
	}
	high, err := ParseOrderKey(c.High)
	if err != nil {
		return fmt.Errorf("legacy range: %v", err)
	}
	for _, q := range questions {
		if !q.Order.Less(low) && q.Order.Less(high) {
			return nil
		}
	}
	return fmt.Errorf("legacy range [%s, %s) matches no question", c.Low, c.High)
}

func lookupQid(questions []*Question, qid string) *Question {
	folded := rules.Fold(qid)
	for _, q := range questions {
		if rules.Fold(q.Qid) == folded {
			return q
		}
	}
	return nil
}

func rowFor(q *Question) RawRow {
	return RawRow{Flow: q.Flow, Order: q.Order.String(), Qid: q.Qid}
}

func refLiteral(ref rules.TargetRef) string {
	if ref.Wildcard {
		return ref.Raw + "*"
	}
	return ref.Raw
}
