package rules

// Action is the effect a visibility clause applies to its targets.
type Action string

const (
	ActionSkip     Action = "skip"
	ActionOptional Action = "optional"
)

// Op is a navigation condition operator.
type Op string

const (
	OpIn Op = "in"
	OpEq Op = "="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// TargetRef is one target reference inside a clause: an exact qid, an exact
// order literal, or an order prefix when Wildcard is set (authored as "7*").
type TargetRef struct {
	Raw      string
	Wildcard bool
}

// Clause is one parsed directive from a question's rules cell.
// The set of variants is closed: VisibilityClause, NavClause, LegacyRangeClause.
type Clause interface {
	clause()
}

// VisibilityClause hides targets or downgrades them to optional when the
// source question's answer contains Trigger.
//
//	if <token> skip <targets>
//	if <token> make <targets> optional
type VisibilityClause struct {
	Trigger string // normalized token
	Action  Action
	Targets []TargetRef
}

// NavCondition compares a referenced question's current answer to RHS.
type NavCondition struct {
	Qid string
	Op  Op
	RHS []string
}

// NavClause jumps to Target, unconditionally when Cond is nil, otherwise
// when Cond is satisfied (falling back to ElseTarget if present).
//
//	goto <order-or-qid>
//	if <qid> <op> <rhs> goto <target> [else goto <target>]
type NavClause struct {
	Cond       *NavCondition
	Target     TargetRef
	ElseTarget *TargetRef
}

// LegacyRangeClause is the historical range-skip form:
//
//	skip order>=[n] and order<[m]
//
// It is parsed and its implicit targets are validated at load time, but it
// has no runtime effect. Old sheets still carry it, so rejecting it would
// fail flows that work today.
type LegacyRangeClause struct {
	Low  string
	High string
}

func (VisibilityClause) clause()  {}
func (NavClause) clause()        {}
func (LegacyRangeClause) clause() {}

// Refs returns every target reference the clause carries, used by the loader
// to verify that all references resolve before a flow activates. Legacy range
// clauses are validated separately (their implicit targets are a half-open
// order interval, not a literal reference).
func Refs(c Clause) []TargetRef {
	switch v := c.(type) {
	case VisibilityClause:
		return v.Targets
	case NavClause:
		refs := []TargetRef{v.Target}
		if v.ElseTarget != nil {
			refs = append(refs, *v.ElseTarget)
		}
		return refs
	}
	return nil
}
