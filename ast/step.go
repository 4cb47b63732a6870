package ast

import "strings"

// StepAccess chains a navigation step off Target. Args' meaning depends on
// Kind:
//   - StepKey: Args[0] is a Literal string (the field name)
//   - StepIndex: Args[0] is an int-valued Expression (may be negative)
//   - StepSlice: Args[0], Args[1] are the (from, to) bounds, either may be nil
//     to mean "from the start" / "to the end"
//   - StepUnion: Args is the list of key-or-index expressions to select
//   - StepWildcard: Args is empty
//   - StepRecursiveDescent: Args[0] is a Literal string (the field name to
//     search for at every depth)
type StepAccess struct {
	*baseNode
	Target Expression
	Kind   StepKind
	Args   []Expression
}

func NewStepAccess(pos Position, target Expression, kind StepKind, args []Expression) *StepAccess {
	return &StepAccess{
		baseNode: &baseNode{pos: pos, kind: "step_access"},
		Target:   target,
		Kind:     kind,
		Args:     args,
	}
}

func (s *StepAccess) String() string {
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		parts[i] = a.String()
	}
	return s.Target.String() + "[" + s.Kind.String() + ":" + strings.Join(parts, ",") + "]"
}

func (s *StepAccess) expressionNode() {}

var _ Expression = (*StepAccess)(nil)
