package ast

import "strings"

// FunctionCall invokes a pure function resolved through the
// EvaluationContext's function broker (§3, §6). FQN is the fully-qualified
// name as the broker will see it (e.g. "time.now", "collection.contains").
type FunctionCall struct {
	*baseNode
	FQN  string
	Args []Expression
}

func NewFunctionCall(pos Position, fqn string, args []Expression) *FunctionCall {
	return &FunctionCall{
		baseNode: &baseNode{pos: pos, kind: "function_call"},
		FQN:      fqn,
		Args:     args,
	}
}

func (f *FunctionCall) String() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.String()
	}
	return f.FQN + "(" + strings.Join(parts, ", ") + ")"
}

func (f *FunctionCall) expressionNode() {}

var _ Expression = (*FunctionCall)(nil)
