package ast

// Condition wraps a predicate evaluated in a fresh @/# binding scope: inside
// Predicate, a RelativeValue resolves to the candidate element and a
// RelativeIndex to its index (array) or key (object). Scopes nest: a
// Condition inside another Condition's predicate shadows the outer @/#.
// The predicate must evaluate to Boolean; anything else (including
// non-boolean arithmetic) is Error("Condition must evaluate to boolean").
type Condition struct {
	*baseNode
	Predicate Expression
}

func NewCondition(pos Position, predicate Expression) *Condition {
	return &Condition{
		baseNode:  &baseNode{pos: pos, kind: "condition"},
		Predicate: predicate,
	}
}

func (c *Condition) String() string { return "?(" + c.Predicate.String() + ")" }

func (c *Condition) expressionNode() {}

var _ Expression = (*Condition)(nil)

// FilterExpression is the condition-step `target[?(predicate)]`. Arrays are
// filtered preserving order, objects preserving entries; a scalar Target
// passes through unchanged when the predicate is true and becomes Undefined
// otherwise.
type FilterExpression struct {
	*baseNode
	Target    Expression
	Predicate *Condition
}

func NewFilterExpression(pos Position, target Expression, predicate *Condition) *FilterExpression {
	return &FilterExpression{
		baseNode:  &baseNode{pos: pos, kind: "filter_expression"},
		Target:    target,
		Predicate: predicate,
	}
}

func (f *FilterExpression) String() string {
	return f.Target.String() + "[" + f.Predicate.String() + "]"
}

func (f *FilterExpression) expressionNode() {}

var _ Expression = (*FilterExpression)(nil)
