package ast

import "strings"

// ArrayLiteral is `[e1, e2, ...]`. Constant iff every element is constant.
type ArrayLiteral struct {
	*baseNode
	Elements []Expression
}

func NewArrayLiteral(pos Position, elements []Expression) *ArrayLiteral {
	return &ArrayLiteral{
		baseNode: &baseNode{pos: pos, kind: "array_literal"},
		Elements: elements,
	}
}

func (a *ArrayLiteral) String() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (a *ArrayLiteral) expressionNode() {}

var _ Expression = (*ArrayLiteral)(nil)

// ObjectField is one key/value pair of an ObjectLiteral. The key is a plain
// string, not an expression: the DSL does not support computed keys.
type ObjectField struct {
	Key   string
	Value Expression
}

// ObjectLiteral is `{ "k1": e1, "k2": e2, ... }`. Constant iff every field
// value is constant.
type ObjectLiteral struct {
	*baseNode
	Fields []ObjectField
}

func NewObjectLiteral(pos Position, fields []ObjectField) *ObjectLiteral {
	return &ObjectLiteral{
		baseNode: &baseNode{pos: pos, kind: "object_literal"},
		Fields:   fields,
	}
}

func (o *ObjectLiteral) String() string {
	parts := make([]string, len(o.Fields))
	for i, f := range o.Fields {
		parts[i] = f.Key + ": " + f.Value.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (o *ObjectLiteral) expressionNode() {}

var _ Expression = (*ObjectLiteral)(nil)
