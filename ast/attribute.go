package ast

import "strings"

// AttributeOptionsAST is the as-written `{initialTimeOutMs: ..., ...}`
// object attached to an attribute access. Any field may be nil, meaning
// "not specified at this syntax level" (§4.3 merge: inline > subscription >
// PDP default). The attribute-finder compiler, not this package, resolves
// merging and defaulting.
type AttributeOptionsAST struct {
	InitialTimeoutMs Expression
	PollIntervalMs   Expression
	BackoffMs        Expression
	Retries          Expression
	Fresh            Expression
}

func (o *AttributeOptionsAST) String() string {
	if o == nil {
		return ""
	}
	var parts []string
	if o.InitialTimeoutMs != nil {
		parts = append(parts, "initialTimeOutMs: "+o.InitialTimeoutMs.String())
	}
	if o.PollIntervalMs != nil {
		parts = append(parts, "pollIntervalMs: "+o.PollIntervalMs.String())
	}
	if o.BackoffMs != nil {
		parts = append(parts, "backoffMs: "+o.BackoffMs.String())
	}
	if o.Retries != nil {
		parts = append(parts, "retries: "+o.Retries.String())
	}
	if o.Fresh != nil {
		parts = append(parts, "fresh: "+o.Fresh.String())
	}
	if len(parts) == 0 {
		return ""
	}
	return " {" + strings.Join(parts, ", ") + "}"
}

// AttributeAccess is `entity.<name>(args)` or `entity.<name>(args) {options}`,
// optionally wrapped by the head operator `|<...>` (Head == true). FQN is
// the attribute's fully-qualified name as the attribute broker will see it.
// Entity is nil for the bare form `<name(args)>` (§4.3): no entity was
// written at all. That is a distinct thing from Entity being set to an
// explicit `ast.NewUndefined(...)` node, which the compiler rejects — a
// nil Entity never reaches that check.
type AttributeAccess struct {
	*baseNode
	FQN     string
	Entity  Expression
	Args    []Expression
	Options *AttributeOptionsAST
	Head    bool
}

func NewAttributeAccess(pos Position, fqn string, entity Expression, args []Expression, options *AttributeOptionsAST, head bool) *AttributeAccess {
	return &AttributeAccess{
		baseNode: &baseNode{pos: pos, kind: "attribute_access"},
		FQN:      fqn,
		Entity:   entity,
		Args:     args,
		Options:  options,
		Head:     head,
	}
}

func (a *AttributeAccess) String() string {
	parts := make([]string, len(a.Args))
	for i, arg := range a.Args {
		parts[i] = arg.String()
	}
	var prefix string
	if a.Entity != nil {
		prefix = a.Entity.String() + "."
	}
	s := prefix + a.FQN + "(" + strings.Join(parts, ", ") + ")" + a.Options.String()
	if a.Head {
		return "|<" + s + ">"
	}
	return s
}

func (a *AttributeAccess) expressionNode() {}

var _ Expression = (*AttributeAccess)(nil)
