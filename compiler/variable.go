package compiler

import (
	"github.com/sentrie-sh/aspen/ast"
	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/value"
	"github.com/sentrie-sh/aspen/xerr"
)

// compileVariable resolves ast.Variable against the compiler's static
// scope. §4.2: "a Variable that cannot be resolved to an enclosing binding
// is a compile error, not a runtime one" — the actual value still comes
// from the EvaluationContext at evaluation time (variables may be rebound
// between policies sharing one subscription), but existence is checked now.
func compileVariable(n *ast.Variable, ctx *Context) (CompiledExpression, error) {
	if !ctx.HasVariable(n.Name) {
		return CompiledExpression{}, xerr.ErrCompile("unresolved variable: "+n.Name, n.String())
	}
	name := n.Name
	return Pure(func(ec *evalctx.Context) value.Value {
		v, ok := ec.Lookup(name)
		if !ok {
			return value.NewError("unresolved variable: "+name, value.NewMetadata())
		}
		return v
	}, true), nil
}

func compileSubscriptionElement(n *ast.SubscriptionElement) (CompiledExpression, error) {
	part := n.Part
	return Pure(func(ec *evalctx.Context) value.Value {
		return ec.SubscriptionPart(part)
	}, true), nil
}
