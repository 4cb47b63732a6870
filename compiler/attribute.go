package compiler

import (
	"github.com/sentrie-sh/aspen/ast"
	"github.com/sentrie-sh/aspen/xerr"
)

// compileAttributeAccess delegates to the injected AttributeCompiler
// (implemented by the attrfinder package): this package only owns expression
// semantics, not attribute-finder option merging, timeouts, or
// re-subscription (§4.3). It still enforces the one rule that belongs to
// expression compilation proper: an entity expression that folds to a
// constant Undefined can never produce a meaningful attribute subscription,
// so that is rejected here rather than deferred to attrfinder. A nil
// Entity is the bare form `<name[options]>` (§4.3: "entity.<name[options]>
// or <name[options]>") — no entity was written at all, which is not the
// same thing as one written as the literal `undefined`, so it is exempt
// from this check rather than compiled and inspected.
func compileAttributeAccess(n *ast.AttributeAccess, ctx *Context) (CompiledExpression, error) {
	if ctx.Attributes == nil {
		return CompiledExpression{}, xerr.ErrCompile("no attribute finder compiler configured", n.String())
	}
	if n.Entity != nil {
		entity, err := Compile(n.Entity, ctx)
		if err != nil {
			return CompiledExpression{}, err
		}
		if v, ok := entity.AsConstant(); ok && v.IsUndefined() {
			return CompiledExpression{}, xerr.ErrCompile("attribute finder applied to an always-undefined entity", n.String())
		}
	}
	return ctx.Attributes.CompileAttributeAccess(n, ctx, Compile)
}
