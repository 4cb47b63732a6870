package attrfinder

import (
	"github.com/sentrie-sh/aspen/ast"
	"github.com/sentrie-sh/aspen/compiler"
	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/value"
	"github.com/sentrie-sh/aspen/xerr"
)

// resolveOptions folds an AttributeOptionsAST's inline fields into a
// value.PartialAttributeOptions — the highest-precedence tier of §4.3's
// three-tier merge (inline > subscription > PDP defaults). A field absent
// from the AST is left nil here, so the caller's merge can fall through to
// the subscription-level SAPL.attributeFinderOptions tier and finally the
// PDP default, per option rather than per object. Every present field must
// fold to a compile-time constant: these are invocation-tuning knobs
// (timeouts, retry counts, a freshness flag), not values that plausibly
// vary per-subscription, so requiring them constant keeps inline option
// resolution a compile-time operation instead of one more thing evaluated
// on every re-subscription. The subscription tier, by contrast, is read
// from the SAPL variable at evaluation time, since variables are only ever
// resolved against a live EvaluationContext.
func resolveOptions(
	opts *ast.AttributeOptionsAST,
	ctx *compiler.Context,
	compileChild func(ast.Expression, *compiler.Context) (compiler.CompiledExpression, error),
	node ast.Expression,
) (value.PartialAttributeOptions, error) {
	var resolved value.PartialAttributeOptions
	if opts == nil {
		return resolved, nil
	}

	if opts.InitialTimeoutMs != nil {
		v, err := constantInt64(opts.InitialTimeoutMs, ctx, compileChild, node)
		if err != nil {
			return resolved, err
		}
		resolved.InitialTimeoutMs = &v
	}
	if opts.PollIntervalMs != nil {
		v, err := constantInt64(opts.PollIntervalMs, ctx, compileChild, node)
		if err != nil {
			return resolved, err
		}
		resolved.PollIntervalMs = &v
	}
	if opts.BackoffMs != nil {
		v, err := constantInt64(opts.BackoffMs, ctx, compileChild, node)
		if err != nil {
			return resolved, err
		}
		resolved.BackoffMs = &v
	}
	if opts.Retries != nil {
		v, err := constantInt64(opts.Retries, ctx, compileChild, node)
		if err != nil {
			return resolved, err
		}
		resolved.Retries = &v
	}
	if opts.Fresh != nil {
		v, err := constantBool(opts.Fresh, ctx, compileChild, node)
		if err != nil {
			return resolved, err
		}
		resolved.Fresh = &v
	}
	return resolved, nil
}

// subscriptionOptions reads the §4.3 subscription-level tier — the SAPL
// variable's attributeFinderOptions field — out of a live evaluation
// context. Unlike inline options this can only be resolved at evaluation
// time: variables are bound per-EvaluationContext, and nothing requires
// SAPL to be a compile-time constant. A missing SAPL variable, a SAPL that
// isn't an object, a missing attributeFinderOptions field, or a
// wrong-typed individual field all leave the corresponding PartialAttribute
// Options field nil, falling through to the PDP default exactly like an
// absent inline field falls through to this tier.
func subscriptionOptions(ec *evalctx.Context) value.PartialAttributeOptions {
	var partial value.PartialAttributeOptions
	sapl, ok := ec.Lookup("SAPL")
	if !ok || sapl.Kind() != value.KindObject {
		return partial
	}
	finder, ok := sapl.ObjectGet("attributeFinderOptions")
	if !ok || finder.Kind() != value.KindObject {
		return partial
	}
	if v, ok := numberField(finder, "initialTimeOutMs"); ok {
		partial.InitialTimeoutMs = &v
	}
	if v, ok := numberField(finder, "pollIntervalMs"); ok {
		partial.PollIntervalMs = &v
	}
	if v, ok := numberField(finder, "backoffMs"); ok {
		partial.BackoffMs = &v
	}
	if v, ok := numberField(finder, "retries"); ok {
		partial.Retries = &v
	}
	if v, ok := boolField(finder, "fresh"); ok {
		partial.Fresh = &v
	}
	return partial
}

func numberField(obj value.Value, key string) (int64, bool) {
	v, ok := obj.ObjectGet(key)
	if !ok || v.Kind() != value.KindNumber {
		return 0, false
	}
	return value.TruncateToInt64(v.AsNumber()), true
}

func boolField(obj value.Value, key string) (bool, bool) {
	v, ok := obj.ObjectGet(key)
	if !ok || v.Kind() != value.KindBoolean {
		return false, false
	}
	return v.AsBoolean(), true
}

func constantInt64(
	e ast.Expression,
	ctx *compiler.Context,
	compileChild func(ast.Expression, *compiler.Context) (compiler.CompiledExpression, error),
	node ast.Expression,
) (int64, error) {
	c, err := compileChild(e, ctx)
	if err != nil {
		return 0, err
	}
	v, ok := c.AsConstant()
	if !ok || v.Kind() != value.KindNumber {
		return 0, xerr.ErrCompile("attribute option must be a constant number", node.String())
	}
	return value.TruncateToInt64(v.AsNumber()), nil
}

func constantBool(
	e ast.Expression,
	ctx *compiler.Context,
	compileChild func(ast.Expression, *compiler.Context) (compiler.CompiledExpression, error),
	node ast.Expression,
) (bool, error) {
	c, err := compileChild(e, ctx)
	if err != nil {
		return false, err
	}
	v, ok := c.AsConstant()
	if !ok || v.Kind() != value.KindBoolean {
		return false, xerr.ErrCompile("attribute option must be a constant boolean", node.String())
	}
	return v.AsBoolean(), nil
}
