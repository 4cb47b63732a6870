package policy

import (
	"github.com/sentrie-sh/aspen/ast"
	"github.com/sentrie-sh/aspen/compiler"
	"github.com/sentrie-sh/aspen/decision"
	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/schema"
	"github.com/sentrie-sh/aspen/value"
	"github.com/sentrie-sh/aspen/xerr"
)

// whereStep is one compiled where-body entry; Name is empty for a
// condition.
type whereStep struct {
	name string
	expr compiler.CompiledExpression
}

// CompiledPolicy is §3's CompiledPolicy restricted to a single policy
// document (policy sets are combine's concern): name, entitlement,
// match_expression, and the compiled where/obligations/advice/transform
// needed to produce a Result per evaluation.
type CompiledPolicy struct {
	Name        string
	Entitlement decision.Verdict
	Match       compiler.CompiledExpression
	where       []whereStep
	obligations []compiler.CompiledExpression
	advice      []compiler.CompiledExpression
	transform   compiler.CompiledExpression // Constant(Undefined) if doc.Transform == nil
	hasTransform bool                       // true iff doc.Transform was given; distinguishes "no resource" from "transform evaluated to Undefined"
}

// Compile lowers doc into a CompiledPolicy under ctx, enforcing every
// compile-time error §4.5 names for a single policy document: target
// always false/non-boolean/error (delegated to compiler.CompileTarget),
// duplicate variable in the where-body, a where-body statement provably
// non-boolean, a schema value that does not fold to a constant object, and
// an obligation/advice/transformation provably always an error.
func Compile(doc *Document, ctx *compiler.Context) (*CompiledPolicy, error) {
	if doc.Entitlement != decision.Permit && doc.Entitlement != decision.Deny {
		return nil, xerr.ErrCompile("policy entitlement must be PERMIT or DENY", doc.Name)
	}

	target, err := compileTargetOrDefault(doc.Target, ctx)
	if err != nil {
		return nil, err
	}

	schemaChecks, err := compileSchemaChecks(doc.Schemas, ctx)
	if err != nil {
		return nil, err
	}

	match := target
	if len(schemaChecks) > 0 {
		children := append([]compiler.CompiledExpression{target}, schemaChecks...)
		match = compiler.Combine(children, andBooleans)
	}

	whereCtx := ctx
	seen := map[string]bool{}
	steps := make([]whereStep, 0, len(doc.Where))
	for _, stmt := range doc.Where {
		compiled, err := compiler.Compile(stmt.Expr, whereCtx)
		if err != nil {
			return nil, err
		}
		if stmt.Name == "" {
			if v, ok := compiled.AsConstant(); ok && !v.IsError() && v.Kind() != value.KindBoolean {
				return nil, xerr.ErrCompile("where condition is provably non-boolean", stmt.Expr.String())
			}
			steps = append(steps, whereStep{expr: compiled})
			continue
		}
		if seen[stmt.Name] {
			return nil, xerr.ErrCompile("duplicate variable in policy body: "+stmt.Name, stmt.Expr.String())
		}
		seen[stmt.Name] = true
		whereCtx = whereCtx.WithVariable(stmt.Name)
		steps = append(steps, whereStep{name: stmt.Name, expr: compiled})
	}

	obligations, err := compileNonError(doc.Obligations, whereCtx, "obligation")
	if err != nil {
		return nil, err
	}
	advice, err := compileNonError(doc.Advice, whereCtx, "advice")
	if err != nil {
		return nil, err
	}

	transform := compiler.Constant(value.NewUndefined(value.NewMetadata()))
	if doc.Transform != nil {
		transform, err = compiler.Compile(doc.Transform, whereCtx)
		if err != nil {
			return nil, err
		}
		if v, ok := transform.AsConstant(); ok && v.IsError() {
			return nil, xerr.ErrCompile("transformation is provably always an error", doc.Transform.String())
		}
	}

	return &CompiledPolicy{
		Name:         doc.Name,
		Entitlement:  doc.Entitlement,
		Match:        match,
		where:        steps,
		obligations:  obligations,
		advice:       advice,
		transform:    transform,
		hasTransform: doc.Transform != nil,
	}, nil
}

func compileTargetOrDefault(target ast.Expression, ctx *compiler.Context) (compiler.CompiledExpression, error) {
	if target == nil {
		return compiler.Constant(value.NewBoolean(true, value.NewMetadata())), nil
	}
	return compiler.CompileTarget(target, ctx)
}

func compileSchemaChecks(checks []SchemaCheck, ctx *compiler.Context) ([]compiler.CompiledExpression, error) {
	out := make([]compiler.CompiledExpression, len(checks))
	for i, chk := range checks {
		compiled, err := compiler.Compile(chk.Schema, ctx)
		if err != nil {
			return nil, err
		}
		schemaValue, ok := compiled.AsConstant()
		if !ok {
			return nil, xerr.ErrCompile("schema value does not evaluate to an object", chk.Schema.String())
		}
		predicate, err := schema.Compile(schemaValue)
		if err != nil {
			return nil, err
		}
		part := chk.Part
		out[i] = compiler.Pure(func(ec *evalctx.Context) value.Value {
			subject := ec.SubscriptionPart(part)
			return value.NewBoolean(predicate.Validate(subject), subject.Metadata())
		}, true)
	}
	return out, nil
}

func compileNonError(exprs []ast.Expression, ctx *compiler.Context, label string) ([]compiler.CompiledExpression, error) {
	out := make([]compiler.CompiledExpression, len(exprs))
	for i, e := range exprs {
		compiled, err := compiler.Compile(e, ctx)
		if err != nil {
			return nil, err
		}
		if v, ok := compiled.AsConstant(); ok && v.IsError() {
			return nil, xerr.ErrCompile(label+" expression is provably always an error", e.String())
		}
		out[i] = compiled
	}
	return out, nil
}

// andBooleans folds the target plus every schema-check predicate into one
// boolean match result (§4.5: "match_expression = AND(target_expression,
// schema_checks)"). An Error or non-boolean operand short-circuits to an
// Error result; this mirrors the strict (non-lazy) arithmetic/comparison
// operator rule rather than && 's lazy short-circuit, since schema checks
// read fixed subscription elements with no cost to evaluating all of them.
func andBooleans(args []value.Value) value.Value {
	meta := value.NewMetadata()
	result := true
	for _, v := range args {
		meta = value.MergeMetadata(meta, v.Metadata())
		if v.IsError() {
			return value.NewError(v.ErrorMessage(), meta)
		}
		if v.Kind() != value.KindBoolean {
			return value.NewError("match expression operand must be boolean", meta)
		}
		if !v.AsBoolean() {
			result = false
		}
	}
	return value.NewBoolean(result, meta)
}
