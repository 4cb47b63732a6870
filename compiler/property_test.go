//go:build property
// +build property

package compiler_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/sentrie-sh/aspen/ast"
	"github.com/sentrie-sh/aspen/attrfinder"
	"github.com/sentrie-sh/aspen/compiler"
	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/value"
)

func newCtx() *compiler.Context {
	return compiler.NewContext(attrfinder.New())
}

// TestCompilingTwiceIsDeterministic covers spec's "for all expressions e:
// compiling twice with the same context yields structurally equivalent
// CompiledExpression" — for a constant-foldable literal, structural
// equivalence means the same Kind and the same folded Value.
func TestCompilingTwiceIsDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("compiling a literal twice yields the same constant", prop.ForAll(
		func(s string) bool {
			lit := ast.NewLiteral(ast.Position{}, s)
			c1, err1 := compiler.Compile(lit, newCtx())
			c2, err2 := compiler.Compile(lit, newCtx())
			if err1 != nil || err2 != nil {
				return err1 != nil && err2 != nil
			}
			if c1.Kind() != compiler.KindConstant || c2.Kind() != compiler.KindConstant {
				return false
			}
			v1, _ := c1.AsConstant()
			v2, _ := c2.AsConstant()
			return v1.Equals(v2)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// TestConstantFoldingMatchesReferenceValue covers "for all constant
// expressions c: compile(c) returns Constant(v) where v equals the
// reference evaluator applied to c" — here the "reference evaluator" for
// a bare literal is just the literal's own Go value, since a Literal node
// carries no further computation to fold.
func TestConstantFoldingMatchesReferenceValue(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("a literal string folds to a Constant Text of the same string", prop.ForAll(
		func(s string) bool {
			compiled, err := compiler.Compile(ast.NewLiteral(ast.Position{}, s), newCtx())
			if err != nil || compiled.Kind() != compiler.KindConstant {
				return false
			}
			v, _ := compiled.AsConstant()
			return v.AsText() == s
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// TestPureEvaluationIsDeterministic covers "for all pure expressions p and
// contexts ctx: evaluate(compile(p), ctx) is deterministic" using the
// subscription's action element, a Pure (subscription-dependent,
// non-stream) expression.
func TestPureEvaluationIsDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("evaluating a Pure subscription-element expression twice agrees", prop.ForAll(
		func(action string) bool {
			node := ast.NewSubscriptionElement(ast.Position{}, ast.SubscriptionAction)
			compiled, err := compiler.Compile(node, newCtx())
			if err != nil || compiled.Kind() != compiler.KindPure {
				return false
			}

			sub := evalctx.Subscription{Action: value.NewText(action, value.NewMetadata())}
			ec := evalctx.New("pdp", "cfg", "sub", sub, nil, nil, nil)

			return compiled.EvalPure(ec).Equals(compiled.EvalPure(ec))
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
