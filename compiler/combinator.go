package compiler

import (
	"context"

	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/stream"
	"github.com/sentrie-sh/aspen/value"
)

// combine implements the bottom-up classification rule shared by every
// N-ary operator (§4.2): all-Constant folds now; any-Pure-none-Stream
// becomes Pure (never suspends, §5); any-Stream becomes Stream, combined
// with combine-latest (§5) since container construction, arithmetic,
// comparison, step access and function calls are exactly the suspension
// points the spec names for multi-input combination.
// Combine exposes combine to other packages in this module (policy,
// combine) that assemble CompiledExpressions of their own out of
// already-compiled pieces — a policy's match_expression ANDing a target
// against N schema-check predicates, for instance — without duplicating
// the classification rule.
func Combine(children []CompiledExpression, build func(args []value.Value) value.Value) CompiledExpression {
	return combine(children, build)
}

func combine(children []CompiledExpression, build func(args []value.Value) value.Value) CompiledExpression {
	allConstant := true
	anyStream := false
	dependsOnSubscription := false
	for _, c := range children {
		if c.kind != KindConstant {
			allConstant = false
		}
		if c.kind == KindStream {
			anyStream = true
		}
		dependsOnSubscription = dependsOnSubscription || c.dependsOnSubscription
	}

	if allConstant {
		args := make([]value.Value, len(children))
		for i, c := range children {
			args[i] = c.constant
		}
		return Constant(build(args))
	}

	if !anyStream {
		return Pure(func(ec *evalctx.Context) value.Value {
			args := make([]value.Value, len(children))
			for i, c := range children {
				args[i] = c.EvalPure(ec)
			}
			return build(args)
		}, dependsOnSubscription)
	}

	return Stream(func(ctx context.Context, ec *evalctx.Context) stream.Stream {
		sources := make([]stream.Stream, len(children))
		for i, c := range children {
			sources[i] = c.Evaluate(ctx, ec)
		}
		return stream.CombineLatest(ctx, sources, build)
	}, true)
}
