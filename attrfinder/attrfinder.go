// Copyright 2025 Binaek Sarkar
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package attrfinder implements the attribute-finder compiler (§4.3): it
// lowers an ast.AttributeAccess into a Stream CompiledExpression that
// re-subscribes through the evaluation context's AttributeBroker whenever
// the entity or any argument changes, applies the merged timeout/retry/
// backoff/poll options, attaches the invocation to the result's
// attribute_trace, and truncates to the first emission for the head
// operator `|<...>`.
//
// It implements compiler.AttributeCompiler and imports compiler, never the
// reverse (compiler/context.go defines the interface precisely so this
// package can depend on it one-directionally). Grounded on teacher
// `runtime/eval_call.go` (memoized function-call evaluation via a
// hashstructure-derived cache key — the same shape this package's cache key
// and re-subscription switch generalize from a one-shot call into a
// continuous subscription) and on `dag/g.go`'s re-evaluation-on-change
// shape, here implemented with stream.Switch instead of a dependency graph
// walk.
package attrfinder

import (
	"context"

	"github.com/sentrie-sh/aspen/ast"
	"github.com/sentrie-sh/aspen/compiler"
	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/stream"
	"github.com/sentrie-sh/aspen/value"
)

// Compiler is the reference compiler.AttributeCompiler implementation.
type Compiler struct{}

func New() *Compiler { return &Compiler{} }

var _ compiler.AttributeCompiler = (*Compiler)(nil)

func (c *Compiler) CompileAttributeAccess(
	n *ast.AttributeAccess,
	ctx *compiler.Context,
	compileChild func(ast.Expression, *compiler.Context) (compiler.CompiledExpression, error),
) (compiler.CompiledExpression, error) {
	// A nil Entity is the bare attribute-finder form `<name[options]>`
	// (§4.3): no entity sub-expression exists to compile, so the broker
	// sees an Undefined entity argument without compiler/attribute.go's
	// always-undefined-entity check ever seeing a constant to reject —
	// that check only runs against an explicitly-written Entity expression.
	entity := compiler.Constant(value.NewUndefined(value.NewMetadata()))
	if n.Entity != nil {
		var err error
		entity, err = compileChild(n.Entity, ctx)
		if err != nil {
			return compiler.CompiledExpression{}, err
		}
	}
	args := make([]compiler.CompiledExpression, len(n.Args))
	for i, a := range n.Args {
		ce, err := compileChild(a, ctx)
		if err != nil {
			return compiler.CompiledExpression{}, err
		}
		args[i] = ce
	}
	inline, err := resolveOptions(n.Options, ctx, compileChild, n)
	if err != nil {
		return compiler.CompiledExpression{}, err
	}

	fqn := n.FQN
	head := n.Head

	return compiler.Stream(func(sctx context.Context, ec *evalctx.Context) stream.Stream {
		inputs := make([]stream.Stream, 0, len(args)+1)
		inputs = append(inputs, entity.Evaluate(sctx, ec))
		for _, a := range args {
			inputs = append(inputs, a.Evaluate(sctx, ec))
		}

		// Resolved here, not at compile time, so the subscription-level
		// SAPL.attributeFinderOptions tier (read off the live context) can
		// take part: inline options always win (resolved at compile time,
		// above), falling through per-option to this subscription's SAPL
		// variable, and finally to the PDP default.
		resolved := value.MergeAttributeOptions(value.DefaultAttributeOptions(), inline, subscriptionOptions(ec))

		// entity+arguments are combined into one composite "key" stream;
		// every time that key changes, Switch tears down the previous
		// attribute subscription and opens a fresh one (§4.3
		// re-subscription on entity/argument change).
		composite := stream.CombineLatest(sctx, inputs, func(vs []value.Value) value.Value {
			return value.NewArrayUnfiltered(append([]value.Value{}, vs...), mergeAllMeta(vs))
		})

		out := stream.Switch(sctx, composite, func(innerCtx context.Context, tuple value.Value) stream.Stream {
			vs := tuple.AsArray()
			return subscribeWithOptions(innerCtx, ec, fqn, vs[0], vs[1:], resolved)
		})

		if head {
			return stream.Head(sctx, out)
		}
		return out
	}, true), nil
}

func mergeAllMeta(vs []value.Value) value.Metadata {
	metas := make([]value.Metadata, len(vs))
	for i, v := range vs {
		metas[i] = v.Metadata()
	}
	return value.MergeMetadata(metas...)
}
