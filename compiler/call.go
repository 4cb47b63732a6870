package compiler

import (
	"context"

	"github.com/sentrie-sh/aspen/ast"
	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/stream"
	"github.com/sentrie-sh/aspen/value"
)

// compileFunctionCall resolves fqn against the function broker at
// evaluation time, not compile time (§6: the broker is an evaluation-time
// concern, functions may be registered after a policy set is compiled).
// A function is always Pure in the §3 sense (never suspends on its own),
// but its Kind still rises to Stream if any argument does.
func compileFunctionCall(n *ast.FunctionCall, ctx *Context) (CompiledExpression, error) {
	argExprs := make([]CompiledExpression, len(n.Args))
	for i, a := range n.Args {
		c, err := Compile(a, ctx)
		if err != nil {
			return CompiledExpression{}, err
		}
		argExprs[i] = c
	}
	fqn := n.FQN

	if allArgsNonStream(argExprs) {
		return Pure(func(ec *evalctx.Context) value.Value {
			args := make([]value.Value, len(argExprs))
			for i, c := range argExprs {
				args[i] = c.EvalPure(ec)
			}
			return invokeFunction(ec, fqn, args)
		}, anyDependsOnSubscription(argExprs)), nil
	}

	return Stream(func(sctx context.Context, ec *evalctx.Context) stream.Stream {
		sources := make([]stream.Stream, len(argExprs))
		for i, c := range argExprs {
			sources[i] = c.Evaluate(sctx, ec)
		}
		return stream.CombineLatest(sctx, sources, func(args []value.Value) value.Value {
			return invokeFunction(ec, fqn, args)
		})
	}, true), nil
}

func invokeFunction(ec *evalctx.Context, fqn string, args []value.Value) value.Value {
	meta := mergeAll(args)
	for _, a := range args {
		if a.IsError() {
			return a.WithMetadata(meta)
		}
	}
	if ec.FunctionBroker == nil {
		return value.NewError("no function broker configured", meta)
	}
	desc, ok := ec.FunctionBroker.Resolve(fqn)
	if !ok {
		return value.NewError("unresolved function: "+fqn, meta)
	}
	if desc.ParameterArity >= 0 && len(args) != desc.ParameterArity {
		return value.NewError("wrong argument count for "+fqn, meta)
	}
	result := desc.Invoke(args)
	return result.WithMetadata(value.MergeMetadata(meta, result.Metadata()))
}

func allArgsNonStream(args []CompiledExpression) bool {
	for _, a := range args {
		if a.Kind() == KindStream {
			return false
		}
	}
	return true
}

func anyDependsOnSubscription(args []CompiledExpression) bool {
	for _, a := range args {
		if a.DependsOnSubscription() {
			return true
		}
	}
	return false
}
