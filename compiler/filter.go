package compiler

import (
	"context"

	"github.com/sentrie-sh/aspen/ast"
	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/stream"
	"github.com/sentrie-sh/aspen/value"
	"github.com/sentrie-sh/aspen/xerr"
)

// relativeValueVar and relativeIndexVar are the evalctx.Context variable
// names @ and # bind to inside a Condition's nested scope. Reusing the
// ordinary Variables map keeps the compiler from needing a second binding
// mechanism: @ and # are just variables whose names happen to be
// unparseable identifiers, so they can never collide with a real one.
const (
	relativeValueVar = "@"
	relativeIndexVar = "#"
)

// compileRelativeValue/compileRelativeIndex report dependsOnSubscription as
// false: @ and # are bound locally by the enclosing FilterExpression on
// every evaluation, not read from the AuthorizationSubscription or the
// outer variable scope, so a predicate built from nothing but @/# and
// literals can still fold at compile time (§4.2's worked chained-filter
// example folds fully, with no live subscription in sight).
func compileRelativeValue(n *ast.RelativeValue, ctx *Context) (CompiledExpression, error) {
	if !ctx.InCondition {
		return CompiledExpression{}, xerr.ErrCompile("@ used outside a condition", n.String())
	}
	return Pure(func(ec *evalctx.Context) value.Value {
		v, ok := ec.Lookup(relativeValueVar)
		if !ok {
			return value.NewError("@ has no binding", value.NewMetadata())
		}
		return v
	}, false), nil
}

func compileRelativeIndex(n *ast.RelativeIndex, ctx *Context) (CompiledExpression, error) {
	if !ctx.InCondition {
		return CompiledExpression{}, xerr.ErrCompile("# used outside a condition", n.String())
	}
	return Pure(func(ec *evalctx.Context) value.Value {
		v, ok := ec.Lookup(relativeIndexVar)
		if !ok {
			return value.NewError("# has no binding", value.NewMetadata())
		}
		return v
	}, false), nil
}

// compileFilterExpression implements target[?(predicate)] (§4.2):
// Predicate is compiled once, under a nested condition scope, and
// re-evaluated against every candidate element/entry with @ and # rebound.
func compileFilterExpression(n *ast.FilterExpression, ctx *Context) (CompiledExpression, error) {
	target, err := Compile(n.Target, ctx)
	if err != nil {
		return CompiledExpression{}, err
	}
	predicate, err := Compile(n.Predicate.Predicate, ctx.WithCondition())
	if err != nil {
		return CompiledExpression{}, err
	}

	// A Constant target whose predicate needs nothing beyond @/# can be
	// folded immediately, with only a throwaway context to carry the
	// per-element @/# bindings evalFilter installs.
	if tv, ok := target.AsConstant(); ok && predicate.Kind() != KindStream && !predicate.DependsOnSubscription() {
		return Constant(evalFilter(&evalctx.Context{}, tv, predicate)), nil
	}

	dependsOnSubscription := target.DependsOnSubscription() || predicate.DependsOnSubscription()

	if target.Kind() != KindStream {
		return Pure(func(ec *evalctx.Context) value.Value {
			return evalFilter(ec, target.EvalPure(ec), predicate)
		}, dependsOnSubscription), nil
	}

	return Stream(func(sctx context.Context, ec *evalctx.Context) stream.Stream {
		return stream.Map(sctx, target.Evaluate(sctx, ec), func(t value.Value) value.Value {
			return evalFilter(ec, t, predicate)
		})
	}, true), nil
}

func evalFilter(ec *evalctx.Context, target value.Value, predicate CompiledExpression) value.Value {
	if target.IsError() {
		return target
	}
	switch target.Kind() {
	case value.KindArray:
		elems := target.AsArray()
		kept := make([]value.Value, 0, len(elems))
		for i, e := range elems {
			keep, errv := evalPredicateAt(ec, predicate, e, value.NewNumberFromInt64(int64(i), value.NewMetadata()))
			if errv != nil {
				return *errv
			}
			if keep {
				kept = append(kept, e)
			}
		}
		return value.NewArrayUnfiltered(kept, target.Metadata())
	case value.KindObject:
		entries := target.AsObject()
		kept := make([]value.ObjectEntry, 0, len(entries))
		for _, e := range entries {
			keep, errv := evalPredicateAt(ec, predicate, e.Value, value.NewText(e.Key, value.NewMetadata()))
			if errv != nil {
				return *errv
			}
			if keep {
				kept = append(kept, e)
			}
		}
		return value.NewObject(kept, target.Metadata())
	default:
		keep, errv := evalPredicateAt(ec, predicate, target, value.NewUndefined(value.NewMetadata()))
		if errv != nil {
			return *errv
		}
		if keep {
			return target
		}
		return value.NewUndefined(target.Metadata())
	}
}

// evalPredicateAt binds @/# and evaluates predicate once. A Stream-kind
// predicate (one that itself reaches an attribute-finder) is reduced to
// its first emission here: a condition predicate is evaluated once per
// candidate element rather than holding a live subscription per element.
func evalPredicateAt(ec *evalctx.Context, predicate CompiledExpression, elem, idx value.Value) (bool, *value.Value) {
	nested := ec.With(relativeValueVar, elem).With(relativeIndexVar, idx)

	var pv value.Value
	if predicate.Kind() != KindStream {
		pv = predicate.EvalPure(nested)
	} else {
		pctx, cancel := context.WithCancel(context.Background())
		v, ok := <-predicate.Evaluate(pctx, nested)
		cancel()
		if !ok {
			v = value.NewError("condition predicate produced no value", value.NewMetadata())
		}
		pv = v
	}

	if pv.IsError() {
		return false, &pv
	}
	if pv.Kind() != value.KindBoolean {
		errv := value.NewError("Condition must evaluate to boolean", pv.Metadata())
		return false, &errv
	}
	return pv.AsBoolean(), nil
}
