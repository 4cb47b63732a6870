package compiler

import (
	"context"
	"strings"

	"github.com/sentrie-sh/aspen/ast"
	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/stream"
	"github.com/sentrie-sh/aspen/trinary"
	"github.com/sentrie-sh/aspen/value"
)

func compileBinaryOp(n *ast.BinaryOp, ctx *Context) (CompiledExpression, error) {
	left, err := Compile(n.Left, ctx)
	if err != nil {
		return CompiledExpression{}, err
	}
	right, err := Compile(n.Right, ctx)
	if err != nil {
		return CompiledExpression{}, err
	}

	if n.Op.IsLazyBoolean() {
		return compileLazyBoolean(n.Op, left, right), nil
	}
	if n.Op == ast.OpRegexMatch {
		return compileRegexMatch(left, right, n)
	}

	op := n.Op
	return combine([]CompiledExpression{left, right}, func(args []value.Value) value.Value {
		return evalBinary(op, args[0], args[1])
	}), nil
}

// evalBinary implements §4.2's arithmetic and comparison table. An Error
// operand on either side short-circuits to that Error (the first one
// found, left before right), carrying the merged metadata of both operands
// since both were, in fact, evaluated.
func evalBinary(op ast.BinaryOperator, l, r value.Value) value.Value {
	meta := value.MergeMetadata(l.Metadata(), r.Metadata())
	if l.IsError() {
		return l.WithMetadata(meta)
	}
	if r.IsError() {
		return r.WithMetadata(meta)
	}

	switch op {
	case ast.OpEq:
		return value.NewBoolean(l.Equals(r), meta)
	case ast.OpNeq:
		return value.NewBoolean(!l.Equals(r), meta)
	case ast.OpAdd:
		return evalAdd(l, r, meta)
	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		return evalArith(op, l, r, meta)
	case ast.OpGt, ast.OpGte, ast.OpLt, ast.OpLte:
		return evalOrdering(op, l, r, meta)
	case ast.OpIn:
		return evalIn(l, r, meta)
	case ast.OpBitAnd, ast.OpBitOr, ast.OpBitXor:
		return evalEagerBoolean(op, l, r, meta)
	default:
		return value.NewError("unsupported operator "+op.String(), meta)
	}
}

// evalIn implements §4.2's `in` membership operator: element membership for
// an array right operand, *value* membership (not key membership) for an
// object right operand. Anything else on the right is Error. Membership is
// tested with Value.Equals, the same structural equality `==` uses.
func evalIn(l, r value.Value, meta value.Metadata) value.Value {
	switch r.Kind() {
	case value.KindArray:
		for _, e := range r.AsArray() {
			if l.Equals(e) {
				return value.NewBoolean(true, meta)
			}
		}
		return value.NewBoolean(false, meta)
	case value.KindObject:
		for _, e := range r.AsObject() {
			if l.Equals(e.Value) {
				return value.NewBoolean(true, meta)
			}
		}
		return value.NewBoolean(false, meta)
	default:
		return value.NewError("in requires an array or object", meta)
	}
}

// evalEagerBoolean implements the eager &, |, ^ variants (§4.2): unlike &&
// and ||, both operands have already been unconditionally evaluated by
// combine() by the time evalBinary runs, and their metadata has already
// merged unconditionally above — there is no short-circuited branch to
// protect here, which is exactly what distinguishes these from OpAnd/OpOr.
func evalEagerBoolean(op ast.BinaryOperator, l, r value.Value, meta value.Metadata) value.Value {
	if l.Kind() != value.KindBoolean || r.Kind() != value.KindBoolean {
		return value.NewError("Boolean operation requires Boolean values", meta)
	}
	lb, rb := l.AsBoolean(), r.AsBoolean()
	var result bool
	switch op {
	case ast.OpBitAnd:
		result = lb && rb
	case ast.OpBitOr:
		result = lb || rb
	default: // ast.OpBitXor
		result = lb != rb
	}
	return value.NewBoolean(result, meta)
}

// evalAdd is the one arithmetic operator that also means text concatenation
// (§4.2): two Text operands concatenate, two Numbers add, mixing Text with
// anything else is Error.
func evalAdd(l, r value.Value, meta value.Metadata) value.Value {
	if l.Kind() == value.KindText || r.Kind() == value.KindText {
		if l.Kind() != value.KindText || r.Kind() != value.KindText {
			return value.NewError("+ cannot mix text and non-text operands", meta)
		}
		return value.NewText(l.AsText()+r.AsText(), meta)
	}
	if l.Kind() != value.KindNumber || r.Kind() != value.KindNumber {
		return value.NewError("+ requires two numbers or two strings", meta)
	}
	return value.NewNumber(value.Add(l.AsNumber(), r.AsNumber()), meta)
}

func evalArith(op ast.BinaryOperator, l, r value.Value, meta value.Metadata) value.Value {
	if l.Kind() != value.KindNumber || r.Kind() != value.KindNumber {
		return value.NewError(op.String()+" requires two numbers", meta)
	}
	switch op {
	case ast.OpSub:
		return value.NewNumber(value.Sub(l.AsNumber(), r.AsNumber()), meta)
	case ast.OpMul:
		return value.NewNumber(value.Mul(l.AsNumber(), r.AsNumber()), meta)
	case ast.OpDiv:
		q, ok := value.Div(l.AsNumber(), r.AsNumber())
		if !ok {
			return value.NewError("division by zero", meta)
		}
		return value.NewNumber(q, meta)
	default: // ast.OpMod
		m, ok := value.Mod(l.AsNumber(), r.AsNumber())
		if !ok {
			return value.NewError("modulo by zero", meta)
		}
		return value.NewNumber(m, meta)
	}
}

// evalOrdering requires both operands the same orderable kind: two Numbers
// or two Text values. Anything else (including Number-vs-Text) is Error.
func evalOrdering(op ast.BinaryOperator, l, r value.Value, meta value.Metadata) value.Value {
	var cmp int
	switch {
	case l.Kind() == value.KindNumber && r.Kind() == value.KindNumber:
		cmp = value.Compare(l.AsNumber(), r.AsNumber())
	case l.Kind() == value.KindText && r.Kind() == value.KindText:
		cmp = strings.Compare(l.AsText(), r.AsText())
	default:
		return value.NewError("comparison requires two numbers or two strings", meta)
	}
	switch op {
	case ast.OpGt:
		return value.NewBoolean(cmp > 0, meta)
	case ast.OpGte:
		return value.NewBoolean(cmp >= 0, meta)
	case ast.OpLt:
		return value.NewBoolean(cmp < 0, meta)
	default: // ast.OpLte
		return value.NewBoolean(cmp <= 0, meta)
	}
}

// compileLazyBoolean implements && and || with short-circuit evaluation
// (§4.2): the right operand, including any attribute subscription it
// opens, is never evaluated once the left operand alone decides the
// outcome (False for &&, True for ||), and its metadata never joins the
// result in that case.
func compileLazyBoolean(op ast.BinaryOperator, left, right CompiledExpression) CompiledExpression {
	isOr := op == ast.OpOr

	if lv, ok := left.AsConstant(); ok && lv.ToTrinary() == decisiveOutcome(isOr) {
		return Constant(value.NewBoolean(isOr, lv.Metadata()))
	}

	if lv, ok := left.AsConstant(); ok {
		if rv, ok := right.AsConstant(); ok {
			return Constant(joinLazyBoolean(isOr, lv, rv))
		}
	}

	dependsOnSubscription := left.DependsOnSubscription() || right.DependsOnSubscription()

	if left.Kind() != KindStream && right.Kind() != KindStream {
		return Pure(func(ec *evalctx.Context) value.Value {
			lv := left.EvalPure(ec)
			if lv.ToTrinary() == decisiveOutcome(isOr) {
				return value.NewBoolean(isOr, lv.Metadata())
			}
			return joinLazyBoolean(isOr, lv, right.EvalPure(ec))
		}, dependsOnSubscription)
	}

	return Stream(func(ctx context.Context, ec *evalctx.Context) stream.Stream {
		leftStream := left.Evaluate(ctx, ec)
		out := make(chan value.Value)
		go func() {
			defer close(out)
			for lv := range leftStream {
				var result value.Value
				if lv.ToTrinary() == decisiveOutcome(isOr) {
					result = value.NewBoolean(isOr, lv.Metadata())
				} else {
					rctx, cancel := context.WithCancel(ctx)
					rv, ok := <-right.Evaluate(rctx, ec)
					cancel()
					if !ok {
						return
					}
					result = joinLazyBoolean(isOr, lv, rv)
				}
				select {
				case out <- result:
				case <-ctx.Done():
					return
				}
			}
		}()
		return out
	}, true)
}

func decisiveOutcome(isOr bool) trinary.Value {
	if isOr {
		return trinary.True
	}
	return trinary.False
}

// joinLazyBoolean combines a non-decisive left operand with the evaluated
// right operand. The left operand is always evaluated (only the right one
// is ever skipped by short-circuiting), so a non-Boolean left must error
// regardless of what the right operand turns out to be: feeding raw values
// through Kleene And/Or would let a non-decisive Unknown on one side hide a
// bad Boolean kind on the other (e.g. Kleene False AND x = False for any x,
// which would let `5 && false` silently return false instead of Error).
func joinLazyBoolean(isOr bool, l, r value.Value) value.Value {
	meta := value.MergeMetadata(l.Metadata(), r.Metadata())
	if l.Kind() != value.KindBoolean || r.Kind() != value.KindBoolean {
		return value.NewError("boolean operand required", meta)
	}
	var combined trinary.Value
	if isOr {
		combined = l.ToTrinary().Or(r.ToTrinary())
	} else {
		combined = l.ToTrinary().And(r.ToTrinary())
	}
	switch combined {
	case trinary.True:
		return value.NewBoolean(true, meta)
	default:
		return value.NewBoolean(false, meta)
	}
}
