package compiler

import (
	"github.com/sentrie-sh/aspen/ast"
	"github.com/sentrie-sh/aspen/value"
	"github.com/sentrie-sh/aspen/xerr"
)

// Compile lowers node into a CompiledExpression under ctx, dispatching on
// the concrete ast.Expression type (§6 AST boundary enumerates exactly the
// kinds handled below).
func Compile(node ast.Expression, ctx *Context) (CompiledExpression, error) {
	switch n := node.(type) {
	case *ast.Literal:
		return compileLiteral(n)
	case *ast.Undefined:
		return Constant(value.NewUndefined(value.NewMetadata())), nil
	case *ast.Variable:
		return compileVariable(n, ctx)
	case *ast.SubscriptionElement:
		return compileSubscriptionElement(n)
	case *ast.ArrayLiteral:
		return compileArrayLiteral(n, ctx)
	case *ast.ObjectLiteral:
		return compileObjectLiteral(n, ctx)
	case *ast.BinaryOp:
		return compileBinaryOp(n, ctx)
	case *ast.UnaryOp:
		return compileUnaryOp(n, ctx)
	case *ast.StepAccess:
		return compileStepAccess(n, ctx)
	case *ast.FilterExpression:
		return compileFilterExpression(n, ctx)
	case *ast.RelativeValue:
		return compileRelativeValue(n, ctx)
	case *ast.RelativeIndex:
		return compileRelativeIndex(n, ctx)
	case *ast.FunctionCall:
		return compileFunctionCall(n, ctx)
	case *ast.AttributeAccess:
		return compileAttributeAccess(n, ctx)
	default:
		return CompiledExpression{}, xerr.ErrCompile("unknown AST node kind", node.String())
	}
}

// CompileTarget compiles a policy/policy-set target expression under the
// §4.5 rules that can be checked without a live subscription: most targets
// reference SubscriptionElement and so compile to Pure, not Constant — that
// is expected and fine. The only compile-time errors this enforces are the
// ones actually provable from constant-folding alone: a target that folds
// all the way to a Constant must be a non-error Boolean (an always-false,
// always-error, or always-non-boolean target is rejected here; anything
// that depends on the subscription is deferred to evaluation, where a
// non-boolean target result yields INDETERMINATE per the policy compiler).
func CompileTarget(node ast.Expression, ctx *Context) (CompiledExpression, error) {
	compiled, err := Compile(node, ctx.WithTargetPosition(true))
	if err != nil {
		return CompiledExpression{}, err
	}
	if v, isConst := compiled.AsConstant(); isConst {
		if v.IsError() {
			return CompiledExpression{}, xerr.ErrCompile("target expression always evaluates to an error", node.String())
		}
		if v.Kind() != value.KindBoolean {
			return CompiledExpression{}, xerr.ErrCompile("target expression must evaluate to boolean", node.String())
		}
		if !v.AsBoolean() {
			return CompiledExpression{}, xerr.ErrCompile("target expression is always false", node.String())
		}
	}
	return compiled, nil
}
