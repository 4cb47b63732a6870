package compiler

import (
	"github.com/sentrie-sh/aspen/ast"
	"github.com/sentrie-sh/aspen/value"
)

func compileUnaryOp(n *ast.UnaryOp, ctx *Context) (CompiledExpression, error) {
	operand, err := Compile(n.Operand, ctx)
	if err != nil {
		return CompiledExpression{}, err
	}
	op := n.Op
	return combine([]CompiledExpression{operand}, func(args []value.Value) value.Value {
		return evalUnary(op, args[0])
	}), nil
}

func evalUnary(op ast.UnaryOperator, v value.Value) value.Value {
	if v.IsError() {
		return v
	}
	switch op {
	case ast.OpNot:
		if v.Kind() != value.KindBoolean {
			return value.NewError("! requires a boolean operand", v.Metadata())
		}
		return value.NewBoolean(!v.AsBoolean(), v.Metadata())
	default: // ast.OpNeg
		if v.Kind() != value.KindNumber {
			return value.NewError("unary - requires a number operand", v.Metadata())
		}
		return value.NewNumber(value.Neg(v.AsNumber()), v.Metadata())
	}
}
