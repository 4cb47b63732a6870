package compiler

import (
	"math/big"

	"github.com/sentrie-sh/aspen/ast"
	"github.com/sentrie-sh/aspen/trinary"
	"github.com/sentrie-sh/aspen/value"
)

func compileLiteral(n *ast.Literal) (CompiledExpression, error) {
	return Constant(literalValue(n.Value)), nil
}

// literalValue converts the raw Go value an ast.Literal was built with
// into a value.Value. Accepted shapes: nil, bool, string, any Go numeric
// type, *big.Float, trinary.Value (the three-valued `unknown` literal).
func literalValue(raw any) value.Value {
	meta := value.NewMetadata()
	switch v := raw.(type) {
	case nil:
		return value.NewNull(meta)
	case bool:
		return value.NewBoolean(v, meta)
	case string:
		return value.NewText(v, meta)
	case int:
		return value.NewNumberFromInt64(int64(v), meta)
	case int64:
		return value.NewNumberFromInt64(v, meta)
	case float64:
		return value.NewNumberFromFloat64(v, meta)
	case *big.Float:
		return value.NewNumber(v, meta)
	case trinary.Value:
		switch v {
		case trinary.True:
			return value.NewBoolean(true, meta)
		case trinary.False:
			return value.NewBoolean(false, meta)
		default:
			return value.NewUndefined(meta)
		}
	default:
		return value.NewError("unsupported literal type", meta)
	}
}
