package compiler

import (
	"regexp"

	"github.com/sentrie-sh/aspen/ast"
	"github.com/sentrie-sh/aspen/value"
	"github.com/sentrie-sh/aspen/xerr"
)

// compileRegexMatch requires the right-hand pattern to fold to a constant
// string (§4.2): =~ compiles the regex once, at compile time, so a
// malformed pattern is a compile error rather than a per-evaluation Error
// value.
func compileRegexMatch(left, right CompiledExpression, n *ast.BinaryOp) (CompiledExpression, error) {
	pattern, isConst := right.AsConstant()
	if !isConst || pattern.Kind() != value.KindText {
		return CompiledExpression{}, xerr.ErrCompile("=~ pattern must be a constant string", n.String())
	}
	re, err := regexp.Compile(pattern.AsText())
	if err != nil {
		return CompiledExpression{}, xerr.ErrCompile("malformed regex: "+err.Error(), n.String())
	}

	return combine([]CompiledExpression{left}, func(args []value.Value) value.Value {
		l := args[0]
		meta := value.MergeMetadata(l.Metadata(), pattern.Metadata())
		if l.IsError() {
			return l.WithMetadata(meta)
		}
		if l.Kind() != value.KindText {
			return value.NewError("=~ left operand must be text", meta)
		}
		return value.NewBoolean(re.MatchString(l.AsText()), meta)
	}), nil
}
