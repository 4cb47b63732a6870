package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentrie-sh/aspen/ast"
	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/value"
)

func lit(v any) *ast.Literal { return ast.NewLiteral(ast.Position{}, v) }

func num(n int64) *ast.Literal { return lit(n) }

func emptyEC() *evalctx.Context {
	return evalctx.New("pdp", "cfg", "sub", evalctx.Subscription{
		Subject:     value.NewText("alice", value.NewMetadata()),
		Action:      value.NewText("read", value.NewMetadata()),
		Resource:    value.NewText("doc", value.NewMetadata()),
		Environment: value.NewNull(value.NewMetadata()),
	}, nil, nil, nil)
}

func mustConstant(t *testing.T, c CompiledExpression) value.Value {
	t.Helper()
	v, ok := c.AsConstant()
	require.True(t, ok, "expected Constant, got %s", c.Kind())
	return v
}

func TestCompileLiteralIsConstant(t *testing.T) {
	c, err := Compile(lit(int64(42)), NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.Equal(t, value.KindNumber, v.Kind())
	require.Equal(t, int64(42), value.TruncateToInt64(v.AsNumber()))
}

func TestCompileVariableUnresolvedIsCompileError(t *testing.T) {
	_, err := Compile(ast.NewVariable(ast.Position{}, "x"), NewContext(nil))
	require.Error(t, err)
}

func TestCompileVariableResolvesAtEvaluation(t *testing.T) {
	ctx := NewContext(nil).WithVariable("x")
	c, err := Compile(ast.NewVariable(ast.Position{}, "x"), ctx)
	require.NoError(t, err)
	require.Equal(t, KindPure, c.Kind())

	ec := emptyEC().With("x", value.NewNumberFromInt64(7, value.NewMetadata()))
	v := c.EvalPure(ec)
	require.Equal(t, int64(7), value.TruncateToInt64(v.AsNumber()))
}

func TestArrayLiteralConstantFoldsAndFiltersUndefined(t *testing.T) {
	elems := []ast.Expression{num(1), ast.NewUndefined(ast.Position{}), num(2)}
	c, err := Compile(ast.NewArrayLiteral(ast.Position{}, elems), NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.Equal(t, value.KindArray, v.Kind())
	require.Len(t, v.AsArray(), 2)
}

func TestObjectLiteralConstantFolds(t *testing.T) {
	fields := []ast.ObjectField{{Key: "a", Value: num(1)}, {Key: "b", Value: num(2)}}
	c, err := Compile(ast.NewObjectLiteral(ast.Position{}, fields), NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.Equal(t, value.KindObject, v.Kind())
	av, ok := v.ObjectGet("a")
	require.True(t, ok)
	require.Equal(t, int64(1), value.TruncateToInt64(av.AsNumber()))
}

func TestBinaryOpAddNumbers(t *testing.T) {
	c, err := Compile(ast.NewBinaryOp(ast.Position{}, ast.OpAdd, num(2), num(3)), NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.Equal(t, int64(5), value.TruncateToInt64(v.AsNumber()))
}

func TestBinaryOpAddConcatenatesText(t *testing.T) {
	c, err := Compile(ast.NewBinaryOp(ast.Position{}, ast.OpAdd, lit("foo"), lit("bar")), NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.Equal(t, "foobar", v.AsText())
}

func TestBinaryOpAddMixedKindsIsError(t *testing.T) {
	c, err := Compile(ast.NewBinaryOp(ast.Position{}, ast.OpAdd, num(2), lit("bar")), NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.True(t, v.IsError())
}

func TestBinaryOpDivisionByZeroIsError(t *testing.T) {
	c, err := Compile(ast.NewBinaryOp(ast.Position{}, ast.OpDiv, num(1), num(0)), NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.True(t, v.IsError())
}

func TestBinaryOpOrderingRequiresSameKind(t *testing.T) {
	c, err := Compile(ast.NewBinaryOp(ast.Position{}, ast.OpLt, num(1), lit("a")), NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.True(t, v.IsError())
}

func TestUnaryNot(t *testing.T) {
	c, err := Compile(ast.NewUnaryOp(ast.Position{}, ast.OpNot, lit(true)), NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.False(t, v.AsBoolean())
}

func TestLazyAndStillCompilesBothSides(t *testing.T) {
	// Variable resolution happens at compile time for both operands,
	// regardless of runtime short-circuiting: an unresolved right operand
	// is a compile error even though it may never execute.
	ctx := NewContext(nil)
	expr := ast.NewBinaryOp(ast.Position{}, ast.OpAnd, lit(false), ast.NewVariable(ast.Position{}, "unresolved"))
	_, err := Compile(expr, ctx)
	require.Error(t, err)
}

func TestLazyAndConstantFalseFolds(t *testing.T) {
	expr := ast.NewBinaryOp(ast.Position{}, ast.OpAnd, lit(false), lit(true))
	c, err := Compile(expr, NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.False(t, v.AsBoolean())
}

func TestLazyOrConstantTrueFolds(t *testing.T) {
	expr := ast.NewBinaryOp(ast.Position{}, ast.OpOr, lit(true), lit(false))
	c, err := Compile(expr, NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.True(t, v.AsBoolean())
}

func TestLazyAndBothTrueEvaluatesBoth(t *testing.T) {
	expr := ast.NewBinaryOp(ast.Position{}, ast.OpAnd, lit(true), lit(true))
	c, err := Compile(expr, NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.True(t, v.AsBoolean())
}

// TestLazyAndNonBooleanLeftIsErrorRegardlessOfRight guards against joining
// a non-decisive left operand through raw Kleene And/Or: the left operand
// of && is always evaluated, so a non-Boolean left must error no matter
// what the right operand is — even a right operand that would otherwise be
// "decisive" under Kleene logic (False AND anything = False).
func TestLazyAndNonBooleanLeftIsErrorRegardlessOfRight(t *testing.T) {
	expr := ast.NewBinaryOp(ast.Position{}, ast.OpAnd, num(5), lit(false))
	c, err := Compile(expr, NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.True(t, v.IsError())
}

func TestEagerBitAndBothTrue(t *testing.T) {
	expr := ast.NewBinaryOp(ast.Position{}, ast.OpBitAnd, lit(true), lit(true))
	c, err := Compile(expr, NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.True(t, v.AsBoolean())
}

func TestEagerBitOrRequiresBooleanOperands(t *testing.T) {
	expr := ast.NewBinaryOp(ast.Position{}, ast.OpBitOr, num(1), lit(true))
	c, err := Compile(expr, NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.True(t, v.IsError())
}

func TestEagerBitXorDiffers(t *testing.T) {
	expr := ast.NewBinaryOp(ast.Position{}, ast.OpBitXor, lit(true), lit(false))
	c, err := Compile(expr, NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.True(t, v.AsBoolean())
}

func TestInOperatorArrayMembership(t *testing.T) {
	arr := ast.NewArrayLiteral(ast.Position{}, []ast.Expression{lit("a"), lit("b")})
	expr := ast.NewBinaryOp(ast.Position{}, ast.OpIn, lit("b"), arr)
	c, err := Compile(expr, NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.True(t, v.AsBoolean())
}

func TestInOperatorObjectTestsValuesNotKeys(t *testing.T) {
	obj := ast.NewObjectLiteral(ast.Position{}, []ast.ObjectField{{Key: "name", Value: lit("alice")}})
	// "name" is a key, not a value, so it must not be found.
	keyLookup := ast.NewBinaryOp(ast.Position{}, ast.OpIn, lit("name"), obj)
	c, err := Compile(keyLookup, NewContext(nil))
	require.NoError(t, err)
	require.False(t, mustConstant(t, c).AsBoolean())

	valueLookup := ast.NewBinaryOp(ast.Position{}, ast.OpIn, lit("alice"), obj)
	c, err = Compile(valueLookup, NewContext(nil))
	require.NoError(t, err)
	require.True(t, mustConstant(t, c).AsBoolean())
}

func TestInOperatorNonContainerRightOperandIsError(t *testing.T) {
	expr := ast.NewBinaryOp(ast.Position{}, ast.OpIn, lit("a"), lit("b"))
	c, err := Compile(expr, NewContext(nil))
	require.NoError(t, err)
	require.True(t, mustConstant(t, c).IsError())
}

func TestStepKeyOnObject(t *testing.T) {
	obj := ast.NewObjectLiteral(ast.Position{}, []ast.ObjectField{{Key: "name", Value: lit("alice")}})
	step := ast.NewStepAccess(ast.Position{}, obj, ast.StepKey, []ast.Expression{lit("name")})
	c, err := Compile(step, NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.Equal(t, "alice", v.AsText())
}

func TestStepIndexNegative(t *testing.T) {
	arr := ast.NewArrayLiteral(ast.Position{}, []ast.Expression{num(1), num(2), num(3)})
	step := ast.NewStepAccess(ast.Position{}, arr, ast.StepIndex, []ast.Expression{num(-1)})
	c, err := Compile(step, NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.Equal(t, int64(3), value.TruncateToInt64(v.AsNumber()))
}

func TestStepIndexOutOfRangeIsError(t *testing.T) {
	arr := ast.NewArrayLiteral(ast.Position{}, []ast.Expression{num(1), num(2), num(3)})
	step := ast.NewStepAccess(ast.Position{}, arr, ast.StepIndex, []ast.Expression{num(-4)})
	c, err := Compile(step, NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.True(t, v.IsError())
}

func TestStepUnionArrayOutOfRangeSelectorIsError(t *testing.T) {
	arr := ast.NewArrayLiteral(ast.Position{}, []ast.Expression{num(1), num(2), num(3)})
	step := ast.NewStepAccess(ast.Position{}, arr, ast.StepUnion, []ast.Expression{num(0), num(9)})
	c, err := Compile(step, NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.True(t, v.IsError())
}

func TestStepKeyProjectsAcrossArray(t *testing.T) {
	obj1 := ast.NewObjectLiteral(ast.Position{}, []ast.ObjectField{{Key: "name", Value: lit("alice")}})
	obj2 := ast.NewObjectLiteral(ast.Position{}, []ast.ObjectField{{Key: "name", Value: lit("bob")}})
	arr := ast.NewArrayLiteral(ast.Position{}, []ast.Expression{obj1, obj2})
	step := ast.NewStepAccess(ast.Position{}, arr, ast.StepKey, []ast.Expression{lit("name")})
	c, err := Compile(step, NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.Equal(t, value.KindArray, v.Kind())
	require.Len(t, v.AsArray(), 2)
	require.Equal(t, "alice", v.AsArray()[0].AsText())
	require.Equal(t, "bob", v.AsArray()[1].AsText())
}

// TestFilterThenProjectionCanonicalExample reproduces the documented bug
// (array[?(value in @.field)].projection returning Undefined instead of
// the filtered projection): filtering by `in` and then projecting a field
// must yield the matching values, not Undefined.
func TestFilterThenProjectionCanonicalExample(t *testing.T) {
	wantedTags := ast.NewArrayLiteral(ast.Position{}, []ast.Expression{lit("prod")})
	obj1 := ast.NewObjectLiteral(ast.Position{}, []ast.ObjectField{
		{Key: "tag", Value: lit("prod")},
		{Key: "name", Value: lit("alice")},
	})
	obj2 := ast.NewObjectLiteral(ast.Position{}, []ast.ObjectField{
		{Key: "tag", Value: lit("dev")},
		{Key: "name", Value: lit("bob")},
	})
	arr := ast.NewArrayLiteral(ast.Position{}, []ast.Expression{obj1, obj2})

	tagField := ast.NewStepAccess(ast.Position{}, ast.NewRelativeValue(ast.Position{}), ast.StepKey, []ast.Expression{lit("tag")})
	pred := ast.NewCondition(ast.Position{}, ast.NewBinaryOp(ast.Position{}, ast.OpIn, tagField, wantedTags))
	filtered := ast.NewFilterExpression(ast.Position{}, arr, pred)
	projected := ast.NewStepAccess(ast.Position{}, filtered, ast.StepKey, []ast.Expression{lit("name")})

	c, err := Compile(projected, NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.Equal(t, value.KindArray, v.Kind())
	require.Len(t, v.AsArray(), 1)
	require.Equal(t, "alice", v.AsArray()[0].AsText())
}

func TestStepSliceOpenBounds(t *testing.T) {
	arr := ast.NewArrayLiteral(ast.Position{}, []ast.Expression{num(1), num(2), num(3), num(4)})
	step := ast.NewStepAccess(ast.Position{}, arr, ast.StepSlice, []ast.Expression{nil, num(2)})
	c, err := Compile(step, NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.Len(t, v.AsArray(), 2)
}

func TestStepWildcardOnObject(t *testing.T) {
	obj := ast.NewObjectLiteral(ast.Position{}, []ast.ObjectField{{Key: "a", Value: num(1)}, {Key: "b", Value: num(2)}})
	step := ast.NewStepAccess(ast.Position{}, obj, ast.StepWildcard, nil)
	c, err := Compile(step, NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.Len(t, v.AsArray(), 2)
}

func TestStepRecursiveDescent(t *testing.T) {
	inner := ast.NewObjectLiteral(ast.Position{}, []ast.ObjectField{{Key: "id", Value: num(2)}})
	outer := ast.NewObjectLiteral(ast.Position{}, []ast.ObjectField{
		{Key: "id", Value: num(1)},
		{Key: "child", Value: inner},
	})
	step := ast.NewStepAccess(ast.Position{}, outer, ast.StepRecursiveDescent, []ast.Expression{lit("id")})
	c, err := Compile(step, NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.Len(t, v.AsArray(), 2)
}

// TestFilterChainCanonicalExample is the spec's worked example:
// [1, 2, 3, 4, 5][?(@ > 2)][?(@ < 5)] compiles to Constant([3, 4]).
func TestFilterChainCanonicalExample(t *testing.T) {
	arr := ast.NewArrayLiteral(ast.Position{}, []ast.Expression{num(1), num(2), num(3), num(4), num(5)})

	gt2 := ast.NewCondition(ast.Position{}, ast.NewBinaryOp(ast.Position{}, ast.OpGt, ast.NewRelativeValue(ast.Position{}), num(2)))
	firstFilter := ast.NewFilterExpression(ast.Position{}, arr, gt2)

	lt5 := ast.NewCondition(ast.Position{}, ast.NewBinaryOp(ast.Position{}, ast.OpLt, ast.NewRelativeValue(ast.Position{}), num(5)))
	secondFilter := ast.NewFilterExpression(ast.Position{}, firstFilter, lt5)

	c, err := Compile(secondFilter, NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.Equal(t, value.KindArray, v.Kind())
	require.Len(t, v.AsArray(), 2)
	require.Equal(t, int64(3), value.TruncateToInt64(v.AsArray()[0].AsNumber()))
	require.Equal(t, int64(4), value.TruncateToInt64(v.AsArray()[1].AsNumber()))
}

func TestRelativeValueOutsideConditionIsCompileError(t *testing.T) {
	_, err := Compile(ast.NewRelativeValue(ast.Position{}), NewContext(nil))
	require.Error(t, err)
}

func TestRegexMatchRequiresConstantPattern(t *testing.T) {
	expr := ast.NewBinaryOp(ast.Position{}, ast.OpRegexMatch, lit("abc123"), lit("^abc"))
	c, err := Compile(expr, NewContext(nil))
	require.NoError(t, err)
	v := mustConstant(t, c)
	require.True(t, v.AsBoolean())
}

func TestRegexMatchMalformedPatternIsCompileError(t *testing.T) {
	expr := ast.NewBinaryOp(ast.Position{}, ast.OpRegexMatch, lit("abc"), lit("("))
	_, err := Compile(expr, NewContext(nil))
	require.Error(t, err)
}

func TestFunctionCallResolvesAgainstBroker(t *testing.T) {
	call := ast.NewFunctionCall(ast.Position{}, "math.double", []ast.Expression{num(21)})
	c, err := Compile(call, NewContext(nil))
	require.NoError(t, err)
	require.Equal(t, KindPure, c.Kind())

	ec := emptyEC()
	ec.FunctionBroker = stubBroker{}
	v := c.EvalPure(ec)
	require.Equal(t, int64(42), value.TruncateToInt64(v.AsNumber()))
}

type stubBroker struct{}

func (stubBroker) Resolve(name string) (evalctx.FunctionDescriptor, bool) {
	if name != "math.double" {
		return evalctx.FunctionDescriptor{}, false
	}
	return evalctx.FunctionDescriptor{
		Name:           name,
		ParameterArity: 1,
		Pure:           true,
		Invoke: func(args []value.Value) value.Value {
			n := value.TruncateToInt64(args[0].AsNumber())
			return value.NewNumberFromInt64(n*2, value.NewMetadata())
		},
	}, true
}

func TestCompileTargetRejectsAlwaysFalse(t *testing.T) {
	_, err := CompileTarget(lit(false), NewContext(nil))
	require.Error(t, err)
}

func TestCompileTargetAcceptsSubscriptionDependentExpression(t *testing.T) {
	target := ast.NewBinaryOp(ast.Position{}, ast.OpEq,
		ast.NewSubscriptionElement(ast.Position{}, ast.SubscriptionAction), lit("read"))
	c, err := CompileTarget(target, NewContext(nil))
	require.NoError(t, err)
	require.NotEqual(t, KindConstant, c.Kind())
}
