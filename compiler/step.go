package compiler

import (
	"github.com/binaek/gocoll/collection"

	"github.com/sentrie-sh/aspen/ast"
	"github.com/sentrie-sh/aspen/value"
	"github.com/sentrie-sh/aspen/xerr"
)

// compileStepAccess lowers one chained navigation step (§4.2). Key,
// wildcard and recursive-descent steps take their argument as a literal at
// compile time; index, slice and union steps may take arbitrary
// expressions and so participate in the ordinary combine() classification.
func compileStepAccess(n *ast.StepAccess, ctx *Context) (CompiledExpression, error) {
	target, err := Compile(n.Target, ctx)
	if err != nil {
		return CompiledExpression{}, err
	}

	switch n.Kind {
	case ast.StepKey:
		key, err := literalStringArg(n, 0)
		if err != nil {
			return CompiledExpression{}, err
		}
		return combine([]CompiledExpression{target}, func(args []value.Value) value.Value {
			return stepKey(args[0], key)
		}), nil

	case ast.StepWildcard:
		return combine([]CompiledExpression{target}, func(args []value.Value) value.Value {
			return stepWildcard(args[0])
		}), nil

	case ast.StepRecursiveDescent:
		field, err := literalStringArg(n, 0)
		if err != nil {
			return CompiledExpression{}, err
		}
		return combine([]CompiledExpression{target}, func(args []value.Value) value.Value {
			return stepRecursiveDescent(args[0], field)
		}), nil

	case ast.StepIndex:
		idx, err := Compile(n.Args[0], ctx)
		if err != nil {
			return CompiledExpression{}, err
		}
		return combine([]CompiledExpression{target, idx}, func(args []value.Value) value.Value {
			return stepIndex(args[0], args[1])
		}), nil

	case ast.StepUnion:
		children := make([]CompiledExpression, 1, len(n.Args)+1)
		children[0] = target
		for _, a := range n.Args {
			c, err := Compile(a, ctx)
			if err != nil {
				return CompiledExpression{}, err
			}
			children = append(children, c)
		}
		return combine(children, func(args []value.Value) value.Value {
			return stepUnion(args[0], args[1:])
		}), nil

	case ast.StepSlice:
		return compileStepSlice(n, ctx, target)

	default:
		return CompiledExpression{}, xerr.ErrCompile("unknown step kind", n.String())
	}
}

func literalStringArg(n *ast.StepAccess, i int) (string, error) {
	lit, ok := n.Args[i].(*ast.Literal)
	if !ok {
		return "", xerr.ErrCompile("step field name must be a literal string", n.String())
	}
	s, ok := lit.Value.(string)
	if !ok {
		return "", xerr.ErrCompile("step field name must be a literal string", n.String())
	}
	return s, nil
}

// compileStepSlice handles the two independently-optional bounds: either
// may be the Go nil Expression, meaning "from the start"/"to the end".
func compileStepSlice(n *ast.StepAccess, ctx *Context, target CompiledExpression) (CompiledExpression, error) {
	haveFrom, haveTo := n.Args[0] != nil, n.Args[1] != nil
	children := []CompiledExpression{target}
	if haveFrom {
		c, err := Compile(n.Args[0], ctx)
		if err != nil {
			return CompiledExpression{}, err
		}
		children = append(children, c)
	}
	if haveTo {
		c, err := Compile(n.Args[1], ctx)
		if err != nil {
			return CompiledExpression{}, err
		}
		children = append(children, c)
	}
	return combine(children, func(args []value.Value) value.Value {
		rest := args[1:]
		var fromV, toV *value.Value
		i := 0
		if haveFrom {
			fromV = &rest[i]
			i++
		}
		if haveTo {
			toV = &rest[i]
		}
		return stepSlice(args[0], fromV, toV)
	}), nil
}

// carry merges the container's metadata into a step result, so secrecy and
// attribute provenance flow down through navigation the same way they flow
// through any other operator (§4.1).
func carry(v value.Value, extra value.Metadata) value.Value {
	return v.WithMetadata(value.MergeMetadata(v.Metadata(), extra))
}

func stepKey(v value.Value, key string) value.Value {
	if v.IsError() {
		return v
	}
	if v.IsUndefined() {
		return v
	}
	switch v.Kind() {
	case value.KindObject:
		val, ok := v.ObjectGet(key)
		if !ok {
			return value.NewUndefined(v.Metadata())
		}
		return carry(val, v.Metadata())
	case value.KindArray:
		return projectArrayKey(v, key)
	default:
		return value.NewError("key access requires an object", v.Metadata())
	}
}

// projectArrayKey implements array projection: `.field` applied directly
// to an array (as follows a condition-step filter, e.g.
// `array[?(value in @.field)].projection`) maps the key access across every
// surviving element in order rather than erroring on the array itself.
// An element that isn't an object, or that lacks the field, is dropped —
// the same silent-drop rule stepUnion's object branch already applies to a
// missing key — so a filtered array followed by `.field` yields the
// filtered projection instead of Undefined.
func projectArrayKey(v value.Value, key string) value.Value {
	arr := v.AsArray()
	results := make([]value.Value, 0, len(arr))
	for _, e := range arr {
		if e.IsError() {
			return carry(e, v.Metadata())
		}
		if e.Kind() != value.KindObject {
			continue
		}
		val, ok := e.ObjectGet(key)
		if !ok {
			continue
		}
		results = append(results, carry(val, e.Metadata()))
	}
	return value.NewArrayUnfiltered(results, v.Metadata())
}

func stepIndex(v, idx value.Value) value.Value {
	if v.IsError() {
		return v
	}
	if idx.IsError() {
		return carry(idx, v.Metadata())
	}
	if v.IsUndefined() {
		return v
	}
	if v.Kind() != value.KindArray {
		return value.NewError("index access requires an array", value.MergeMetadata(v.Metadata(), idx.Metadata()))
	}
	if idx.Kind() != value.KindNumber {
		return value.NewError("index must be a number", value.MergeMetadata(v.Metadata(), idx.Metadata()))
	}
	meta := value.MergeMetadata(v.Metadata(), idx.Metadata())
	arr := v.AsArray()
	i := value.TruncateToInt64(idx.AsNumber())
	n := int64(len(arr))
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return value.NewError("index out of bounds", meta)
	}
	return carry(arr[i], meta)
}

func stepSlice(v value.Value, fromV, toV *value.Value) value.Value {
	if v.IsError() {
		return v
	}
	if v.IsUndefined() {
		return v
	}
	if v.Kind() != value.KindArray {
		return value.NewError("slice access requires an array", v.Metadata())
	}
	meta := v.Metadata()
	arr := v.AsArray()
	n := int64(len(arr))

	from, to := int64(0), n
	if fromV != nil {
		if fromV.IsError() {
			return carry(*fromV, meta)
		}
		if fromV.Kind() != value.KindNumber {
			return value.NewError("slice bound must be a number", meta)
		}
		from = value.TruncateToInt64(fromV.AsNumber())
		meta = value.MergeMetadata(meta, fromV.Metadata())
	}
	if toV != nil {
		if toV.IsError() {
			return carry(*toV, meta)
		}
		if toV.Kind() != value.KindNumber {
			return value.NewError("slice bound must be a number", meta)
		}
		to = value.TruncateToInt64(toV.AsNumber())
		meta = value.MergeMetadata(meta, toV.Metadata())
	}
	if from < 0 {
		from += n
	}
	if to < 0 {
		to += n
	}
	if from < 0 {
		from = 0
	}
	if to > n {
		to = n
	}
	if from > to {
		from = to
	}
	return value.NewArrayUnfiltered(append([]value.Value{}, arr[from:to]...), meta)
}

func stepUnion(v value.Value, selectors []value.Value) value.Value {
	if v.IsError() {
		return v
	}
	if v.IsUndefined() {
		return v
	}
	meta := v.Metadata()
	for _, s := range selectors {
		meta = value.MergeMetadata(meta, s.Metadata())
	}

	switch v.Kind() {
	case value.KindArray:
		arr := v.AsArray()
		n := int64(len(arr))
		results := make([]value.Value, 0, len(selectors))
		for _, s := range selectors {
			if s.IsError() {
				return carry(s, meta)
			}
			if s.Kind() != value.KindNumber {
				return value.NewError("union selector must be a number for an array", meta)
			}
			i := value.TruncateToInt64(s.AsNumber())
			if i < 0 {
				i += n
			}
			if i < 0 || i >= n {
				return value.NewError("union selector out of bounds", meta)
			}
			results = append(results, arr[i])
		}
		return value.NewArrayUnfiltered(results, meta)
	case value.KindObject:
		results := make([]value.Value, 0, len(selectors))
		for _, s := range selectors {
			if s.IsError() {
				return carry(s, meta)
			}
			if s.Kind() != value.KindText {
				return value.NewError("union selector must be text for an object", meta)
			}
			if val, ok := v.ObjectGet(s.AsText()); ok {
				results = append(results, val)
			}
		}
		return value.NewArrayUnfiltered(results, meta)
	default:
		return value.NewError("union access requires an array or object", meta)
	}
}

func stepWildcard(v value.Value) value.Value {
	if v.IsError() {
		return v
	}
	if v.IsUndefined() {
		return v
	}
	switch v.Kind() {
	case value.KindArray:
		return value.NewArrayUnfiltered(append([]value.Value{}, v.AsArray()...), v.Metadata())
	case value.KindObject:
		vals := collection.Map(
			collection.From(v.AsObject()...),
			func(e value.ObjectEntry) value.Value { return e.Value },
		).Elements()
		return value.NewArrayUnfiltered(vals, v.Metadata())
	default:
		return value.NewError("wildcard access requires an array or object", v.Metadata())
	}
}

// stepRecursiveDescent collects, in depth-first document order, the value
// of every field named `field` found at any depth under v (§4.2 `..field`).
func stepRecursiveDescent(v value.Value, field string) value.Value {
	if v.IsError() {
		return v
	}
	if v.IsUndefined() {
		return v
	}
	var matches []value.Value
	collectRecursive(v, field, &matches)
	return value.NewArrayUnfiltered(matches, v.Metadata())
}

func collectRecursive(v value.Value, field string, out *[]value.Value) {
	switch v.Kind() {
	case value.KindObject:
		for _, e := range v.AsObject() {
			if e.Key == field {
				*out = append(*out, e.Value)
			}
			collectRecursive(e.Value, field, out)
		}
	case value.KindArray:
		for _, e := range v.AsArray() {
			collectRecursive(e, field, out)
		}
	}
}
