package compiler

import (
	"github.com/sentrie-sh/aspen/ast"
	"github.com/sentrie-sh/aspen/value"
)

func compileArrayLiteral(n *ast.ArrayLiteral, ctx *Context) (CompiledExpression, error) {
	children := make([]CompiledExpression, len(n.Elements))
	for i, e := range n.Elements {
		c, err := Compile(e, ctx)
		if err != nil {
			return CompiledExpression{}, err
		}
		children[i] = c
	}
	return combine(children, func(args []value.Value) value.Value {
		return value.NewArray(args, mergeAll(args))
	}), nil
}

func compileObjectLiteral(n *ast.ObjectLiteral, ctx *Context) (CompiledExpression, error) {
	children := make([]CompiledExpression, len(n.Fields))
	keys := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		c, err := Compile(f.Value, ctx)
		if err != nil {
			return CompiledExpression{}, err
		}
		children[i] = c
		keys[i] = f.Key
	}
	return combine(children, func(args []value.Value) value.Value {
		entries := make([]value.ObjectEntry, len(args))
		for i, a := range args {
			entries[i] = value.ObjectEntry{Key: keys[i], Value: a}
		}
		return value.NewObject(entries, mergeAll(args))
	}), nil
}

func mergeAll(vs []value.Value) value.Metadata {
	metas := make([]value.Metadata, len(vs))
	for i, v := range vs {
		metas[i] = v.Metadata()
	}
	return value.MergeMetadata(metas...)
}
