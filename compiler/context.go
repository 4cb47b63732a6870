package compiler

import "github.com/sentrie-sh/aspen/ast"

// AttributeCompiler is implemented by the attrfinder package and injected
// by whichever layer wires compiler+attrfinder together (policy, pdp).
// compiler never imports attrfinder directly: attrfinder imports compiler
// instead, to avoid a cycle, and compileChild lets it recursively compile
// an AttributeAccess's entity/args/options without compiler needing to
// know anything about attribute-finder semantics.
type AttributeCompiler interface {
	CompileAttributeAccess(node *ast.AttributeAccess, ctx *Context, compileChild func(ast.Expression, *Context) (CompiledExpression, error)) (CompiledExpression, error)
}

// Context is the compiler's static (compile-time) scope: which variable
// names are bound by the time this expression runs, whether a nested
// @/# scope is open, and whether this expression sits in target position
// (set by CompileTarget, which rejects a target that folds to a constant
// false, non-boolean or Error, and accepts one that depends on the
// subscription).
type Context struct {
	Variables        map[string]bool
	InCondition      bool // @ / # resolvable
	IsTargetPosition bool
	Attributes       AttributeCompiler
}

func NewContext(attrs AttributeCompiler) *Context {
	return &Context{Variables: map[string]bool{}, Attributes: attrs}
}

// WithVariable returns a derived Context with name additionally bound.
func (c *Context) WithVariable(name string) *Context {
	next := *c
	next.Variables = make(map[string]bool, len(c.Variables)+1)
	for k := range c.Variables {
		next.Variables[k] = true
	}
	next.Variables[name] = true
	return &next
}

// WithCondition returns a derived Context with a @/# scope open.
func (c *Context) WithCondition() *Context {
	next := *c
	next.InCondition = true
	return &next
}

// WithTargetPosition returns a derived Context marked as target position.
func (c *Context) WithTargetPosition(isTarget bool) *Context {
	next := *c
	next.IsTargetPosition = isTarget
	return &next
}

// HasVariable reports whether name has an enclosing binding.
func (c *Context) HasVariable(name string) bool {
	return c.Variables[name]
}
