// Package policy implements the policy compiler (§4.5): it turns one
// as-written policy document — target, schema enforcement, a where-body of
// sequential bindings and conditions, obligations, advice, and a
// transformation — into a CompiledPolicy ready to evaluate against a
// subscription. Grounded on teacher `index/policy.go` (the policy's
// top-level struct and its compile-time validation pass) and
// `index/rule.go` (a rule's match+body split, generalized here into
// match_expression/where-body), with `index/namespace.go`'s duplicate-name
// checking pattern reused for the where-body's duplicate-variable rule.
package policy

import (
	"github.com/sentrie-sh/aspen/ast"
	"github.com/sentrie-sh/aspen/decision"
)

// Statement is one where-body entry (§4.5): a variable binding when Name is
// non-empty, otherwise a boolean condition.
type Statement struct {
	Name string
	Expr ast.Expression
}

// SchemaCheck enforces that one subscription element conforms to a JSON
// Schema (§4.5: "each enforced schema contributes a predicate
// validate(...)"). Schema must fold to a constant Object at compile time.
type SchemaCheck struct {
	Part   ast.SubscriptionPart
	Schema ast.Expression
}

// Document is the as-written policy: everything the parser would have
// produced from policy source, assembled here directly since parsing
// itself is out of scope.
type Document struct {
	Name        string
	Entitlement decision.Verdict // Permit or Deny
	Target      ast.Expression   // nil => effective target is constant true
	Schemas     []SchemaCheck
	Where       []Statement
	Obligations []ast.Expression
	Advice      []ast.Expression
	Transform   ast.Expression // nil => no resource
}
