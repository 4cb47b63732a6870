package main

import (
	"github.com/sentrie-sh/aspen/ast"
	"github.com/sentrie-sh/aspen/attrfinder"
	"github.com/sentrie-sh/aspen/combine"
	"github.com/sentrie-sh/aspen/compiler"
	"github.com/sentrie-sh/aspen/decision"
	"github.com/sentrie-sh/aspen/policy"
)

// buildExampleDocument compiles a two-policy illustrative set: permit
// "read" actions, deny everything else, combined deny-overrides. It
// stands in for whatever a real deployment's policy retrieval point would
// return.
func buildExampleDocument() (combine.Document, error) {
	ctx := compiler.NewContext(attrfinder.New())

	actionIsRead := ast.NewBinaryOp(ast.Position{}, ast.OpEq,
		ast.NewSubscriptionElement(ast.Position{}, ast.SubscriptionAction),
		ast.NewLiteral(ast.Position{}, "read"),
	)

	allowRead, err := policy.Compile(&policy.Document{
		Name:        "allow-read",
		Entitlement: decision.Permit,
		Target:      actionIsRead,
	}, ctx)
	if err != nil {
		return nil, err
	}

	denyRest, err := policy.Compile(&policy.Document{
		Name:        "deny-rest",
		Entitlement: decision.Deny,
		Target: ast.NewBinaryOp(ast.Position{}, ast.OpNeq,
			ast.NewSubscriptionElement(ast.Position{}, ast.SubscriptionAction),
			ast.NewLiteral(ast.Position{}, "read"),
		),
	}, ctx)
	if err != nil {
		return nil, err
	}

	return combine.CompileSet("example", nil, "deny-overrides", ctx, []combine.Document{allowRead, denyRest})
}
