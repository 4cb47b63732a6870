// Copyright 2025 Binaek Sarkar
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package evalctx implements the immutable EvaluationContext (§3):
// pdp_id, configuration_id, subscription_id, the four-part subscription,
// a copy-on-write variable mapping, and the function/attribute brokers.
// Grounded on the teacher's runtime.ExecutionContext (which carries a
// similar pdp-scoped bag of state through evaluation) but rebuilt
// immutable: `.With` returns a new Context rather than mutating in place,
// matching §5's "Evaluation contexts are immutable; with(name, value)
// returns a new context."
package evalctx

import (
	"context"

	"github.com/sentrie-sh/aspen/ast"
	"github.com/sentrie-sh/aspen/stream"
	"github.com/sentrie-sh/aspen/value"
)

// Subscription is the four-part AuthorizationSubscription the DSL's
// SubscriptionElement nodes read from.
type Subscription struct {
	Subject     value.Value
	Action      value.Value
	Resource    value.Value
	Environment value.Value
}

// FunctionDescriptor is what the function broker resolves a name to (§6).
// Invoke must be pure: no wall-clock reads, no randomness, no I/O.
type FunctionDescriptor struct {
	Name           string
	ParameterArity int
	Pure           bool
	Invoke         func(args []value.Value) value.Value
}

// FunctionBroker resolves fully-qualified function names to descriptors.
type FunctionBroker interface {
	Resolve(name string) (FunctionDescriptor, bool)
}

// AttributeBroker subscribes to a PIP-backed attribute stream (§6).
// Options are already merged and defaulted by the attribute-finder
// compiler before this is called; the broker's only remaining job is
// caching, sharing, and PIP invocation (including honoring Fresh as a
// cache-bypass hint).
type AttributeBroker interface {
	Subscribe(ctx context.Context, name string, entity value.Value, args []value.Value, options value.ResolvedAttributeOptions) stream.Stream
}

// Context is the immutable evaluation context threaded through a single
// policy subscription's compiled expressions.
type Context struct {
	PDPID           string
	ConfigurationID string
	SubscriptionID  string
	Subscription    Subscription
	Variables       map[string]value.Value
	FunctionBroker  FunctionBroker
	AttributeBroker AttributeBroker
}

// New constructs the context a subscription begins with; Variables starts
// as the configuration's global variable set (copied once here, never
// mutated after).
func New(pdpID, configurationID, subscriptionID string, sub Subscription, variables map[string]value.Value, fb FunctionBroker, ab AttributeBroker) *Context {
	vars := make(map[string]value.Value, len(variables))
	for k, v := range variables {
		vars[k] = v
	}
	return &Context{
		PDPID:           pdpID,
		ConfigurationID: configurationID,
		SubscriptionID:  subscriptionID,
		Subscription:    sub,
		Variables:       vars,
		FunctionBroker:  fb,
		AttributeBroker: ab,
	}
}

// With returns a new Context with name bound to v, leaving the receiver
// untouched. Copy-on-write: only the variables map is copied, everything
// else is shared by reference since it never changes within a subscription.
func (c *Context) With(name string, v value.Value) *Context {
	next := *c
	next.Variables = make(map[string]value.Value, len(c.Variables)+1)
	for k, existing := range c.Variables {
		next.Variables[k] = existing
	}
	next.Variables[name] = v
	return &next
}

// Lookup resolves a variable by name, checking the current scope's
// Variables map. Used at evaluation time by compiled expressions; the
// compile-time rejection of names with no enclosing binding is done by
// compiler.Context.HasVariable, not here.
func (c *Context) Lookup(name string) (value.Value, bool) {
	v, ok := c.Variables[name]
	return v, ok
}

// SubscriptionPart resolves an ast.SubscriptionPart to its Value.
func (c *Context) SubscriptionPart(part ast.SubscriptionPart) value.Value {
	switch part {
	case ast.SubscriptionSubject:
		return c.Subscription.Subject
	case ast.SubscriptionAction:
		return c.Subscription.Action
	case ast.SubscriptionResource:
		return c.Subscription.Resource
	default:
		return c.Subscription.Environment
	}
}
