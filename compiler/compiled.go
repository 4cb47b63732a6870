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

// Package compiler implements the expression compiler (§4.2): it lowers an
// ast.Expression into a CompiledExpression, classifying it bottom-up as
// Constant, Pure, or Stream and constant-folding wherever every input is
// Constant. Grounded on the teacher's per-kind validation dispatch
// (runtime/typeref_*.go's map-keyed constraint checkers) generalized from
// type validation into expression evaluation, and on dag/g.go's subscription
// graph shape for the Stream case.
package compiler

import (
	"context"

	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/stream"
	"github.com/sentrie-sh/aspen/value"
)

// Kind is the three-way classification of §4.2's CompiledExpression union.
type Kind int

const (
	KindConstant Kind = iota
	KindPure
	KindStream
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "Constant"
	case KindPure:
		return "Pure"
	case KindStream:
		return "Stream"
	default:
		return "?"
	}
}

// PureFunc is a deterministic function of the evaluation context; it must
// never suspend (§5: "Pure and Constant never suspend").
type PureFunc func(ec *evalctx.Context) value.Value

// StreamFunc opens a reactive subscription against the evaluation context.
type StreamFunc func(ctx context.Context, ec *evalctx.Context) stream.Stream

// CompiledExpression is the compiler's output: exactly one of Constant,
// Pure, or Stream, per §3.
type CompiledExpression struct {
	kind                  Kind
	dependsOnSubscription bool
	constant              value.Value
	pure                  PureFunc
	streamFn              StreamFunc
}

func Constant(v value.Value) CompiledExpression {
	return CompiledExpression{kind: KindConstant, constant: v}
}

func Pure(fn PureFunc, dependsOnSubscription bool) CompiledExpression {
	return CompiledExpression{kind: KindPure, pure: fn, dependsOnSubscription: dependsOnSubscription}
}

func Stream(fn StreamFunc, dependsOnSubscription bool) CompiledExpression {
	return CompiledExpression{kind: KindStream, streamFn: fn, dependsOnSubscription: dependsOnSubscription}
}

func (c CompiledExpression) Kind() Kind                  { return c.kind }
func (c CompiledExpression) DependsOnSubscription() bool { return c.dependsOnSubscription }

// AsConstant returns the folded value and true iff Kind is Constant.
func (c CompiledExpression) AsConstant() (value.Value, bool) {
	if c.kind != KindConstant {
		return value.Value{}, false
	}
	return c.constant, true
}

// EvalPure evaluates a Constant or Pure expression against ec. Calling
// this on a Stream expression is a programming error (callers must check
// Kind first, or use Evaluate which handles every kind uniformly).
func (c CompiledExpression) EvalPure(ec *evalctx.Context) value.Value {
	switch c.kind {
	case KindConstant:
		return c.constant
	case KindPure:
		return c.pure(ec)
	default:
		panic("compiler: EvalPure called on a Stream expression")
	}
}

// Evaluate lifts any CompiledExpression into a stream.Stream, the uniform
// entry point the policy/combine layers use: Constant and Pure become
// one-shot streams, Stream opens its reactive subscription directly.
func (c CompiledExpression) Evaluate(ctx context.Context, ec *evalctx.Context) stream.Stream {
	switch c.kind {
	case KindConstant:
		return stream.FromConstant(ctx, c.constant)
	case KindPure:
		return stream.FromConstant(ctx, c.pure(ec))
	default:
		return c.streamFn(ctx, ec)
	}
}
