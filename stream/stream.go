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

// Package stream implements the cooperative reactive engine described in
// §5: a single logical timeline per subscription, combine-latest over N
// stream inputs, switch-on-entity-change for attribute-finder
// re-subscription, the head operator, and context-propagated cancellation.
//
// The teacher has no equivalent of this package (it embeds goja and
// evaluates synchronously); this is new code, grounded in ordinary Go
// channel-and-context idioms and in the subscription-graph shape of the
// teacher's dag.G, not in any single teacher file.
package stream

import (
	"context"

	"github.com/sentrie-sh/aspen/value"
)

// Stream carries value.Value emissions for one logical subscription.
// Evaluation errors (timeouts, retries exhausted, type errors) are
// materialized as value.Value{Kind: Error} emissions, never as Go errors
// or panics (§7): a Stream never needs an error return alongside its
// values. The channel is closed when the stream completes, which may be
// because the source completed or because ctx was cancelled.
type Stream = <-chan value.Value

// emit is the producer-side handle a source goroutine writes to.
type emit = chan<- value.Value

// FromConstant returns a stream that emits v once and then completes.
// Used to lift Constant/Pure evaluations into contexts that compose
// uniformly over streams (e.g. one operand of a BinaryOp is Stream, the
// other is Pure).
func FromConstant(ctx context.Context, v value.Value) Stream {
	out := make(chan value.Value, 1)
	go func() {
		defer close(out)
		select {
		case out <- v:
		case <-ctx.Done():
		}
	}()
	return out
}

// Map applies fn to every emission of src, preserving order (§5 ordering
// guarantee: never reorders).
func Map(ctx context.Context, src Stream, fn func(value.Value) value.Value) Stream {
	out := make(chan value.Value)
	go func() {
		defer close(out)
		for {
			select {
			case v, ok := <-src:
				if !ok {
					return
				}
				select {
				case out <- fn(v):
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Head wraps src so only its first emission is surfaced, after which the
// returned stream completes (§5: the head operator `|<...>`). Head only
// stops reading src; it has no handle on src's producer, which keeps
// running until the context src was built under is cancelled.
func Head(ctx context.Context, src Stream) Stream {
	out := make(chan value.Value, 1)
	innerCtx, cancel := context.WithCancel(ctx)
	go func() {
		defer close(out)
		defer cancel()
		select {
		case v, ok := <-src:
			if !ok {
				return
			}
			select {
			case out <- v:
			case <-ctx.Done():
			}
		case <-innerCtx.Done():
		}
	}()
	return out
}
