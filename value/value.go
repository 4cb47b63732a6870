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

// Package value implements the tagged-union runtime value every compiled
// expression produces: Null, Undefined, Boolean, Number, Text, Array,
// Object, Error, each carrying Metadata. Unlike the teacher's runtime
// package (plain `any` with helper coercions: AsBool, AsInt, AsFloat), the
// value model here is a closed Kind enum so the compiler and combining
// algorithms can switch over it exhaustively.
package value

import (
	"math/big"
)

// Kind discriminates a Value's variant.
type Kind int

const (
	KindNull Kind = iota
	KindUndefined
	KindBoolean
	KindNumber
	KindText
	KindArray
	KindObject
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindUndefined:
		return "Undefined"
	case KindBoolean:
		return "Boolean"
	case KindNumber:
		return "Number"
	case KindText:
		return "Text"
	case KindArray:
		return "Array"
	case KindObject:
		return "Object"
	case KindError:
		return "Error"
	default:
		return "?"
	}
}

// ObjectEntry is one field of an Object value. Insertion order is retained
// for trace rendering but carries no semantic weight (§3): two Objects with
// the same entries in different orders are structurally equal.
type ObjectEntry struct {
	Key   string
	Value Value
}

// Value is the immutable result of evaluating a compiled expression.
// Construct one via the New* constructors, never with a literal struct.
type Value struct {
	kind    Kind
	boolean bool
	number  *big.Float
	text    string
	array   []Value
	object  []ObjectEntry
	errMsg  string
	meta    Metadata
}

// Metadata is the side-channel every Value carries: a sticky secret bit and
// the set of attribute invocations that contributed to the value, used by
// the Traced Decision Builder. AttributeTrace is deduplicated by each
// record's string fingerprint, since AttributeInvocationRecord contains a
// nested Value and is not comparable with plain `==`.
type Metadata struct {
	Secret         bool
	AttributeTrace []AttributeInvocationRecord
}

// NewMetadata returns an empty, non-secret Metadata.
func NewMetadata() Metadata {
	return Metadata{}
}

// MergeMetadata implements the §4.1 propagation rule: secret is sticky
// (OR of all inputs), attribute_trace is the union of all inputs actually
// consumed by the producing operation. Short-circuited operands must be
// excluded by the caller before calling this (pass only consumed inputs).
func MergeMetadata(inputs ...Metadata) Metadata {
	out := NewMetadata()
	seen := make(map[string]struct{})
	for _, m := range inputs {
		if m.Secret {
			out.Secret = true
		}
		for _, rec := range m.AttributeTrace {
			key := rec.fingerprint()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out.AttributeTrace = append(out.AttributeTrace, rec)
		}
	}
	return out
}

func (v Value) Kind() Kind         { return v.kind }
func (v Value) Metadata() Metadata { return v.meta }

// WithMetadata returns a copy of v with its metadata replaced. Used by the
// compiler once it has computed the merged metadata for an operation's
// result, and by trace.Redact when enforcing the secret flag at output.
func (v Value) WithMetadata(m Metadata) Value {
	v.meta = m
	return v
}

func NewNull(meta Metadata) Value { return Value{kind: KindNull, meta: meta} }

func NewUndefined(meta Metadata) Value { return Value{kind: KindUndefined, meta: meta} }

func NewBoolean(b bool, meta Metadata) Value { return Value{kind: KindBoolean, boolean: b, meta: meta} }

func NewNumber(n *big.Float, meta Metadata) Value { return Value{kind: KindNumber, number: n, meta: meta} }

// NewNumberFromInt64 is a convenience constructor used throughout the
// compiler for integer literals and index arithmetic.
func NewNumberFromInt64(n int64, meta Metadata) Value {
	return NewNumber(new(big.Float).SetPrec(numberPrecision).SetInt64(n), meta)
}

// NewNumberFromFloat64 is a convenience constructor; it is lossy the same
// way float64 itself is, but is the natural entry point for JSON-sourced
// numerics (JSON has no arbitrary-precision numeric type either).
func NewNumberFromFloat64(f float64, meta Metadata) Value {
	return NewNumber(new(big.Float).SetPrec(numberPrecision).SetFloat64(f), meta)
}

func NewText(s string, meta Metadata) Value { return Value{kind: KindText, text: s, meta: meta} }

// NewArray filters Undefined elements per §3 ("undefined elements are
// filtered out when building arrays ... at literal-construction time");
// Error elements are retained.
func NewArray(elements []Value, meta Metadata) Value {
	filtered := make([]Value, 0, len(elements))
	for _, e := range elements {
		if e.kind == KindUndefined {
			continue
		}
		filtered = append(filtered, e)
	}
	return Value{kind: KindArray, array: filtered, meta: meta}
}

// NewArrayUnfiltered constructs an Array without dropping Undefined
// elements; used internally by steps (slice, union, recursive descent)
// whose results are not "literal construction" in the §3 sense.
func NewArrayUnfiltered(elements []Value, meta Metadata) Value {
	return Value{kind: KindArray, array: elements, meta: meta}
}

// NewObject filters entries whose value is Undefined, mirroring NewArray.
func NewObject(entries []ObjectEntry, meta Metadata) Value {
	filtered := make([]ObjectEntry, 0, len(entries))
	for _, e := range entries {
		if e.Value.kind == KindUndefined {
			continue
		}
		filtered = append(filtered, e)
	}
	return Value{kind: KindObject, object: filtered, meta: meta}
}

func NewError(msg string, meta Metadata) Value { return Value{kind: KindError, errMsg: msg, meta: meta} }

func (v Value) AsBoolean() bool        { return v.boolean }
func (v Value) AsNumber() *big.Float   { return v.number }
func (v Value) AsText() string         { return v.text }
func (v Value) AsArray() []Value       { return v.array }
func (v Value) AsObject() []ObjectEntry { return v.object }
func (v Value) ErrorMessage() string   { return v.errMsg }

func (v Value) IsError() bool     { return v.kind == KindError }
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }

// ObjectGet returns the first entry's value for key and whether it was
// found. Object is not semantically a map (§3), but lookups by key are the
// common case, so this is a linear scan, not a map index.
func (v Value) ObjectGet(key string) (Value, bool) {
	for _, e := range v.object {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}
