// Package schema compiles the JSON Schema documents attached to a policy's
// subject/action/resource/environment enforcement clauses (§4.5: "Each
// enforced schema contributes a predicate validate(...)") into reusable
// Predicates, using github.com/santhosh-tekuri/jsonschema/v5. A schema
// literal that does not evaluate to an Object is rejected before the
// underlying compiler ever sees it, per the policy compiler's "schema value
// that does not evaluate to an object" compile-time error.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/sentrie-sh/aspen/value"
	"github.com/sentrie-sh/aspen/xerr"
)

var resourceCounter uint64

// Predicate is a compiled JSON Schema ready to validate Values.
type Predicate struct {
	compiled *jsonschema.Schema
	source   string // for diagnostics: the schema's own rendering
}

// Compile takes the schema literal as written in policy source (already
// evaluated to a Value, per §4.5 the schema itself is an expression that
// must fold to an Object) and compiles it into a Predicate.
func Compile(schemaLiteral value.Value) (*Predicate, error) {
	if schemaLiteral.Kind() != value.KindObject {
		return nil, xerr.ErrCompile("schema value does not evaluate to an object", schemaLiteral.Fingerprint())
	}

	raw, err := toPlain(schemaLiteral)
	if err != nil {
		return nil, xerr.ErrCompile("schema value could not be converted to JSON Schema: "+err.Error(), schemaLiteral.Fingerprint())
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, xerr.ErrCompile("schema value could not be encoded as JSON: "+err.Error(), schemaLiteral.Fingerprint())
	}

	url := fmt.Sprintf("mem://aspen/schema/%d", atomic.AddUint64(&resourceCounter, 1))
	if err := c.AddResource(url, bytes.NewReader(encoded)); err != nil {
		return nil, xerr.ErrCompile("malformed JSON Schema: "+err.Error(), schemaLiteral.Fingerprint())
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, xerr.ErrCompile("JSON Schema compilation failed: "+err.Error(), schemaLiteral.Fingerprint())
	}

	return &Predicate{compiled: compiled, source: schemaLiteral.Fingerprint()}, nil
}

// Validate reports whether subject conforms to the compiled schema (§4.5:
// "evaluates to true iff the corresponding subscription element conforms").
// Metadata carried by subject is irrelevant to conformance and is dropped
// by toPlain before the underlying validator ever runs.
func (p *Predicate) Validate(subject value.Value) bool {
	plain, err := toPlain(subject)
	if err != nil {
		return false
	}
	return p.compiled.Validate(plain) == nil
}

// toPlain converts a Value into the plain map[string]any / []any / string /
// float64 / bool / nil tree jsonschema.Schema.Validate and Compiler.AddResource
// expect, dropping Metadata entirely — schema conformance is a property of
// the data, never of how it was derived.
func toPlain(v value.Value) (any, error) {
	switch v.Kind() {
	case value.KindNull, value.KindUndefined:
		return nil, nil
	case value.KindBoolean:
		return v.AsBoolean(), nil
	case value.KindNumber:
		f, _ := v.AsNumber().Float64()
		return f, nil
	case value.KindText:
		return v.AsText(), nil
	case value.KindArray:
		elems := v.AsArray()
		out := make([]any, len(elems))
		for i, e := range elems {
			plain, err := toPlain(e)
			if err != nil {
				return nil, err
			}
			out[i] = plain
		}
		return out, nil
	case value.KindObject:
		entries := v.AsObject()
		out := make(map[string]any, len(entries))
		for _, e := range entries {
			plain, err := toPlain(e.Value)
			if err != nil {
				return nil, err
			}
			out[e.Key] = plain
		}
		return out, nil
	case value.KindError:
		return nil, errors.New("cannot convert an error value to JSON: " + v.ErrorMessage())
	default:
		return nil, errors.New("unsupported value kind " + v.Kind().String())
	}
}
