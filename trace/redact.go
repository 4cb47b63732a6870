package trace

import "github.com/sentrie-sh/aspen/value"

const redactedPlaceholder = "<redacted>"

// Redact replaces every secret-flagged Value reachable from a
// TracedDecision with a fixed placeholder before it is marshaled for an
// external caller, operationalizing the secret bit's "must not appear in
// unredacted traces" rule (spec.md §9 glossary). The secret flag is
// sticky upward by construction (§4.1: secret_out = any(input.secret)),
// so checking a Value's own Metadata is sufficient — recursing into
// Array/Object elements besides is defense in depth against a future
// operator that forgets to propagate the bit up to its own result.
func Redact(v value.Value) value.Value {
	if v.Metadata().Secret {
		return value.NewText(redactedPlaceholder, v.Metadata())
	}

	switch v.Kind() {
	case value.KindArray:
		elems := v.AsArray()
		out := make([]value.Value, len(elems))
		changed := false
		for i, e := range elems {
			r := Redact(e)
			out[i] = r
			if !r.Equals(e) {
				changed = true
			}
		}
		if !changed {
			return v
		}
		return value.NewArrayUnfiltered(out, v.Metadata())
	case value.KindObject:
		entries := v.AsObject()
		out := make([]value.ObjectEntry, len(entries))
		changed := false
		for i, e := range entries {
			r := Redact(e.Value)
			out[i] = value.ObjectEntry{Key: e.Key, Value: r}
			if !r.Equals(e.Value) {
				changed = true
			}
		}
		if !changed {
			return v
		}
		return value.NewObject(out, v.Metadata())
	default:
		return v
	}
}

// RedactAll redacts every value in vs, in place order.
func RedactAll(vs []value.Value) []value.Value {
	out := make([]value.Value, len(vs))
	for i, v := range vs {
		out[i] = Redact(v)
	}
	return out
}

// RedactDecision returns a copy of d with every secret-flagged obligation,
// advice entry, and resource replaced by the redaction placeholder; document
// traces are redacted the same way, recursively for policy sets.
func RedactDecision(d *TracedDecision) *TracedDecision {
	out := *d
	out.Obligations = RedactAll(d.Obligations)
	out.Advice = RedactAll(d.Advice)
	out.Resource = redactResource(d.Resource)
	out.Documents = redactDocuments(d.Documents)
	return &out
}

func redactDocuments(docs []*DocumentTrace) []*DocumentTrace {
	out := make([]*DocumentTrace, len(docs))
	for i, d := range docs {
		cp := *d
		cp.Obligations = RedactAll(d.Obligations)
		cp.Advice = RedactAll(d.Advice)
		cp.Resource = redactResource(d.Resource)
		cp.Policies = redactDocuments(d.Policies)
		out[i] = &cp
	}
	return out
}

func redactResource(r *value.Value) *value.Value {
	if r == nil {
		return nil
	}
	redacted := Redact(*r)
	return &redacted
}
