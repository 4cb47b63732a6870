// Package decision implements the four-valued verdict lattice combining
// algorithms aggregate over (§3, §4.4): PERMIT, DENY, NOT_APPLICABLE,
// INDETERMINATE. It is a new package — the teacher has no equivalent type,
// splitting policy/rule results across ad-hoc bools and errors instead —
// built the way the teacher's trinary package builds its own lattice:
// a small closed Value type with total binary combinators.
package decision

import (
	"encoding/json"

	"github.com/sentrie-sh/aspen/value"
)

// Verdict is one policy or policy-set's outcome before constraints are
// merged in by the combining algorithm.
type Verdict int

const (
	NotApplicable Verdict = iota
	Permit
	Deny
	Indeterminate
)

func (v Verdict) String() string {
	switch v {
	case Permit:
		return "PERMIT"
	case Deny:
		return "DENY"
	case NotApplicable:
		return "NOT_APPLICABLE"
	case Indeterminate:
		return "INDETERMINATE"
	default:
		return "?"
	}
}

// MarshalJSON renders a Verdict as its name rather than the underlying
// int, matching the teacher's own trinary.Value — a traced decision is an
// audit artifact read by humans and other systems, not just this process.
func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// Constraints carries a decision's obligations, advice, and optional
// resource transformation (§3 AuthorizationDecision).
type Constraints struct {
	Obligations []value.Value
	Advice      []value.Value
	Resource    *value.Value
}

// AuthorizationDecision is the final, streamed output of the PDP (§3).
type AuthorizationDecision struct {
	Decision Verdict
	Constraints
}

// Merge unions two Constraints sets. Obligations and advice are
// concatenated (order: a before b); Resource prefers b when both are set,
// reflecting "last transformation wins" to be overridden per combining
// algorithm as needed (§4.4 documents which algorithms allow more than one
// transforming policy to apply).
func Merge(a, b Constraints) Constraints {
	out := Constraints{
		Obligations: append(append([]value.Value{}, a.Obligations...), b.Obligations...),
		Advice:      append(append([]value.Value{}, a.Advice...), b.Advice...),
	}
	out.Resource = a.Resource
	if b.Resource != nil {
		out.Resource = b.Resource
	}
	return out
}
