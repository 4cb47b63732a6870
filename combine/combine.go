// Package combine implements §4.4's six policy-combining algorithms: each
// one reduces a snapshot of per-policy Results (in declaration order) to a
// single AuthorizationDecision. Grounded on the teacher's `trinary` package
// for the shape of a small closed table-driven combinator (the same
// pattern that package uses for its Kleene tables, generalized here from a
// two-operand table to an N-ary fold) and on `index/`'s aggregation of
// rule results into a policy's own verdict.
package combine

import (
	"github.com/sentrie-sh/aspen/decision"
	"github.com/sentrie-sh/aspen/policy"
)

// Algorithm reduces one evaluation snapshot of a policy set's children to
// the set's own decision.
type Algorithm func(results []policy.Result) decision.AuthorizationDecision

// ByName looks up one of the six algorithms by its policy-set declaration
// keyword.
func ByName(name string) (Algorithm, bool) {
	switch name {
	case "deny-overrides":
		return DenyOverrides, true
	case "permit-overrides":
		return PermitOverrides, true
	case "first-applicable":
		return FirstApplicable, true
	case "only-one-applicable":
		return OnlyOneApplicable, true
	case "deny-unless-permit":
		return DenyUnlessPermit, true
	case "permit-unless-deny":
		return PermitUnlessDeny, true
	default:
		return nil, false
	}
}

func byVerdict(results []policy.Result, v decision.Verdict) []policy.Result {
	var out []policy.Result
	for _, r := range results {
		if r.Verdict == v {
			out = append(out, r)
		}
	}
	return out
}

func transformsOf(results []policy.Result) []policy.Result {
	var out []policy.Result
	for _, r := range results {
		if r.Transformed {
			out = append(out, r)
		}
	}
	return out
}

// mergeAll folds every result's constraints into one, in declaration
// order (§4.4: "Obligations and advice are merged from all policies whose
// verdict matches the winning verdict").
func mergeAll(results []policy.Result) decision.Constraints {
	var out decision.Constraints
	for _, r := range results {
		out = decision.Merge(out, r.Constraints)
	}
	return out
}

// winningConstraintsSingleResource merges every result's obligations/advice
// and sets the resource from exactly one transforming result if there is
// exactly one; more than one is the caller's responsibility to have
// already ruled out.
func winningConstraintsSingleResource(results []policy.Result) decision.Constraints {
	c := mergeAll(results)
	xforms := transformsOf(results)
	c.Resource = nil
	if len(xforms) == 1 {
		c.Resource = xforms[0].Constraints.Resource
	}
	return c
}

func permit(c decision.Constraints) decision.AuthorizationDecision {
	return decision.AuthorizationDecision{Decision: decision.Permit, Constraints: c}
}

func deny(c decision.Constraints) decision.AuthorizationDecision {
	return decision.AuthorizationDecision{Decision: decision.Deny, Constraints: c}
}

func indeterminate() decision.AuthorizationDecision {
	return decision.AuthorizationDecision{Decision: decision.Indeterminate}
}

func notApplicable() decision.AuthorizationDecision {
	return decision.AuthorizationDecision{Decision: decision.NotApplicable}
}
