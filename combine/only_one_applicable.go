package combine

import (
	"github.com/sentrie-sh/aspen/decision"
	"github.com/sentrie-sh/aspen/policy"
)

// OnlyOneApplicable requires exactly one applicable policy; any second one
// makes the whole set INDETERMINATE regardless of verdict or
// transformation, which is why transformation uncertainty never applies
// here (§4.4's table: every cell is "multiple applicable ->
// INDETERMINATE"). An INDETERMINATE policy counts as applicable for this
// uniqueness check — the Open Question this resolves (§9) treats the
// source's silence on the point as "indeterminate still counts", since
// treating an erroring policy as if it never existed would let a
// miscompiled or misbehaving policy silently vanish from the count.
func OnlyOneApplicable(results []policy.Result) decision.AuthorizationDecision {
	applicable := make([]policy.Result, 0, len(results))
	for _, r := range results {
		if r.Verdict != decision.NotApplicable {
			applicable = append(applicable, r)
		}
	}

	switch len(applicable) {
	case 0:
		return notApplicable()
	case 1:
		r := applicable[0]
		if r.Verdict == decision.Indeterminate {
			return indeterminate()
		}
		return decision.AuthorizationDecision{Decision: r.Verdict, Constraints: r.Constraints}
	default:
		return indeterminate()
	}
}
