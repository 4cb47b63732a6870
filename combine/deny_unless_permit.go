package combine

import (
	"github.com/sentrie-sh/aspen/decision"
	"github.com/sentrie-sh/aspen/policy"
)

// DenyUnlessPermit defaults to DENY with no constraints; a PERMIT present
// and free of transformation uncertainty overrides the default. Any
// transformation uncertainty while a permit is present — more than one
// permit transforming, or any deny transforming — falls back to
// the bare DENY default rather than risk handing out an ambiguous
// resource (§4.4's table: every xform-uncertain cell for this algorithm is
// DENY, matching its no-permit default exactly).
func DenyUnlessPermit(results []policy.Result) decision.AuthorizationDecision {
	permits := byVerdict(results, decision.Permit)
	denies := byVerdict(results, decision.Deny)

	if len(permits) > 0 {
		if len(transformsOf(permits)) <= 1 && len(transformsOf(denies)) == 0 {
			return permit(winningConstraintsSingleResource(permits))
		}
	}

	return deny(decision.Constraints{})
}
