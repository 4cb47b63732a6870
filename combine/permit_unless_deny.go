package combine

import (
	"github.com/sentrie-sh/aspen/decision"
	"github.com/sentrie-sh/aspen/policy"
)

// PermitUnlessDeny defaults to PERMIT with no constraints; a DENY present
// and free of transformation uncertainty overrides the default. Any
// transformation uncertainty collapses to DENY even when it would
// otherwise have defaulted to PERMIT — more than one permit transforming
// with no deny at all still yields DENY — mirroring deny-unless-permit's
// fail-safe treatment of xform ambiguity (§4.4's table: every cell for
// this algorithm is DENY).
func PermitUnlessDeny(results []policy.Result) decision.AuthorizationDecision {
	denies := byVerdict(results, decision.Deny)
	permits := byVerdict(results, decision.Permit)

	if len(denies) > 0 {
		if len(transformsOf(denies)) <= 1 && len(transformsOf(permits)) == 0 {
			return deny(winningConstraintsSingleResource(denies))
		}
		return deny(decision.Constraints{})
	}

	if len(transformsOf(permits)) > 1 {
		return deny(decision.Constraints{})
	}

	return permit(decision.Constraints{})
}
