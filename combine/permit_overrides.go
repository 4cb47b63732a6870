package combine

import (
	"github.com/sentrie-sh/aspen/decision"
	"github.com/sentrie-sh/aspen/policy"
)

// PermitOverrides: any PERMIT wins outright; failing that, any
// INDETERMINATE makes the set INDETERMINATE; failing that, any DENY wins.
// Unlike deny-overrides, permit-overrides is maximally conservative about
// transformation uncertainty: a winning PERMIT goes INDETERMINATE not only
// when more than one permit transforms but also when any losing DENY
// transforms, and a winning DENY goes INDETERMINATE when more than one
// deny transforms (§4.4's table; every xform-uncertain cell for this
// algorithm is INDETERMINATE).
func PermitOverrides(results []policy.Result) decision.AuthorizationDecision {
	permits := byVerdict(results, decision.Permit)
	denies := byVerdict(results, decision.Deny)

	if len(permits) > 0 {
		if len(transformsOf(permits)) > 1 || len(transformsOf(denies)) > 0 {
			return indeterminate()
		}
		return permit(winningConstraintsSingleResource(permits))
	}

	if len(byVerdict(results, decision.Indeterminate)) > 0 {
		return indeterminate()
	}

	if len(denies) > 0 {
		if len(transformsOf(denies)) > 1 {
			return indeterminate()
		}
		return deny(winningConstraintsSingleResource(denies))
	}

	return notApplicable()
}
