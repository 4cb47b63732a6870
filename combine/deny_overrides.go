package combine

import (
	"github.com/sentrie-sh/aspen/decision"
	"github.com/sentrie-sh/aspen/policy"
)

// DenyOverrides: any DENY wins outright; failing that, any INDETERMINATE
// makes the set INDETERMINATE; failing that, any PERMIT wins. A winning
// DENY tolerates more than one transforming policy — it uses the first
// deny's resource and silently discards the rest, per §4.4's table — but a
// winning PERMIT with more than one transforming policy is INDETERMINATE,
// since there is no deny present to fall back on.
func DenyOverrides(results []policy.Result) decision.AuthorizationDecision {
	denies := byVerdict(results, decision.Deny)
	if len(denies) > 0 {
		c := mergeAll(denies)
		c.Resource = nil
		if xforms := transformsOf(denies); len(xforms) > 0 {
			c.Resource = xforms[0].Constraints.Resource
		}
		return deny(c)
	}

	if len(byVerdict(results, decision.Indeterminate)) > 0 {
		return indeterminate()
	}

	permits := byVerdict(results, decision.Permit)
	if len(permits) > 0 {
		if len(transformsOf(permits)) > 1 {
			return indeterminate()
		}
		return permit(winningConstraintsSingleResource(permits))
	}

	return notApplicable()
}
