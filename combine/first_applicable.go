package combine

import (
	"github.com/sentrie-sh/aspen/decision"
	"github.com/sentrie-sh/aspen/policy"
)

// FirstApplicable returns the first result (in declaration order) whose
// verdict is not NOT_APPLICABLE, taking its verdict and constraints
// verbatim. Transformation uncertainty does not arise here by
// construction — only one policy ever contributes (§4.4: "N/A, only first
// applicable counted").
func FirstApplicable(results []policy.Result) decision.AuthorizationDecision {
	for _, r := range results {
		if r.Verdict == decision.NotApplicable {
			continue
		}
		if r.Verdict == decision.Indeterminate {
			return indeterminate()
		}
		return decision.AuthorizationDecision{Decision: r.Verdict, Constraints: r.Constraints}
	}
	return notApplicable()
}
