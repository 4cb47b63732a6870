package combine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentrie-sh/aspen/decision"
	"github.com/sentrie-sh/aspen/policy"
	"github.com/sentrie-sh/aspen/value"
)

func permitResult(name string) policy.Result {
	return policy.Result{Name: name, Verdict: decision.Permit}
}

func denyResult(name string) policy.Result {
	return policy.Result{Name: name, Verdict: decision.Deny}
}

func naResult(name string) policy.Result {
	return policy.Result{Name: name, Verdict: decision.NotApplicable}
}

func indetResult(name string) policy.Result {
	return policy.Result{Name: name, Verdict: decision.Indeterminate}
}

func withResource(r policy.Result, resource string) policy.Result {
	v := value.NewText(resource, value.NewMetadata())
	r.Constraints.Resource = &v
	r.Transformed = true
	return r
}

func withObligation(r policy.Result, tag string) policy.Result {
	r.Constraints.Obligations = append(r.Constraints.Obligations, value.NewText(tag, value.NewMetadata()))
	return r
}

func TestDenyOverridesDenyWins(t *testing.T) {
	d := DenyOverrides([]policy.Result{permitResult("p1"), denyResult("p2"), naResult("p3")})
	require.Equal(t, decision.Deny, d.Decision)
}

func TestDenyOverridesNoDenyNoIndeterminatePermitWins(t *testing.T) {
	d := DenyOverrides([]policy.Result{naResult("p1"), permitResult("p2")})
	require.Equal(t, decision.Permit, d.Decision)
}

func TestDenyOverridesMultiplePermitXformsWithoutDenyIsIndeterminate(t *testing.T) {
	p1 := withResource(permitResult("p1"), "resource1")
	p2 := withResource(permitResult("p2"), "resource2")
	d := DenyOverrides([]policy.Result{p1, p2})
	require.Equal(t, decision.Indeterminate, d.Decision)
}

func TestDenyOverridesMultipleDenyXformsUsesFirst(t *testing.T) {
	d1 := withResource(denyResult("d1"), "resource1")
	d2 := withResource(denyResult("d2"), "resource2")
	d := DenyOverrides([]policy.Result{d1, d2})
	require.Equal(t, decision.Deny, d.Decision)
	require.NotNil(t, d.Constraints.Resource)
	require.Equal(t, "resource1", d.Constraints.Resource.AsText())
}

func TestPermitOverridesTwoDenyXformsIsIndeterminate(t *testing.T) {
	d1 := withResource(denyResult("p1"), "d1")
	d2 := withResource(denyResult("p2"), "d2")
	d := PermitOverrides([]policy.Result{d1, d2})
	require.Equal(t, decision.Indeterminate, d.Decision)
}

func TestPermitOverridesPermitWinsOverDeny(t *testing.T) {
	d := PermitOverrides([]policy.Result{denyResult("d1"), permitResult("p1")})
	require.Equal(t, decision.Permit, d.Decision)
}

func TestFirstApplicableSkipsNotApplicable(t *testing.T) {
	na := naResult("na")
	first := withObligation(permitResult("first"), "o1")
	second := withObligation(permitResult("second"), "o2")
	d := FirstApplicable([]policy.Result{na, first, second})
	require.Equal(t, decision.Permit, d.Decision)
	require.Len(t, d.Constraints.Obligations, 1)
	require.Equal(t, "o1", d.Constraints.Obligations[0].AsText())
}

func TestFirstApplicableAllNotApplicable(t *testing.T) {
	d := FirstApplicable([]policy.Result{naResult("a"), naResult("b")})
	require.Equal(t, decision.NotApplicable, d.Decision)
}

func TestOnlyOneApplicableSingleWins(t *testing.T) {
	d := OnlyOneApplicable([]policy.Result{naResult("a"), permitResult("b")})
	require.Equal(t, decision.Permit, d.Decision)
}

func TestOnlyOneApplicableMultipleIsIndeterminate(t *testing.T) {
	d := OnlyOneApplicable([]policy.Result{permitResult("a"), denyResult("b")})
	require.Equal(t, decision.Indeterminate, d.Decision)
}

func TestOnlyOneApplicableIndeterminateCountsAsApplicable(t *testing.T) {
	d := OnlyOneApplicable([]policy.Result{permitResult("a"), indetResult("b")})
	require.Equal(t, decision.Indeterminate, d.Decision)
}

func TestDenyUnlessPermitDefaultsToDeny(t *testing.T) {
	d := DenyUnlessPermit([]policy.Result{denyResult("a"), naResult("b")})
	require.Equal(t, decision.Deny, d.Decision)
	require.Empty(t, d.Constraints.Obligations)
}

func TestDenyUnlessPermitPermitOverridesDefault(t *testing.T) {
	d := DenyUnlessPermit([]policy.Result{denyResult("a"), permitResult("b")})
	require.Equal(t, decision.Permit, d.Decision)
}

func TestPermitUnlessDenyDefaultsToPermit(t *testing.T) {
	d := PermitUnlessDeny([]policy.Result{naResult("a")})
	require.Equal(t, decision.Permit, d.Decision)
}

func TestPermitUnlessDenyDenyOverridesDefault(t *testing.T) {
	d := PermitUnlessDeny([]policy.Result{permitResult("a"), denyResult("b")})
	require.Equal(t, decision.Deny, d.Decision)
}
