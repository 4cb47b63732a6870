// Package pdp implements the reference Policy Decision Point loop (§6): it
// subscribes to a configuration source and a policy retrieval point, wires
// both into an evalctx.Context, runs the configuration's top-level
// combining algorithm over whatever documents the retrieval point
// returns, and emits a trace.TracedDecision per subscription whenever
// anything upstream changes. Grounded on vishprometa-agent-warden's
// internal/mdloader (fsnotify-driven invalidate-and-reload) for the
// hot-reload shape, redirected from "which markdown files changed" to
// "which policy documents and PDP configuration changed".
package pdp

import (
	"context"

	"github.com/sentrie-sh/aspen/combine"
	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/trace"
	"github.com/sentrie-sh/aspen/value"
)

// CompiledPDPConfiguration is §6's configuration-source element: the PDP's
// identity and top-level combining algorithm, plus the runtime wiring
// (global variables, brokers, retrieval point) an evaluation needs. Only
// PDPID/ConfigurationID/AlgorithmName/Variables are ever reconstructed
// from a serialized source (see FileConfigSource); FunctionBroker,
// AttributeBroker and RetrievalPoint are runtime objects a config loader
// carries over from how it was constructed.
type CompiledPDPConfiguration struct {
	PDPID           string
	ConfigurationID string
	AlgorithmName   string
	Algorithm       combine.Algorithm
	Variables       map[string]value.Value
	FunctionBroker  evalctx.FunctionBroker
	AttributeBroker evalctx.AttributeBroker
	RetrievalPoint  RetrievalPoint
}

// RetrievalPoint is §6's Policy retrieval point:
// matching_documents(subscription, context) -> MatchingDocuments{documents,
// total} | RetrievalError{name, message}. Documents that could not be
// retrieved are reported as trace.RetrievalError entries alongside
// whichever documents did succeed (a partial-failure shape); any non-empty
// errs forces the final decision to INDETERMINATE, a rule trace.Builder.Build
// already enforces.
type RetrievalPoint interface {
	MatchingDocuments(ctx context.Context, sub evalctx.Subscription) (documents []combine.Document, total int, errs []trace.RetrievalError)
}

// ConfigSource is §6's Configuration source:
// pdp_configurations(pdp_id) -> stream of optional CompiledPDPConfiguration.
// A nil emission means no configuration is currently available for
// pdpID (e.g. its backing file was deleted or failed to parse); the PDP
// loop pauses evaluation until a non-nil configuration arrives.
type ConfigSource interface {
	Configurations(ctx context.Context, pdpID string) <-chan *CompiledPDPConfiguration
}
