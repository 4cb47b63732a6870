package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/binaek/cling"
	"go.uber.org/zap"

	"github.com/sentrie-sh/aspen/broker"
	"github.com/sentrie-sh/aspen/combine"
	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/pdp"
	"github.com/sentrie-sh/aspen/trace"
	"github.com/sentrie-sh/aspen/value"
)

func newDecideCmd(logger *zap.Logger) *cling.Command {
	return cling.NewCommand("decide", decideCmd(logger)).
		WithFlag(cling.NewStringCmdInput("subject").
			WithDefault("alice").
			WithDescription("Subscription subject").
			AsFlag(),
		).
		WithFlag(cling.NewStringCmdInput("action").
			WithDefault("read").
			WithDescription("Subscription action").
			AsFlag(),
		).
		WithFlag(cling.NewStringCmdInput("resource").
			WithDefault("document-1").
			WithDescription("Subscription resource").
			AsFlag(),
		).
		WithFlag(cling.NewStringCmdInput("algorithm").
			WithDefault("deny-overrides").
			WithValidator(cling.NewEnumValidator(
				"deny-overrides", "permit-overrides", "first-applicable",
				"only-one-applicable", "deny-unless-permit", "permit-unless-deny",
			)).
			WithDescription("Top-level combining algorithm").
			AsFlag(),
		)
}

type decideArgs struct {
	Subject   string `cling-name:"subject"`
	Action    string `cling-name:"action"`
	Resource  string `cling-name:"resource"`
	Algorithm string `cling-name:"algorithm"`
}

// decideCmd evaluates one subscription against the illustrative example
// document (see example.go) and streams every re-evaluated
// trace.TracedDecision to stdout as JSON lines until interrupted —
// standing in for §6's "Decision output: stream of AuthorizationDecision |
// TracedDecision".
func decideCmd(logger *zap.Logger) func(ctx context.Context, args []string) error {
	return func(ctx context.Context, args []string) error {
		input := decideArgs{}
		if err := cling.Hydrate(ctx, args, &input); err != nil {
			return err
		}

		algo, ok := combine.ByName(input.Algorithm)
		if !ok {
			return fmt.Errorf("unknown combining algorithm: %s", input.Algorithm)
		}

		doc, err := buildExampleDocument()
		if err != nil {
			return err
		}

		mb := broker.NewMemoryBroker(64, 4)

		cfg := &pdp.CompiledPDPConfiguration{
			PDPID:           "aspen-local",
			ConfigurationID: "example",
			AlgorithmName:   input.Algorithm,
			Algorithm:       algo,
			FunctionBroker:  mb,
			AttributeBroker: mb,
			RetrievalPoint:  pdp.NewStaticRetrievalPoint(doc),
		}

		sub := evalctx.Subscription{
			Subject:     value.NewText(input.Subject, value.NewMetadata()),
			Action:      value.NewText(input.Action, value.NewMetadata()),
			Resource:    value.NewText(input.Resource, value.NewMetadata()),
			Environment: value.NewUndefined(value.NewMetadata()),
		}

		enc := json.NewEncoder(os.Stdout)
		for td := range pdp.Run(ctx, onceConfigSource{cfg: cfg}, "aspen-local", sub, logger) {
			if err := enc.Encode(trace.RedactDecision(td)); err != nil {
				logger.Warn("encoding traced decision", zap.Error(err))
			}
		}

		return nil
	}
}

// onceConfigSource emits a single configuration and closes, standing in
// for pdp.FileConfigSource (or a custom ConfigSource) when there is no
// configuration file to watch.
type onceConfigSource struct{ cfg *pdp.CompiledPDPConfiguration }

func (o onceConfigSource) Configurations(ctx context.Context, pdpID string) <-chan *pdp.CompiledPDPConfiguration {
	out := make(chan *pdp.CompiledPDPConfiguration, 1)
	out <- o.cfg
	close(out)
	return out
}
