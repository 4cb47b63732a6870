package pdp

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/sentrie-sh/aspen/combine"
	"github.com/sentrie-sh/aspen/decision"
	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/policy"
	"github.com/sentrie-sh/aspen/trace"
)

// Run is the reference PDP evaluation loop (§6: "The PDP loop subscribes
// to retrieval results and recompiles/re-evaluates on change"). Every
// configuration emitted by cfgs starts a fresh generation: the prior
// generation's evaluation is cancelled, the retrieval point is asked for
// the current document set, and a trace.TracedDecision is emitted on out
// whenever the combined decision changes (configuration swap, retrieval
// result change, or any document's own re-evaluation).
func Run(ctx context.Context, cfgs ConfigSource, pdpID string, sub evalctx.Subscription, logger *zap.Logger) <-chan *trace.TracedDecision {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "pdp.Run"), zap.String("pdp_id", pdpID))

	out := make(chan *trace.TracedDecision)

	go func() {
		defer close(out)
		configCh := cfgs.Configurations(ctx, pdpID)

		var genCancel context.CancelFunc
		defer func() {
			if genCancel != nil {
				genCancel()
			}
		}()

		for {
			select {
			case cfg, ok := <-configCh:
				if !ok {
					return
				}
				if genCancel != nil {
					genCancel()
					genCancel = nil
				}
				if cfg == nil {
					logger.Warn("no configuration currently available")
					continue
				}
				genCtx, cancel := context.WithCancel(ctx)
				genCancel = cancel
				go runGeneration(genCtx, cfg, sub, out, logger)
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func runGeneration(ctx context.Context, cfg *CompiledPDPConfiguration, sub evalctx.Subscription, out chan<- *trace.TracedDecision, logger *zap.Logger) {
	builder := trace.NewBuilder(cfg.PDPID, cfg.ConfigurationID)

	docs, total, retrievalErrs := cfg.RetrievalPoint.MatchingDocuments(ctx, sub)
	if len(retrievalErrs) > 0 {
		logger.Warn("policy retrieval errors",
			zap.Int("errors", len(retrievalErrs)),
			zap.Int("total", total),
		)
	}

	ec := evalctx.New(cfg.PDPID, cfg.ConfigurationID, builder.SubscriptionID(), sub, cfg.Variables, cfg.FunctionBroker, cfg.AttributeBroker)

	for gr := range evaluateDocuments(ctx, docs, ec, cfg.Algorithm) {
		td := builder.Build(sub, cfg.AlgorithmName, gr.documents, gr.decision, retrievalErrs)
		select {
		case out <- td:
		case <-ctx.Done():
			return
		}
	}
}

// generationResult is one re-combination of a generation's top-level
// documents: the algorithm's folded decision plus every document's own
// trace, in declaration order.
type generationResult struct {
	decision  decision.AuthorizationDecision
	documents []*trace.DocumentTrace
}

// evaluateDocuments fans the top-level documents' Result streams into
// algo, mirroring combine.Evaluate's combine-latest shape (combine/stream.go)
// but also retaining each document's latest Result so every re-combination
// can be traced — combine.Evaluate itself stays trace-free since nested
// Sets never need to report their own children's traces up through a
// parent algorithm, only the PDP loop's top level does.
func evaluateDocuments(ctx context.Context, docs []combine.Document, ec *evalctx.Context, algo combine.Algorithm) <-chan generationResult {
	n := len(docs)
	out := make(chan generationResult)

	if n == 0 {
		go func() {
			defer close(out)
			gr := generationResult{decision: decision.AuthorizationDecision{Decision: decision.NotApplicable}}
			select {
			case out <- gr:
			case <-ctx.Done():
			}
		}()
		return out
	}

	type update struct {
		index int
		r     policy.Result
		ok    bool
	}

	updates := make(chan update)
	var wg sync.WaitGroup
	wg.Add(n)
	for i, d := range docs {
		i, d := i, d
		go func() {
			defer wg.Done()
			src := d.Evaluate(ctx, ec)
			for {
				select {
				case r, ok := <-src:
					select {
					case updates <- update{index: i, r: r, ok: ok}:
					case <-ctx.Done():
						return
					}
					if !ok {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(updates)
	}()

	go func() {
		defer close(out)
		latest := make([]policy.Result, n)
		have := make([]bool, n)
		haveCount := 0
		completed := make([]bool, n)
		for {
			select {
			case u, ok := <-updates:
				if !ok {
					return
				}
				if !u.ok {
					completed[u.index] = true
					allDone := true
					for _, c := range completed {
						if !c {
							allDone = false
							break
						}
					}
					if allDone {
						return
					}
					continue
				}
				if !have[u.index] {
					have[u.index] = true
					haveCount++
				}
				latest[u.index] = u.r
				if haveCount < n {
					continue
				}

				snapshot := make([]policy.Result, n)
				copy(snapshot, latest)
				traces := make([]*trace.DocumentTrace, n)
				for i, d := range docs {
					traces[i] = documentTrace(d, snapshot[i])
				}
				gr := generationResult{decision: algo(snapshot), documents: traces}
				select {
				case out <- gr:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// documentTrace builds one top-level document's trace entry from its
// latest Result. A *policy.CompiledPolicy carries its own entitlement; a
// *combine.Set has none, and — since this reference loop does not retain
// a Set's own per-child Result snapshots across its internal
// combine.Evaluate boundary — is traced with an empty Policies list
// rather than a reconstructed child tree.
func documentTrace(doc combine.Document, r policy.Result) *trace.DocumentTrace {
	switch d := doc.(type) {
	case *policy.CompiledPolicy:
		return trace.PolicyDocument(d.Name, d.Entitlement, r.Verdict, r.Constraints)
	case *combine.Set:
		return trace.SetDocument(d.Name, r.Verdict, r.Constraints, nil)
	default:
		return trace.PolicyDocument(doc.DocumentName(), r.Verdict, r.Verdict, r.Constraints)
	}
}
