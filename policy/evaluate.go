package policy

import (
	"context"

	"github.com/sentrie-sh/aspen/decision"
	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/stream"
	"github.com/sentrie-sh/aspen/value"
)

// Result is one evaluation of a single policy (§4.4's per-policy verdict
// feeding into the combining algorithms): its own verdict, the constraints
// it contributes when applicable, and whether it declared a transform
// (needed by the combining algorithms' transformation-uncertainty table,
// which distinguishes "no resource" from "transform evaluated to
// Undefined").
type Result struct {
	Name        string
	Verdict     decision.Verdict
	Constraints decision.Constraints
	Transformed bool
}

// Evaluate produces a stream of Results, re-emitting whenever the match
// expression, any where-body step, any obligation/advice, or the
// transformation changes (§5: every suspension point re-evaluates on
// upstream change). A policy is applicable iff its match is true and its
// where-body completes without error to true; indeterminate if match or
// the where-body errors; not-applicable otherwise (spec.md §4.4).
func (p *CompiledPolicy) Evaluate(ctx context.Context, ec *evalctx.Context) <-chan Result {
	out := make(chan Result)
	matchSrc := p.Match.Evaluate(ctx, ec)

	go func() {
		defer close(out)

		var bodyCancel context.CancelFunc
		defer func() {
			if bodyCancel != nil {
				bodyCancel()
			}
		}()
		var body <-chan Result

		for {
			select {
			case mv, ok := <-matchSrc:
				if !ok {
					matchSrc = nil
					if body == nil {
						return
					}
					continue
				}
				if bodyCancel != nil {
					bodyCancel()
				}
				switch {
				case mv.IsError():
					bodyCancel = nil
					body = nil
					if !send(ctx, out, p.indeterminate()) {
						return
					}
				case mv.Kind() != value.KindBoolean:
					bodyCancel = nil
					body = nil
					if !send(ctx, out, p.indeterminate()) {
						return
					}
				case !mv.AsBoolean():
					bodyCancel = nil
					body = nil
					if !send(ctx, out, p.notApplicable()) {
						return
					}
				default:
					bodyCtx, cancel := context.WithCancel(ctx)
					bodyCancel = cancel
					body = p.evaluateBody(bodyCtx, ec)
				}

			case r, ok := <-orNilOnNilResult(body):
				if !ok {
					body = nil
					if matchSrc == nil {
						return
					}
					continue
				}
				if !send(ctx, out, r) {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// DocumentName identifies p as a combine.Document, so a CompiledPolicy can
// sit directly among a policy set's children.
func (p *CompiledPolicy) DocumentName() string { return p.Name }

func (p *CompiledPolicy) indeterminate() Result {
	return Result{Name: p.Name, Verdict: decision.Indeterminate}
}

func (p *CompiledPolicy) notApplicable() Result {
	return Result{Name: p.Name, Verdict: decision.NotApplicable}
}

// evaluateBody runs the where-chain, then — once it completes to true —
// evaluates obligations/advice/transform against the chain's final
// context, re-emitting a Result on any further change (§5 combine-latest).
func (p *CompiledPolicy) evaluateBody(ctx context.Context, ec *evalctx.Context) <-chan Result {
	out := make(chan Result)
	chain := evalWhereChain(ctx, ec, p.where)

	go func() {
		defer close(out)

		var innerCancel context.CancelFunc
		defer func() {
			if innerCancel != nil {
				innerCancel()
			}
		}()
		var inner <-chan Result

		for {
			select {
			case o, ok := <-chain:
				if !ok {
					chain = nil
					if inner == nil {
						return
					}
					continue
				}
				if innerCancel != nil {
					innerCancel()
				}
				switch {
				case o.errored:
					innerCancel = nil
					inner = nil
					if !send(ctx, out, p.indeterminate()) {
						return
					}
				case !o.ok:
					innerCancel = nil
					inner = nil
					if !send(ctx, out, p.notApplicable()) {
						return
					}
				default:
					innerCtx, cancel := context.WithCancel(ctx)
					innerCancel = cancel
					inner = p.evaluateConstraints(innerCtx, o.ec)
				}

			case r, ok := <-orNilOnNilResult(inner):
				if !ok {
					inner = nil
					if chain == nil {
						return
					}
					continue
				}
				if !send(ctx, out, r) {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// evaluateConstraints combines every obligation, advice, and the
// transformation into one Result, re-combining on any change. An
// obligation or advice that evaluates to Error makes the whole policy
// indeterminate (spec.md §4.4: "indeterminate if any evaluation errors").
func (p *CompiledPolicy) evaluateConstraints(ctx context.Context, ec *evalctx.Context) <-chan Result {
	nOb, nAd := len(p.obligations), len(p.advice)
	sources := make([]stream.Stream, 0, nOb+nAd+1)
	for _, o := range p.obligations {
		sources = append(sources, o.Evaluate(ctx, ec))
	}
	for _, a := range p.advice {
		sources = append(sources, a.Evaluate(ctx, ec))
	}
	sources = append(sources, p.transform.Evaluate(ctx, ec))

	if len(sources) == 1 {
		// only the transform slot: no obligations or advice to wait on.
		out := make(chan Result)
		go func() {
			defer close(out)
			for v := range sources[0] {
				if !send(ctx, out, p.resultFrom(nil, nil, v)) {
					return
				}
			}
		}()
		return out
	}

	combined := stream.CombineLatest(ctx, sources, func(vs []value.Value) value.Value {
		return value.NewArrayUnfiltered(append([]value.Value{}, vs...), value.NewMetadata())
	})

	out := make(chan Result)
	go func() {
		defer close(out)
		for tuple := range combined {
			vs := tuple.AsArray()
			obligations := vs[:nOb]
			advice := vs[nOb : nOb+nAd]
			transform := vs[nOb+nAd]
			if !send(ctx, out, p.resultFrom(obligations, advice, transform)) {
				return
			}
		}
	}()
	return out
}

func (p *CompiledPolicy) resultFrom(obligations, advice []value.Value, transform value.Value) Result {
	for _, v := range obligations {
		if v.IsError() {
			return p.indeterminate()
		}
	}
	for _, v := range advice {
		if v.IsError() {
			return p.indeterminate()
		}
	}
	if transform.IsError() {
		return p.indeterminate()
	}

	constraints := decision.Constraints{
		Obligations: append([]value.Value{}, obligations...),
		Advice:      append([]value.Value{}, advice...),
	}
	transformed := p.hasTransform && !transform.IsUndefined()
	if transformed {
		tv := transform
		constraints.Resource = &tv
	}

	return Result{
		Name:        p.Name,
		Verdict:     p.Entitlement,
		Constraints: constraints,
		Transformed: transformed,
	}
}

func send(ctx context.Context, out chan<- Result, r Result) bool {
	select {
	case out <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

func orNilOnNilResult(ch <-chan Result) <-chan Result {
	if ch == nil {
		return nil
	}
	return ch
}
