package policy

import (
	"context"

	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/value"
)

// whereOutcome is one emission of the where-chain: either the chain ran to
// completion (ok=true, ec holds every binding so far) or it stopped short —
// a false condition (ok=false) or an error in any step (errored=true).
type whereOutcome struct {
	ec      *evalctx.Context
	ok      bool
	errored bool
}

// evalWhereChain evaluates the where-body's sequential bindings and
// conditions (§4.5) against ec, one step at a time: a binding extends the
// context for every later step, a condition gates whether later steps run
// at all. Since a later step's source can depend on an earlier binding's
// actual value, this can't be expressed as one combine-latest over all
// steps at once — so each step recurses into the remaining steps afresh,
// cancelling and restarting that recursive evaluation whenever its own
// source re-emits, mirroring stream.Switch's cancel-on-new-emission
// structure but carrying an *evalctx.Context through each emission instead
// of a plain value.Value.
func evalWhereChain(ctx context.Context, ec *evalctx.Context, steps []whereStep) <-chan whereOutcome {
	if len(steps) == 0 {
		out := make(chan whereOutcome, 1)
		out <- whereOutcome{ec: ec, ok: true}
		close(out)
		return out
	}

	step := steps[0]
	rest := steps[1:]
	src := step.expr.Evaluate(ctx, ec)
	out := make(chan whereOutcome)

	go func() {
		defer close(out)

		var restCancel context.CancelFunc
		defer func() {
			if restCancel != nil {
				restCancel()
			}
		}()
		var restCh <-chan whereOutcome

		for {
			select {
			case v, ok := <-src:
				if !ok {
					src = nil
					if restCh == nil {
						return
					}
					continue
				}
				if restCancel != nil {
					restCancel()
					restCancel = nil
					restCh = nil
				}

				switch {
				case v.IsError():
					if !sendOutcome(ctx, out, whereOutcome{errored: true}) {
						return
					}
				case step.name == "" && v.Kind() != value.KindBoolean:
					if !sendOutcome(ctx, out, whereOutcome{errored: true}) {
						return
					}
				case step.name == "" && !v.AsBoolean():
					if !sendOutcome(ctx, out, whereOutcome{ok: false}) {
						return
					}
				case step.name == "":
					childCtx, cancel := context.WithCancel(ctx)
					restCancel = cancel
					restCh = evalWhereChain(childCtx, ec, rest)
				default:
					nextEC := ec.With(step.name, v)
					childCtx, cancel := context.WithCancel(ctx)
					restCancel = cancel
					restCh = evalWhereChain(childCtx, nextEC, rest)
				}

			case o, ok := <-orNilOnNilWhereOutcome(restCh):
				if !ok {
					restCh = nil
					if src == nil {
						return
					}
					continue
				}
				if !sendOutcome(ctx, out, o) {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func sendOutcome(ctx context.Context, out chan<- whereOutcome, o whereOutcome) bool {
	select {
	case out <- o:
		return true
	case <-ctx.Done():
		return false
	}
}

func orNilOnNilWhereOutcome(ch <-chan whereOutcome) <-chan whereOutcome {
	if ch == nil {
		return nil
	}
	return ch
}
