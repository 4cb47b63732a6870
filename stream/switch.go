package stream

import (
	"context"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/sentrie-sh/aspen/value"
)

// Switch implements the §5 switch combinator used by the attribute-finder
// when its entity is itself a stream: on every new entity emission, the
// previous inner subscription (built from the previous entity value) is
// cancelled and a fresh one started from inner(newEntity).
func Switch(ctx context.Context, entity Stream, inner func(context.Context, value.Value) Stream) Stream {
	out := make(chan value.Value)

	go func() {
		defer close(out)

		var innerCancel context.CancelFunc
		var innerSpan oteltrace.Span
		endInnerSpan := func() {
			if innerSpan != nil {
				innerSpan.End()
				innerSpan = nil
			}
		}
		defer func() {
			if innerCancel != nil {
				innerCancel()
			}
			endInnerSpan()
		}()

		var innerCh Stream

		for {
			select {
			case entityVal, ok := <-entity:
				if !ok {
					entity = nil
					if innerCh == nil {
						return
					}
					continue
				}
				if innerCancel != nil {
					innerCancel()
				}
				endInnerSpan()
				innerCtx, cancel := context.WithCancel(ctx)
				innerCancel = cancel
				innerCtx, innerSpan = tracer.Start(innerCtx, "stream.switch.resubscribe")
				innerCh = inner(innerCtx, entityVal)

			case v, ok := <-orNilOnNilChan(innerCh):
				if !ok {
					innerCh = nil
					endInnerSpan()
					if entity == nil {
						return
					}
					continue
				}
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}

			case <-ctx.Done():
				return
			}

			if entity == nil && innerCh == nil {
				return
			}
		}
	}()

	return out
}

// orNilOnNilChan lets a nil Stream block forever in a select instead of
// panicking or busy-looping, so Switch can select on innerCh even before
// the first entity emission has arrived.
func orNilOnNilChan(s Stream) Stream {
	if s == nil {
		return nil
	}
	return s
}
