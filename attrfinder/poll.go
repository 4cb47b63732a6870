package attrfinder

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/stream"
	"github.com/sentrie-sh/aspen/value"
)

// tracer opens a span around every broker subscribe attempt, the
// attribute-finder's own suspension point, the way the teacher's
// runtime/eval_block.go opens one around block evaluation.
var tracer oteltrace.Tracer = otel.Tracer("github.com/sentrie-sh/aspen/attrfinder")

// subscribeWithOptions wraps the attribute broker's raw stream with §4.3's
// timeout/retry/backoff/poll semantics: the first emission gets up to
// Retries extra attempts, each bounded by InitialTimeoutMs, with a wait
// before each retry that starts at BackoffMs and doubles per retry
// (BackoffMs, 2*BackoffMs, 4*BackoffMs, ...); once a value arrives, the broker's own emissions forward as
// they come, and the subscription is additionally refreshed every
// PollIntervalMs, for attribute sources that are pull-only and never push
// an update on their own.
func subscribeWithOptions(ctx context.Context, ec *evalctx.Context, fqn string, entity value.Value, args []value.Value, opts value.ResolvedAttributeOptions) stream.Stream {
	out := make(chan value.Value)
	rec := value.AttributeInvocationRecord{
		AttributeName: fqn,
		Entity:        entity,
		Arguments:     args,
		Options:       opts,
	}

	go func() {
		defer close(out)

		if ec.AttributeBroker == nil {
			emit(ctx, out, value.NewError("no attribute broker configured", value.NewMetadata()))
			return
		}

		subCtx, cancel := context.WithCancel(ctx)
		raw, ok := subscribeWithRetry(subCtx, ec, fqn, entity, args, opts, rec, out)
		if !ok {
			cancel()
			return
		}

		ticker := time.NewTicker(pollInterval(opts))
		defer ticker.Stop()

		for {
			select {
			case v, ok := <-raw:
				if !ok {
					return
				}
				if !emit(ctx, out, traced(v, rec)) {
					return
				}
			case <-ticker.C:
				cancel()
				var refreshed bool
				subCtx, cancel = context.WithCancel(ctx)
				raw, refreshed = subscribeWithRetry(subCtx, ec, fqn, entity, args, opts, rec, out)
				if !refreshed {
					cancel()
					return
				}
			case <-ctx.Done():
				cancel()
				return
			}
		}
	}()

	return out
}

// subscribeWithRetry opens the broker subscription and waits for its first
// emission, retrying on timeout up to opts.Retries additional times. On
// success it emits the first value to out itself and returns the raw
// stream so the caller can keep forwarding subsequent emissions; on
// exhaustion it emits an Error and returns ok=false.
func subscribeWithRetry(ctx context.Context, ec *evalctx.Context, fqn string, entity value.Value, args []value.Value, opts value.ResolvedAttributeOptions, rec value.AttributeInvocationRecord, out chan<- value.Value) (stream.Stream, bool) {
	attempts := opts.Retries + 1
	if attempts < 1 {
		attempts = 1
	}

	for attempt := int64(0); attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff(opts, attempt)):
			case <-ctx.Done():
				return nil, false
			}
		}

		subscribeCtx, span := tracer.Start(ctx, "attrfinder.subscribe",
			oteltrace.WithAttributes(attribute.String("aspen.attribute.name", fqn)))
		s := ec.AttributeBroker.Subscribe(subscribeCtx, fqn, entity, args, opts)
		select {
		case v, ok := <-s:
			span.End()
			if !ok {
				continue
			}
			if !emit(ctx, out, traced(v, rec)) {
				return nil, false
			}
			return s, true
		case <-time.After(timeout(opts)):
			span.End()
			continue
		case <-ctx.Done():
			span.End()
			return nil, false
		}
	}

	emit(ctx, out, value.NewError("attribute finder exhausted retries: "+fqn, value.NewMetadata()))
	return nil, false
}

func emit(ctx context.Context, out chan<- value.Value, v value.Value) bool {
	select {
	case out <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

// traced attaches rec to v's attribute_trace, deduplicated by fingerprint
// the same way every other metadata merge point in this module is.
func traced(v value.Value, rec value.AttributeInvocationRecord) value.Value {
	extra := value.Metadata{AttributeTrace: []value.AttributeInvocationRecord{rec}}
	return v.WithMetadata(value.MergeMetadata(v.Metadata(), extra))
}

func timeout(opts value.ResolvedAttributeOptions) time.Duration {
	return durationMs(opts.InitialTimeoutMs, time.Second)
}

func backoff(opts value.ResolvedAttributeOptions, attempt int64) time.Duration {
	return durationMs(opts.BackoffMs<<(attempt-1), time.Millisecond)
}

func pollInterval(opts value.ResolvedAttributeOptions) time.Duration {
	return durationMs(opts.PollIntervalMs, time.Minute)
}

func durationMs(ms int64, floor time.Duration) time.Duration {
	if ms <= 0 {
		return floor
	}
	return time.Duration(ms) * time.Millisecond
}
