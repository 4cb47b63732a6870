package stream

import (
	"go.opentelemetry.io/otel"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// tracer is the streaming engine's package-level OpenTelemetry tracer,
// opening a span per suspension point (combine-latest wait, switch
// re-subscribe) the way the teacher's runtime/eval_block.go opens a span
// around each block evaluation. The teacher pulls its tracer off the
// executor (ec.executor.Tracer()); this package has no executor to carry
// one through a Stream's plain context.Context, so it uses otel's own
// global tracer provider instead — a no-op until a caller registers a
// real one via otel.SetTracerProvider, exactly as the teacher's own
// otel/provider.go does at startup.
var tracer oteltrace.Tracer = otel.Tracer("github.com/sentrie-sh/aspen/stream")
