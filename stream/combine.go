package stream

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/sentrie-sh/aspen/value"
)

// CombineLatest implements §5's N-input combinator: it waits until every
// source has emitted at least once, then emits fn(latest values...) on
// every subsequent change of any source. Emissions are serialized through
// a single goroutine so ordering is never interleaved across sources,
// satisfying the §5 ordering guarantee.
func CombineLatest(ctx context.Context, sources []Stream, fn func([]value.Value) value.Value) Stream {
	out := make(chan value.Value)
	n := len(sources)
	if n == 0 {
		close(out)
		return out
	}

	type update struct {
		index int
		v     value.Value
		ok    bool
	}

	updates := make(chan update)
	var wg sync.WaitGroup
	wg.Add(n)
	for i, src := range sources {
		i, src := i, src
		go func() {
			defer wg.Done()
			for {
				select {
				case v, ok := <-src:
					select {
					case updates <- update{index: i, v: v, ok: ok}:
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

		_, waitSpan := tracer.Start(ctx, "stream.combine_latest.wait",
			oteltrace.WithAttributes(attribute.Int("aspen.combine_latest.inputs", n)))
		waitEnded := false
		endWaitSpan := func() {
			if !waitEnded {
				waitEnded = true
				waitSpan.End()
			}
		}
		defer endWaitSpan()

		latest := make([]value.Value, n)
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
					// A completed source stops contributing further
					// updates; if every source has completed, we're done.
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
				latest[u.index] = u.v
				if haveCount < n {
					continue
				}
				endWaitSpan()
				snapshot := make([]value.Value, n)
				copy(snapshot, latest)
				select {
				case out <- fn(snapshot):
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
