package combine

import (
	"context"
	"sync"

	"github.com/sentrie-sh/aspen/decision"
	"github.com/sentrie-sh/aspen/policy"
)

// DecisionStream is the policy-set equivalent of the policy package's
// Result stream: one AuthorizationDecision per re-combination.
type DecisionStream = <-chan decision.AuthorizationDecision

// Evaluate combines children's Result streams with algo, re-combining
// whenever any child re-emits — the same combine-latest shape
// stream.CombineLatest uses, reimplemented here against
// policy.Result-typed channels rather than value.Value, since the two
// element types don't share a channel type to combine through as-is. With
// no children the returned stream is closed at once and emits nothing.
func Evaluate(ctx context.Context, algo Algorithm, children []<-chan policy.Result) DecisionStream {
	out := make(chan decision.AuthorizationDecision)
	n := len(children)
	if n == 0 {
		close(out)
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
	for i, src := range children {
		i, src := i, src
		go func() {
			defer wg.Done()
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
				select {
				case out <- algo(snapshot):
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
