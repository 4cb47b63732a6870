package pdp

import (
	"context"

	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/policy"
)

// fakeDocument is a combine.Document stand-in for tests: it emits exactly
// one fixed Result and closes, regardless of ec.
type fakeDocument struct {
	name   string
	result policy.Result
}

func (f fakeDocument) DocumentName() string { return f.name }

func (f fakeDocument) Evaluate(ctx context.Context, ec *evalctx.Context) <-chan policy.Result {
	out := make(chan policy.Result, 1)
	out <- f.result
	close(out)
	return out
}
