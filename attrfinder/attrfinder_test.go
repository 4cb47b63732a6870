package attrfinder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sentrie-sh/aspen/ast"
	"github.com/sentrie-sh/aspen/compiler"
	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/stream"
	"github.com/sentrie-sh/aspen/value"
)

func lit(v any) *ast.Literal { return ast.NewLiteral(ast.Position{}, v) }

// fakeBroker hands back a pre-scripted stream for every subscription and
// records every call it receives, keyed by entity fingerprint, so tests can
// assert on re-subscription behavior.
type fakeBroker struct {
	mu    sync.Mutex
	calls []string
	next  func(entity value.Value) stream.Stream
}

func (b *fakeBroker) Subscribe(ctx context.Context, name string, entity value.Value, args []value.Value, opts value.ResolvedAttributeOptions) stream.Stream {
	b.mu.Lock()
	b.calls = append(b.calls, entity.Fingerprint())
	b.mu.Unlock()
	return b.next(entity)
}

func (b *fakeBroker) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func singleValueStream(v value.Value) stream.Stream {
	out := make(chan value.Value, 1)
	out <- v
	return out
}

func newEC(ab evalctx.AttributeBroker) *evalctx.Context {
	return evalctx.New("pdp", "cfg", "sub", evalctx.Subscription{
		Subject:     value.NewText("alice", value.NewMetadata()),
		Action:      value.NewText("read", value.NewMetadata()),
		Resource:    value.NewText("doc", value.NewMetadata()),
		Environment: value.NewNull(value.NewMetadata()),
	}, nil, nil, ab)
}

func compileAccess(t *testing.T, n *ast.AttributeAccess) compiler.CompiledExpression {
	t.Helper()
	c, err := compiler.Compile(n, compiler.NewContext(New()))
	require.NoError(t, err)
	require.Equal(t, compiler.KindStream, c.Kind())
	return c
}

func drainOne(t *testing.T, ctx context.Context, s stream.Stream) value.Value {
	t.Helper()
	select {
	case v, ok := <-s:
		require.True(t, ok, "stream closed before emitting")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for emission")
		return value.Value{}
	}
}

func TestAttributeAccessForwardsBrokerValue(t *testing.T) {
	entity := lit("alice")
	n := ast.NewAttributeAccess(ast.Position{}, "pip.risk_score", entity, nil, nil, false)

	broker := &fakeBroker{next: func(value.Value) stream.Stream {
		return singleValueStream(value.NewNumberFromInt64(7, value.NewMetadata()))
	}}

	c := compileAccess(t, n)
	ec := newEC(broker)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v := drainOne(t, ctx, c.Evaluate(ctx, ec))
	require.Equal(t, value.KindNumber, v.Kind())
	require.Equal(t, int64(7), value.TruncateToInt64(v.AsNumber()))
	require.Len(t, v.Metadata().AttributeTrace, 1)
	require.Equal(t, "pip.risk_score", v.Metadata().AttributeTrace[0].AttributeName)
}

func TestAttributeAccessHeadTruncatesToFirstEmission(t *testing.T) {
	entity := lit("alice")
	n := ast.NewAttributeAccess(ast.Position{}, "pip.risk_score", entity, nil, nil, true)

	broker := &fakeBroker{next: func(value.Value) stream.Stream {
		out := make(chan value.Value, 2)
		out <- value.NewNumberFromInt64(1, value.NewMetadata())
		out <- value.NewNumberFromInt64(2, value.NewMetadata())
		return out
	}}

	c := compileAccess(t, n)
	ec := newEC(broker)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := c.Evaluate(ctx, ec)
	v := drainOne(t, ctx, s)
	require.Equal(t, int64(1), value.TruncateToInt64(v.AsNumber()))

	_, ok := <-s
	require.False(t, ok, "head-truncated stream must close after first emission")
}

func TestAttributeAccessMissingBrokerIsRuntimeError(t *testing.T) {
	entity := lit("alice")
	n := ast.NewAttributeAccess(ast.Position{}, "pip.risk_score", entity, nil, nil, false)

	c := compileAccess(t, n)
	ec := newEC(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v := drainOne(t, ctx, c.Evaluate(ctx, ec))
	require.True(t, v.IsError())
}

func TestResolveOptionsDefaultsWhenAbsent(t *testing.T) {
	partial, err := resolveOptions(nil, compiler.NewContext(New()), compiler.Compile, lit("x"))
	require.NoError(t, err)
	require.Equal(t, value.PartialAttributeOptions{}, partial)
	resolved := value.MergeAttributeOptions(value.DefaultAttributeOptions(), partial)
	require.Equal(t, value.DefaultAttributeOptions(), resolved)
}

func TestResolveOptionsOverridesInlineFields(t *testing.T) {
	opts := &ast.AttributeOptionsAST{
		InitialTimeoutMs: lit(int64(500)),
		Retries:          lit(int64(1)),
		Fresh:            lit(true),
	}
	partial, err := resolveOptions(opts, compiler.NewContext(New()), compiler.Compile, lit("x"))
	require.NoError(t, err)
	resolved := value.MergeAttributeOptions(value.DefaultAttributeOptions(), partial)
	require.Equal(t, int64(500), resolved.InitialTimeoutMs)
	require.Equal(t, int64(1), resolved.Retries)
	require.True(t, resolved.Fresh)
	require.Equal(t, value.DefaultAttributeOptions().PollIntervalMs, resolved.PollIntervalMs)
}

func TestMergeAttributeOptionsPrefersSubscriptionOverDefault(t *testing.T) {
	retries := int64(9)
	sub := value.PartialAttributeOptions{Retries: &retries}
	resolved := value.MergeAttributeOptions(value.DefaultAttributeOptions(), value.PartialAttributeOptions{}, sub)
	require.Equal(t, int64(9), resolved.Retries)
	require.Equal(t, value.DefaultAttributeOptions().InitialTimeoutMs, resolved.InitialTimeoutMs)
}

func TestMergeAttributeOptionsPrefersInlineOverSubscription(t *testing.T) {
	inlineRetries := int64(1)
	subRetries := int64(9)
	inline := value.PartialAttributeOptions{Retries: &inlineRetries}
	sub := value.PartialAttributeOptions{Retries: &subRetries}
	resolved := value.MergeAttributeOptions(value.DefaultAttributeOptions(), inline, sub)
	require.Equal(t, int64(1), resolved.Retries)
}

func TestSubscriptionOptionsReadsSAPLVariable(t *testing.T) {
	finderOpts := value.NewObject([]value.ObjectEntry{
		{Key: "retries", Value: value.NewNumberFromInt64(5, value.NewMetadata())},
		{Key: "fresh", Value: value.NewBoolean(true, value.NewMetadata())},
	}, value.NewMetadata())
	sapl := value.NewObject([]value.ObjectEntry{
		{Key: "attributeFinderOptions", Value: finderOpts},
	}, value.NewMetadata())
	ec := evalctx.New("pdp", "cfg", "sub", evalctx.Subscription{}, map[string]value.Value{"SAPL": sapl}, nil, nil)

	partial := subscriptionOptions(ec)
	require.NotNil(t, partial.Retries)
	require.Equal(t, int64(5), *partial.Retries)
	require.NotNil(t, partial.Fresh)
	require.True(t, *partial.Fresh)
	require.Nil(t, partial.InitialTimeoutMs)
}

func TestSubscriptionOptionsAbsentSAPLIsEmptyPartial(t *testing.T) {
	ec := evalctx.New("pdp", "cfg", "sub", evalctx.Subscription{}, nil, nil, nil)
	require.Equal(t, value.PartialAttributeOptions{}, subscriptionOptions(ec))
}

func TestAttributeAccessResubscribesOnEntityChange(t *testing.T) {
	entityCh := make(chan value.Value, 2)
	entityCh <- value.NewText("alice", value.NewMetadata())

	entityStream := compiler.Stream(func(ctx context.Context, ec *evalctx.Context) stream.Stream {
		out := make(chan value.Value)
		go func() {
			defer close(out)
			for {
				select {
				case v, ok := <-entityCh:
					if !ok {
						return
					}
					select {
					case out <- v:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()
		return out
	}, true)

	broker := &fakeBroker{next: func(e value.Value) stream.Stream {
		return singleValueStream(value.NewText("score-for-"+e.AsText(), value.NewMetadata()))
	}}

	entityNode := lit("placeholder")
	n := ast.NewAttributeAccess(ast.Position{}, "pip.risk_score", entityNode, nil, nil, false)

	compileChild := func(node ast.Expression, c *compiler.Context) (compiler.CompiledExpression, error) {
		if node == ast.Expression(entityNode) {
			return entityStream, nil
		}
		return compiler.Compile(node, c)
	}
	compiled, err := New().CompileAttributeAccess(n, compiler.NewContext(New()), compileChild)
	require.NoError(t, err)

	ec := newEC(broker)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := compiled.Evaluate(ctx, ec)
	v1 := drainOne(t, ctx, s)
	require.Equal(t, "score-for-alice", v1.AsText())

	entityCh <- value.NewText("bob", value.NewMetadata())
	v2 := drainOne(t, ctx, s)
	require.Equal(t, "score-for-bob", v2.AsText())

	require.Equal(t, 2, broker.callCount())
}

func TestResolveOptionsRejectsNonConstantField(t *testing.T) {
	ctx := compiler.NewContext(New())
	opts := &ast.AttributeOptionsAST{
		InitialTimeoutMs: ast.NewVariable(ast.Position{}, "notBoundAnywhere"),
	}
	_, err := resolveOptions(opts, ctx, compiler.Compile, lit("x"))
	require.Error(t, err)
}

// The next three tests reproduce the worked scenarios: a plain
// entity-qualified attribute, the bare entity-less form, and an
// error-valued argument that must reach the invocation rather than short
// circuit it.

func TestAttributeAccessScenario1EntityQualifiedAttribute(t *testing.T) {
	entity := lit("Ridcully")
	n := ast.NewAttributeAccess(ast.Position{}, "discworld.city", entity, nil, nil, true)

	broker := &fakeBroker{next: func(value.Value) stream.Stream {
		return singleValueStream(value.NewText("Ankh-Morpork", value.NewMetadata()))
	}}

	c := compileAccess(t, n)
	ec := newEC(broker)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v := drainOne(t, ctx, c.Evaluate(ctx, ec))
	require.Equal(t, "Ankh-Morpork", v.AsText())
}

func TestAttributeAccessScenario2BareFormStreamsEveryEmission(t *testing.T) {
	n := ast.NewAttributeAccess(ast.Position{}, "discworld.famousLocations", nil, nil, nil, false)
	locations := []string{"Unseen University", "The Patrician's Palace", "The Mended Drum"}

	broker := &fakeBroker{next: func(value.Value) stream.Stream {
		out := make(chan value.Value, len(locations))
		for _, l := range locations {
			out <- value.NewText(l, value.NewMetadata())
		}
		close(out)
		return out
	}}

	c := compileAccess(t, n)
	ec := newEC(broker)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := c.Evaluate(ctx, ec)
	for _, want := range locations {
		v := drainOne(t, ctx, s)
		require.Equal(t, want, v.AsText())
	}
	_, ok := <-s
	require.False(t, ok, "stream must complete once the PIP's emissions are exhausted")
	require.Equal(t, 1, broker.callCount())
}

// argCapturingBroker hands the Subscribe call's entity and args straight to
// respond, so a test can inspect exactly what the attribute-finder passed
// through to the invocation.
type argCapturingBroker struct {
	respond func(entity value.Value, args []value.Value) stream.Stream
}

func (b *argCapturingBroker) Subscribe(ctx context.Context, name string, entity value.Value, args []value.Value, opts value.ResolvedAttributeOptions) stream.Stream {
	return b.respond(entity, args)
}

func TestAttributeAccessScenario3ArgumentErrorReachesInvocationUnpropagated(t *testing.T) {
	entity := lit("Ridcully")
	divByZero := ast.NewBinaryOp(ast.Position{}, ast.OpDiv, lit(int64(1)), lit(int64(0)))
	n := ast.NewAttributeAccess(ast.Position{}, "discworld.withArguments", entity, []ast.Expression{divByZero, lit("valid")}, nil, true)

	broker := &argCapturingBroker{
		respond: func(entity value.Value, args []value.Value) stream.Stream {
			return singleValueStream(value.NewArrayUnfiltered([]value.Value{entity, args[0], args[1]}, value.NewMetadata()))
		},
	}

	c := compileAccess(t, n)
	ec := newEC(broker)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v := drainOne(t, ctx, c.Evaluate(ctx, ec))
	require.Equal(t, value.KindArray, v.Kind())
	arr := v.AsArray()
	require.Len(t, arr, 3)
	require.True(t, arr[1].IsError(), "the errored argument must be passed through to the invocation, not propagated immediately")
	require.Equal(t, "valid", arr[2].AsText())
}
