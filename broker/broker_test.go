package broker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/stream"
	"github.com/sentrie-sh/aspen/value"
)

func text(s string) value.Value { return value.NewText(s, value.NewMetadata()) }

func drainFirst(t *testing.T, s stream.Stream) value.Value {
	t.Helper()
	select {
	case v, ok := <-s:
		require.True(t, ok)
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for emission")
		return value.Value{}
	}
}

func TestSubscribeUnknownAttributeIsError(t *testing.T) {
	b := NewMemoryBroker(16, 4)
	s := b.Subscribe(context.Background(), "no.such.attr", text("e"), nil, value.DefaultAttributeOptions())
	v := drainFirst(t, s)
	require.True(t, v.IsError())
}

func TestSubscribeCachesPointReadAttribute(t *testing.T) {
	var calls int32
	b := NewMemoryBroker(16, 4)
	b.RegisterAttribute("org.balance", time.Minute, func(ctx context.Context, entity value.Value, args []value.Value) stream.Stream {
		atomic.AddInt32(&calls, 1)
		out := make(chan value.Value, 1)
		out <- text("100")
		close(out)
		return out
	})

	opts := value.DefaultAttributeOptions()
	v1 := drainFirst(t, b.Subscribe(context.Background(), "org.balance", text("alice"), nil, opts))
	v2 := drainFirst(t, b.Subscribe(context.Background(), "org.balance", text("alice"), nil, opts))

	require.Equal(t, "100", v1.AsText())
	require.Equal(t, "100", v2.AsText())
	require.Equal(t, int32(1), atomic.LoadInt32(&calls), "second call should hit the cache")
}

func TestSubscribeFreshBypassesCache(t *testing.T) {
	var calls int32
	b := NewMemoryBroker(16, 4)
	b.RegisterAttribute("org.balance", time.Minute, func(ctx context.Context, entity value.Value, args []value.Value) stream.Stream {
		n := atomic.AddInt32(&calls, 1)
		out := make(chan value.Value, 1)
		out <- text(string(rune('0' + n)))
		close(out)
		return out
	})

	opts := value.DefaultAttributeOptions()
	opts.Fresh = true
	drainFirst(t, b.Subscribe(context.Background(), "org.balance", text("alice"), nil, opts))
	drainFirst(t, b.Subscribe(context.Background(), "org.balance", text("alice"), nil, opts))

	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSubscribeDifferentEntitiesDoNotShareCache(t *testing.T) {
	var calls int32
	b := NewMemoryBroker(16, 4)
	b.RegisterAttribute("org.balance", time.Minute, func(ctx context.Context, entity value.Value, args []value.Value) stream.Stream {
		atomic.AddInt32(&calls, 1)
		out := make(chan value.Value, 1)
		out <- entity
		close(out)
		return out
	})

	opts := value.DefaultAttributeOptions()
	v1 := drainFirst(t, b.Subscribe(context.Background(), "org.balance", text("alice"), nil, opts))
	v2 := drainFirst(t, b.Subscribe(context.Background(), "org.balance", text("bob"), nil, opts))

	require.Equal(t, "alice", v1.AsText())
	require.Equal(t, "bob", v2.AsText())
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSubscribeZeroTTLForwardsLive(t *testing.T) {
	b := NewMemoryBroker(16, 4)
	b.RegisterAttribute("feed.ticks", 0, func(ctx context.Context, entity value.Value, args []value.Value) stream.Stream {
		out := make(chan value.Value, 2)
		out <- text("tick-1")
		out <- text("tick-2")
		close(out)
		return out
	})

	s := b.Subscribe(context.Background(), "feed.ticks", text("e"), nil, value.DefaultAttributeOptions())
	v1 := drainFirst(t, s)
	v2 := drainFirst(t, s)
	require.Equal(t, "tick-1", v1.AsText())
	require.Equal(t, "tick-2", v2.AsText())
}

func TestResolveFunction(t *testing.T) {
	b := NewMemoryBroker(16, 4)
	b.RegisterFunction(evalctx.FunctionDescriptor{
		Name:           "math.double",
		ParameterArity: 1,
		Pure:           true,
		Invoke: func(args []value.Value) value.Value {
			return args[0]
		},
	})

	fd, ok := b.Resolve("math.double")
	require.True(t, ok)
	require.Equal(t, 1, fd.ParameterArity)

	_, ok = b.Resolve("missing")
	require.False(t, ok)
}
