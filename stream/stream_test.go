package stream

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sentrie-sh/aspen/value"
)

func collect(t *testing.T, s Stream, n int) []value.Value {
	t.Helper()
	var out []value.Value
	deadline := time.After(time.Second)
	for len(out) < n {
		select {
		case v, ok := <-s:
			if !ok {
				return out
			}
			out = append(out, v)
		case <-deadline:
			t.Fatalf("timed out waiting for %d emissions, got %d", n, len(out))
		}
	}
	return out
}

func TestFromConstantEmitsOnceThenCompletes(t *testing.T) {
	ctx := context.Background()
	s := FromConstant(ctx, value.NewBoolean(true, value.NewMetadata()))
	got := collect(t, s, 1)
	require.Len(t, got, 1)
	_, ok := <-s
	require.False(t, ok)
}

func TestHeadSurfacesOnlyFirstEmission(t *testing.T) {
	ctx := context.Background()
	src := make(chan value.Value, 2)
	src <- value.NewNumberFromInt64(1, value.NewMetadata())
	src <- value.NewNumberFromInt64(2, value.NewMetadata())
	close(src)

	h := Head(ctx, src)
	got := collect(t, h, 1)
	require.Len(t, got, 1)
	require.Equal(t, int64(1), value.TruncateToInt64(got[0].AsNumber()))
}

func TestCombineLatestWaitsForAllThenEmitsOnChange(t *testing.T) {
	ctx := context.Background()
	a := make(chan value.Value, 2)
	b := make(chan value.Value, 2)

	a <- value.NewNumberFromInt64(1, value.NewMetadata())
	b <- value.NewNumberFromInt64(10, value.NewMetadata())

	combined := CombineLatest(ctx, []Stream{a, b}, func(vs []value.Value) value.Value {
		sum := value.Add(vs[0].AsNumber(), vs[1].AsNumber())
		return value.NewNumber(sum, value.NewMetadata())
	})

	// a's second value is sent only after the first combination is out,
	// so it cannot overtake b's first value.
	got := collect(t, combined, 1)
	a <- value.NewNumberFromInt64(2, value.NewMetadata())
	close(a)
	close(b)
	got = append(got, collect(t, combined, 1)...)
	require.Len(t, got, 2)
	require.Equal(t, int64(11), value.TruncateToInt64(got[0].AsNumber()))
	require.Equal(t, int64(12), value.TruncateToInt64(got[1].AsNumber()))
}

func TestSwitchCancelsPreviousInnerOnNewEntity(t *testing.T) {
	ctx := context.Background()
	entity := make(chan value.Value, 2)
	entity <- value.NewText("alice", value.NewMetadata())
	entity <- value.NewText("bob", value.NewMetadata())
	close(entity)

	var mu sync.Mutex
	cancelled := make(map[string]bool)

	out := Switch(ctx, entity, func(innerCtx context.Context, ent value.Value) Stream {
		name := ent.AsText()
		inner := make(chan value.Value, 1)
		go func() {
			defer close(inner)
			select {
			case <-innerCtx.Done():
				mu.Lock()
				cancelled[name] = true
				mu.Unlock()
				return
			case <-time.After(50 * time.Millisecond):
				inner <- value.NewText("result-for-"+name, value.NewMetadata())
			}
		}()
		return inner
	})

	got := collect(t, out, 1)
	require.Len(t, got, 1)
	require.Equal(t, "result-for-bob", got[0].AsText())

	mu.Lock()
	require.True(t, cancelled["alice"], "previous entity's inner subscription must be cancelled on switch")
	mu.Unlock()
}
