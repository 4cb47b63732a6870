// Package broker provides in-memory reference implementations of the
// evalctx.FunctionBroker and evalctx.AttributeBroker interfaces (§6), for
// tests and examples — neither interface requires this package, but a
// PDP needs something behind them. The attribute broker is grounded on
// the teacher's `perch/perch.go` (the TTL/singleflight caching layer,
// adapted into broker/cache.go) and on jackc/puddle/v2 (a bounded
// connection pool per attribute name, grounding §5's "one underlying PIP
// subscription" sharing/coalescing language).
package broker

import (
	"context"
	"errors"
	"time"

	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/stream"
	"github.com/sentrie-sh/aspen/value"
)

var errNoEmission = errors.New("broker: PIP closed without emitting a value")

// PIP is a registered attribute source. A PIP registered with a positive
// TTL is expected to behave as a point-read: it emits exactly one value
// and closes, so its result can be cached and reused across invocations
// that share the same entity/arguments/options. A PIP registered with a
// zero TTL is assumed to push its own updates over time; the broker never
// caches it and forwards every emission live.
type PIP func(ctx context.Context, entity value.Value, args []value.Value) stream.Stream

type registration struct {
	pip PIP
	ttl time.Duration
}

// MemoryBroker is a reference AttributeBroker + FunctionBroker backed by
// registered Go functions instead of out-of-process PIPs.
type MemoryBroker struct {
	attributes map[string]registration
	functions  map[string]evalctx.FunctionDescriptor
	cache      *cache[value.Value]
	pools      *connectionPools
}

// NewMemoryBroker constructs a broker whose attribute cache holds up to
// cacheCapacity distinct (attribute, entity, arguments, options) keys and
// whose per-attribute connection pools allow up to maxConnectionsPerAttr
// concurrent simulated PIP connections.
func NewMemoryBroker(cacheCapacity int, maxConnectionsPerAttr int32) *MemoryBroker {
	return &MemoryBroker{
		attributes: make(map[string]registration),
		functions:  make(map[string]evalctx.FunctionDescriptor),
		cache:      newCache[value.Value](cacheCapacity),
		pools:      newConnectionPools(maxConnectionsPerAttr),
	}
}

// RegisterAttribute registers pip under fqn; see PIP's doc comment for the
// ttl<=0-vs->0 contract.
func (b *MemoryBroker) RegisterAttribute(fqn string, ttl time.Duration, pip PIP) {
	b.attributes[fqn] = registration{pip: pip, ttl: ttl}
}

// RegisterFunction registers a function descriptor, satisfying
// evalctx.FunctionBroker.
func (b *MemoryBroker) RegisterFunction(fd evalctx.FunctionDescriptor) {
	b.functions[fd.Name] = fd
}

// Resolve implements evalctx.FunctionBroker.
func (b *MemoryBroker) Resolve(name string) (evalctx.FunctionDescriptor, bool) {
	fd, ok := b.functions[name]
	return fd, ok
}

// Subscribe implements evalctx.AttributeBroker (§6). Fresh bypasses the
// cache entirely, per §4.3's "Applies the fresh flag: if true, bypass any
// caching layer in the broker".
func (b *MemoryBroker) Subscribe(ctx context.Context, name string, entity value.Value, args []value.Value, opts value.ResolvedAttributeOptions) stream.Stream {
	out := make(chan value.Value)

	reg, ok := b.attributes[name]
	if !ok {
		go func() {
			defer close(out)
			emitOne(ctx, out, value.NewError("broker: unknown attribute "+name, value.NewMetadata()))
		}()
		return out
	}

	go func() {
		defer close(out)

		conn, err := b.pools.acquire(ctx, name)
		if err != nil {
			emitOne(ctx, out, value.NewError("broker: acquiring connection: "+err.Error(), value.NewMetadata()))
			return
		}
		defer conn.Release()

		if opts.Fresh || reg.ttl <= 0 {
			forward(ctx, out, reg.pip(ctx, entity, args))
			return
		}

		rec := value.AttributeInvocationRecord{AttributeName: name, Entity: entity, Arguments: args, Options: opts}
		key, keyErr := rec.CacheKey()
		if keyErr != nil {
			forward(ctx, out, reg.pip(ctx, entity, args))
			return
		}

		v, err := b.cache.get(ctx, key, reg.ttl, func(ctx context.Context) (value.Value, error) {
			return firstEmission(ctx, reg.pip(ctx, entity, args))
		})
		if err != nil {
			emitOne(ctx, out, value.NewError(err.Error(), value.NewMetadata()))
			return
		}
		emitOne(ctx, out, v)
	}()

	return out
}

func emitOne(ctx context.Context, out chan<- value.Value, v value.Value) bool {
	select {
	case out <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

func forward(ctx context.Context, out chan<- value.Value, src stream.Stream) {
	for {
		select {
		case v, ok := <-src:
			if !ok {
				return
			}
			if !emitOne(ctx, out, v) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func firstEmission(ctx context.Context, src stream.Stream) (value.Value, error) {
	select {
	case v, ok := <-src:
		if !ok {
			return value.Value{}, errNoEmission
		}
		return v, nil
	case <-ctx.Done():
		return value.Value{}, ctx.Err()
	}
}
