package value

import (
	"strconv"
	"strings"

	"github.com/mitchellh/hashstructure/v2"
)

// AttributeInvocationRecord is contributed to a value's attribute_trace
// every time an attribute-finder invocation's result feeds into it (§4.3).
// Arguments and Options are recorded as their resolved Values (not the AST
// expressions that produced them) so the trace reflects what was actually
// sent to the broker.
type AttributeInvocationRecord struct {
	AttributeName string
	Entity        Value
	Arguments     []Value
	Options       ResolvedAttributeOptions
}

// ResolvedAttributeOptions is the fully-merged, defaulted, type-coerced
// option set actually applied to one attribute-finder invocation (§4.3
// merge: inline > subscription > PDP defaults).
type ResolvedAttributeOptions struct {
	InitialTimeoutMs int64
	PollIntervalMs   int64
	BackoffMs        int64
	Retries          int64
	Fresh            bool
}

// DefaultAttributeOptions are the PDP defaults named in §6.
func DefaultAttributeOptions() ResolvedAttributeOptions {
	return ResolvedAttributeOptions{
		InitialTimeoutMs: 3000,
		PollIntervalMs:   30000,
		BackoffMs:        1000,
		Retries:          3,
		Fresh:            false,
	}
}

// CacheKey is the structural hash the attribute broker keys its cache and
// in-flight dedup entries on (§6: "caching, sharing, and PIP invocation").
// ResolvedAttributeOptions is fully exported so hashstructure can walk it
// directly; Entity/Arguments are reduced to their Fingerprint() first since
// Value itself carries unexported fields a reflection-based hasher can't see.
func (r AttributeInvocationRecord) CacheKey() (uint64, error) {
	keyable := struct {
		Name      string
		Entity    string
		Arguments []string
		Options   ResolvedAttributeOptions
	}{
		Name:      r.AttributeName,
		Entity:    r.Entity.Fingerprint(),
		Arguments: fingerprintAll(r.Arguments),
		Options:   r.Options,
	}
	return hashstructure.Hash(keyable, hashstructure.FormatV2, nil)
}

func fingerprintAll(values []Value) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.Fingerprint()
	}
	return out
}

func (r AttributeInvocationRecord) fingerprint() string {
	var b strings.Builder
	b.WriteString(r.AttributeName)
	b.WriteByte('|')
	b.WriteString(r.Entity.Fingerprint())
	b.WriteByte('|')
	for _, a := range r.Arguments {
		b.WriteString(a.Fingerprint())
		b.WriteByte(',')
	}
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(r.Options.InitialTimeoutMs, 10))
	b.WriteByte(',')
	b.WriteString(strconv.FormatInt(r.Options.PollIntervalMs, 10))
	b.WriteByte(',')
	b.WriteString(strconv.FormatInt(r.Options.BackoffMs, 10))
	b.WriteByte(',')
	b.WriteString(strconv.FormatInt(r.Options.Retries, 10))
	b.WriteByte(',')
	b.WriteString(strconv.FormatBool(r.Options.Fresh))
	return b.String()
}
