package value

import (
	"strconv"
	"strings"
)

// Fingerprint returns a canonical string encoding of v, stable across
// equal values regardless of construction path. Used as a dedup/cache key
// wherever a Value needs to sit inside a map or a hashstructure.Hash input
// (Value itself carries unexported fields, so it cannot be hashed directly
// by reflection-based hashers).
func (v Value) Fingerprint() string {
	var b strings.Builder
	v.writeFingerprint(&b)
	return b.String()
}

func (v Value) writeFingerprint(b *strings.Builder) {
	b.WriteString(v.kind.String())
	b.WriteByte(':')
	switch v.kind {
	case KindBoolean:
		b.WriteString(strconv.FormatBool(v.boolean))
	case KindNumber:
		if v.number != nil {
			b.WriteString(v.number.Text('g', -1))
		}
	case KindText:
		b.WriteString(strconv.Quote(v.text))
	case KindError:
		b.WriteString(strconv.Quote(v.errMsg))
	case KindArray:
		b.WriteByte('[')
		for i, e := range v.array {
			if i > 0 {
				b.WriteByte(',')
			}
			e.writeFingerprint(b)
		}
		b.WriteByte(']')
	case KindObject:
		b.WriteByte('{')
		for i, e := range v.object {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(e.Key))
			b.WriteByte('=')
			e.Value.writeFingerprint(b)
		}
		b.WriteByte('}')
	}
}
