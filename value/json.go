package value

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON renders v the way a traced decision's obligations, advice,
// and resource transformation need to look on the wire: the value itself,
// not its Kind tag. Metadata (the secret bit, the attribute_trace) never
// appears here — trace.Redact already owns stripping secrets before a
// decision is emitted, and attribute_trace is bookkeeping for the PDP's
// own use, not part of the audit artifact.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull, KindUndefined:
		return []byte("null"), nil

	case KindBoolean:
		return json.Marshal(v.boolean)

	case KindNumber:
		if v.number == nil {
			return []byte("null"), nil
		}
		return []byte(v.number.Text('g', -1)), nil

	case KindText:
		return json.Marshal(v.text)

	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range v.array {
			if i > 0 {
				buf.WriteByte(',')
			}
			raw, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(raw)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil

	case KindObject:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, e := range v.object {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(e.Key)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			val, err := e.Value.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(val)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil

	case KindError:
		return json.Marshal(struct {
			Error string `json:"error"`
		}{Error: v.errMsg})

	default:
		return []byte("null"), nil
	}
}
