package value

// Equals implements §3 structural equality: cross-kind comparisons are
// false, except Undefined == Undefined is true and Undefined == Null is
// false (stated explicitly in the spec since it is the one cross-kind
// pair that could plausibly go either way). Metadata never participates
// in equality.
func (v Value) Equals(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull, KindUndefined:
		return true
	case KindBoolean:
		return v.boolean == other.boolean
	case KindNumber:
		if v.number == nil || other.number == nil {
			return v.number == other.number
		}
		return v.number.Cmp(other.number) == 0
	case KindText:
		return v.text == other.text
	case KindError:
		return v.errMsg == other.errMsg
	case KindArray:
		if len(v.array) != len(other.array) {
			return false
		}
		for i := range v.array {
			if !v.array[i].Equals(other.array[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.object) != len(other.object) {
			return false
		}
		for _, e := range v.object {
			ov, ok := other.ObjectGet(e.Key)
			if !ok || !e.Value.Equals(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
