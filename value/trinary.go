package value

import "github.com/sentrie-sh/aspen/trinary"

// ToTrinary implements trinary.HasTrinary: Boolean values map directly,
// Error and Undefined map to Unknown (§4.2's lazy boolean operators treat
// "could not be determined" inputs as Unknown rather than panicking or
// forcing every caller to type-switch on Error first), everything else is
// Unknown too since only Boolean is a valid boolean operand.
func (v Value) ToTrinary() trinary.Value {
	switch v.kind {
	case KindBoolean:
		return trinary.From(v.boolean)
	default:
		return trinary.Unknown
	}
}

var _ trinary.HasTrinary = Value{}
var _ trinary.IsUndefined = Value{}
