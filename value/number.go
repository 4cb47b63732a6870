package value

import "math/big"

// numberPrecision is the mantissa precision, in bits, for every Number
// value (~57 decimal digits). Chosen generously above float64's ~15
// digits since the expression compiler performs chained arithmetic
// (§4.2) where rounding error would otherwise compound across steps.
const numberPrecision = 192

func newFloat() *big.Float { return new(big.Float).SetPrec(numberPrecision) }

// Add, Sub, Mul, Div, Mod implement §4.2 arithmetic on two Number operands.
// Callers are responsible for the "mixing text and number is Error" and
// "string + concatenates" rules; these operate purely on *big.Float.

func Add(a, b *big.Float) *big.Float { return newFloat().Add(a, b) }
func Sub(a, b *big.Float) *big.Float { return newFloat().Sub(a, b) }
func Mul(a, b *big.Float) *big.Float { return newFloat().Mul(a, b) }

// Div returns (quotient, ok); ok is false on division by zero, matching
// §4.2 ("Division/modulo by zero is Error").
func Div(a, b *big.Float) (*big.Float, bool) {
	if b.Sign() == 0 {
		return nil, false
	}
	return newFloat().Quo(a, b), true
}

// Mod returns (a mod b, ok) using truncated-division semantics consistent
// with Go's integer %: a - trunc(a/b)*b, for integer and fractional
// operands alike.
func Mod(a, b *big.Float) (*big.Float, bool) {
	if b.Sign() == 0 {
		return nil, false
	}
	q := newFloat().Quo(a, b)
	qi, _ := q.Int(nil)
	qf := newFloat().SetInt(qi)
	return newFloat().Sub(a, newFloat().Mul(qf, b)), true
}

// Neg implements unary `-`.
func Neg(a *big.Float) *big.Float { return newFloat().Neg(a) }

// Compare reports -1, 0, or 1 per big.Float.Cmp.
func Compare(a, b *big.Float) int { return a.Cmp(b) }

// TruncateToInt64 truncates toward zero, used to coerce "decimal numerics
// are truncated to integers" option fields (§3, AttributeOptions) such as
// retries/backoffMs/timeouts.
func TruncateToInt64(n *big.Float) int64 {
	i, _ := n.Int64()
	return i
}
