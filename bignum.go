package deepzoom

import (
	"fmt"
	"math"
	"math/big"
)

// minPrecisionDigits is the floor for PrecisionContext.Digits, chosen so
// shallow datasets never pay for more precision than double arithmetic
// already gives them.
const minPrecisionDigits = 50

// fastPow2LevelLimit bounds the native-double fast path for Pow2: beyond
// this magnitude a float64 exponent can't represent 2^level faithfully,
// so callers must fall back to big-decimal arithmetic.
const fastPow2LevelLimit = 1000

// PrecisionContext carries the working decimal precision (in bits, derived
// from a decimal-digit budget) used by every BigDecimal operation in a
// dataset's lifetime. It is threaded explicitly through arithmetic calls
// rather than held in a package-level global, per the spec's note that a
// systems implementation should make the precision setting explicit.
type PrecisionContext struct {
	// Digits is the working precision in decimal digits.
	Digits uint
	prec   uint // equivalent big.Float precision in bits
}

// NewPrecisionContext derives a PrecisionContext for a dataset whose
// deepest expected level is maxLevel, per spec §4.1:
//
//	digits = max(50, ceil(maxLevel * 0.35 + 20))
func NewPrecisionContext(maxLevel float64) PrecisionContext {
	digits := uint(math.Ceil(maxLevel*0.35 + 20))
	if digits < minPrecisionDigits {
		digits = minPrecisionDigits
	}
	return PrecisionContext{
		Digits: digits,
		prec:   decimalDigitsToBits(digits),
	}
}

// Grow returns a PrecisionContext whose precision is at least as large as
// both ctx and the precision required for maxLevel. Precision only ever
// grows monotonically per process, per spec §4.1.
func (ctx PrecisionContext) Grow(maxLevel float64) PrecisionContext {
	candidate := NewPrecisionContext(maxLevel)
	if candidate.Digits <= ctx.Digits {
		return ctx
	}
	return candidate
}

func decimalDigitsToBits(digits uint) uint {
	// log2(10) ≈ 3.3219; add a small guard band for rounding safety.
	return uint(float64(digits)*3.3219280949) + 8
}

// BigDecimal is an arbitrary-precision decimal value used for camera
// positions and other quantities that must remain faithful far below
// IEEE-754 float precision.
type BigDecimal struct {
	v *big.Float
}

// ErrBadCoordinate is returned when a decimal string cannot be parsed.
var ErrBadCoordinate = fmt.Errorf("deepzoom: bad coordinate")

// ErrIndexTooLarge is returned when a BigIndex cannot be represented in a
// 64-bit integer; callers must keep using the arbitrary-width form.
var ErrIndexTooLarge = fmt.Errorf("deepzoom: index too large for int64")

// NewBigDecimal creates a BigDecimal from a float64 at the given precision.
func NewBigDecimal(ctx PrecisionContext, f float64) BigDecimal {
	return BigDecimal{v: new(big.Float).SetPrec(ctx.prec).SetFloat64(f)}
}

// ParseBigDecimal parses a decimal string (e.g. "0.5", "-1.25e3") at the
// given precision. Returns ErrBadCoordinate on malformed input.
func ParseBigDecimal(ctx PrecisionContext, s string) (BigDecimal, error) {
	v, _, err := big.ParseFloat(s, 10, ctx.prec, big.ToNearestEven)
	if err != nil {
		return BigDecimal{}, fmt.Errorf("%w: %q: %v", ErrBadCoordinate, s, err)
	}
	return BigDecimal{v: v}, nil
}

// String renders the decimal with enough digits to round-trip at its
// current precision.
func (b BigDecimal) String() string {
	if b.v == nil {
		return "0"
	}
	return b.v.Text('f', -1)
}

// Float64 performs a lossy conversion to double, for display or for any
// fast path that tolerates precision loss.
func (b BigDecimal) Float64() float64 {
	if b.v == nil {
		return 0
	}
	f, _ := b.v.Float64()
	return f
}

func (b BigDecimal) prec() uint {
	if b.v == nil {
		return minPrecisionDigits
	}
	return b.v.Prec()
}

// Add returns b + other.
func (b BigDecimal) Add(other BigDecimal) BigDecimal {
	return BigDecimal{v: new(big.Float).SetPrec(maxPrec(b, other)).Add(b.bigOrZero(), other.bigOrZero())}
}

// Sub returns b - other.
func (b BigDecimal) Sub(other BigDecimal) BigDecimal {
	return BigDecimal{v: new(big.Float).SetPrec(maxPrec(b, other)).Sub(b.bigOrZero(), other.bigOrZero())}
}

// Mul returns b * other.
func (b BigDecimal) Mul(other BigDecimal) BigDecimal {
	return BigDecimal{v: new(big.Float).SetPrec(maxPrec(b, other)).Mul(b.bigOrZero(), other.bigOrZero())}
}

// Quo returns b / other.
func (b BigDecimal) Quo(other BigDecimal) BigDecimal {
	return BigDecimal{v: new(big.Float).SetPrec(maxPrec(b, other)).Quo(b.bigOrZero(), other.bigOrZero())}
}

// Neg returns -b.
func (b BigDecimal) Neg() BigDecimal {
	return BigDecimal{v: new(big.Float).SetPrec(b.prec()).Neg(b.bigOrZero())}
}

// Cmp compares b and other, returning -1, 0, or +1.
func (b BigDecimal) Cmp(other BigDecimal) int {
	return b.bigOrZero().Cmp(other.bigOrZero())
}

// Floor returns the largest BigDecimal integer value <= b.
func (b BigDecimal) Floor() BigDecimal {
	bi, acc := b.bigOrZero().Int(nil)
	if acc == big.Above {
		// Int truncates toward zero; step down for negative non-integers.
		bi.Sub(bi, big.NewInt(1))
	}
	return BigDecimal{v: new(big.Float).SetPrec(b.prec()).SetInt(bi)}
}

// FloorToIndex returns floor(b) as a non-negative BigIndex. Negative values
// floor to zero, since tile coordinates are never negative (callers should
// clamp before calling if that matters to them).
func (b BigDecimal) FloorToIndex() BigIndex {
	bi, _ := b.bigOrZero().Int(nil)
	if bi.Sign() < 0 {
		bi = big.NewInt(0)
	}
	return BigIndex{v: bi}
}

func (b BigDecimal) bigOrZero() *big.Float {
	if b.v == nil {
		return new(big.Float).SetPrec(minPrecisionDigits)
	}
	return b.v
}

func maxPrec(a, b BigDecimal) uint {
	pa, pb := a.prec(), b.prec()
	if pa > pb {
		return pa
	}
	return pb
}

// Pow2 computes 2^exp as a BigDecimal at the given precision. exp may be
// negative or fractional.
//
// A native-double fast path is used when |exp| < fastPow2LevelLimit, since
// the result's exponent then fits comfortably in a float64; beyond that the
// computation falls back to repeated big.Float squaring, per spec §4.1.
func Pow2(ctx PrecisionContext, exp float64) BigDecimal {
	if math.Abs(exp) < fastPow2LevelLimit {
		return NewBigDecimal(ctx, math.Exp2(exp))
	}
	return bigPow2(ctx, exp)
}

// bigPow2 computes 2^exp for arbitrary-magnitude exp by splitting into an
// integer part (via repeated squaring) and a fractional part (via
// math.Exp2, since the fractional contribution never needs extreme range).
func bigPow2(ctx PrecisionContext, exp float64) BigDecimal {
	intPart := math.Floor(exp)
	fracPart := exp - intPart

	result := new(big.Float).SetPrec(ctx.prec).SetInt64(1)
	base := new(big.Float).SetPrec(ctx.prec).SetInt64(2)
	negative := intPart < 0
	n := int64(math.Abs(intPart))

	for n > 0 {
		if n&1 == 1 {
			result.Mul(result, base)
		}
		base.Mul(base, base)
		n >>= 1
	}
	if negative {
		one := new(big.Float).SetPrec(ctx.prec).SetInt64(1)
		result.Quo(one, result)
	}

	if fracPart != 0 {
		frac := NewBigDecimal(ctx, math.Exp2(fracPart))
		result.Mul(result, frac.bigOrZero())
	}

	return BigDecimal{v: result}
}

// BigIndex is an arbitrary-width non-negative integer used for tile
// indices, which can reach 2^level - 1 for level far beyond 63 bits.
type BigIndex struct {
	v *big.Int
}

// NewBigIndex wraps a native int64 as a BigIndex.
func NewBigIndex(n int64) BigIndex {
	return BigIndex{v: big.NewInt(n)}
}

// ParseBigIndex parses a base-10 digit string as a BigIndex.
func ParseBigIndex(s string) (BigIndex, error) {
	bi, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return BigIndex{}, fmt.Errorf("%w: %q", ErrBadCoordinate, s)
	}
	return BigIndex{v: bi}, nil
}

// String renders the index in base 10.
func (b BigIndex) String() string {
	if b.v == nil {
		return "0"
	}
	return b.v.String()
}

// Int64 converts to a native int64. Returns ErrIndexTooLarge if the value
// doesn't fit.
func (b BigIndex) Int64() (int64, error) {
	if b.v == nil {
		return 0, nil
	}
	if !b.v.IsInt64() {
		return 0, ErrIndexTooLarge
	}
	return b.v.Int64(), nil
}

// AddInt returns b + n (n may be negative).
func (b BigIndex) AddInt(n int64) BigIndex {
	return BigIndex{v: new(big.Int).Add(b.bigOrZero(), big.NewInt(n))}
}

// Cmp compares b and other, returning -1, 0, or +1.
func (b BigIndex) Cmp(other BigIndex) int {
	return b.bigOrZero().Cmp(other.bigOrZero())
}

// Clamp restricts b to [lo, hi] inclusive.
func (b BigIndex) Clamp(lo, hi BigIndex) BigIndex {
	v := b.bigOrZero()
	if v.Cmp(lo.bigOrZero()) < 0 {
		return lo
	}
	if v.Cmp(hi.bigOrZero()) > 0 {
		return hi
	}
	return b
}

// ToBigDecimal converts b to a BigDecimal at the given precision.
func (b BigIndex) ToBigDecimal(ctx PrecisionContext) BigDecimal {
	return BigDecimal{v: new(big.Float).SetPrec(ctx.prec).SetInt(b.bigOrZero())}
}

func (b BigIndex) bigOrZero() *big.Int {
	if b.v == nil {
		return big.NewInt(0)
	}
	return b.v
}

// MaxTileIndex returns 2^level - 1 as a BigIndex, the largest valid tile
// coordinate at the given level.
func MaxTileIndex(ctx PrecisionContext, level int) BigIndex {
	if level <= 0 {
		return NewBigIndex(0)
	}
	one := big.NewInt(1)
	shifted := new(big.Int).Lsh(one, uint(level))
	return BigIndex{v: shifted.Sub(shifted, one)}
}
