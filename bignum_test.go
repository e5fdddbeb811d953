package deepzoom

import (
	"math"
	"testing"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func TestNewPrecisionContextGrowsWithMaxLevel(t *testing.T) {
	small := NewPrecisionContext(10)
	large := NewPrecisionContext(10000)
	if large.Digits <= small.Digits {
		t.Errorf("expected digits to grow with maxLevel: small=%d large=%d", small.Digits, large.Digits)
	}
	if small.Digits < minPrecisionDigits {
		t.Errorf("digits = %d, want >= %d floor", small.Digits, minPrecisionDigits)
	}
}

func TestBigDecimalParseAndString(t *testing.T) {
	ctx := NewPrecisionContext(100)
	d, err := ParseBigDecimal(ctx, "0.123456789012345678901234567890")
	if err != nil {
		t.Fatalf("ParseBigDecimal: %v", err)
	}
	if got := d.Float64(); !approxEqual(got, 0.123456789012345678901234567890, 1e-12) {
		t.Errorf("Float64() = %f, want ~0.1234...", got)
	}
	if got := d.String(); got != "0.12345678901234567890123456789" {
		t.Errorf("String() = %q, want %q", got, "0.12345678901234567890123456789")
	}
}

func TestBigDecimalParseRejectsGarbage(t *testing.T) {
	ctx := NewPrecisionContext(100)
	if _, err := ParseBigDecimal(ctx, "not-a-number"); err == nil {
		t.Fatal("expected error for garbage input")
	}
}

func TestBigDecimalArithmetic(t *testing.T) {
	ctx := NewPrecisionContext(100)
	a := NewBigDecimal(ctx, 1.5)
	b := NewBigDecimal(ctx, 0.5)

	if got := a.Add(b).Float64(); !approxEqual(got, 2.0, 1e-9) {
		t.Errorf("Add = %f, want 2.0", got)
	}
	if got := a.Sub(b).Float64(); !approxEqual(got, 1.0, 1e-9) {
		t.Errorf("Sub = %f, want 1.0", got)
	}
	if got := a.Mul(b).Float64(); !approxEqual(got, 0.75, 1e-9) {
		t.Errorf("Mul = %f, want 0.75", got)
	}
	if got := a.Quo(b).Float64(); !approxEqual(got, 3.0, 1e-9) {
		t.Errorf("Quo = %f, want 3.0", got)
	}
}

func TestBigDecimalFloorToIndex(t *testing.T) {
	ctx := NewPrecisionContext(100)
	d := NewBigDecimal(ctx, 7.9)
	idx := d.FloorToIndex()
	if idx.String() != "7" {
		t.Errorf("FloorToIndex(7.9) = %s, want 7", idx.String())
	}

	neg := NewBigDecimal(ctx, -0.1)
	negIdx := neg.FloorToIndex()
	if negIdx.String() != "0" {
		t.Errorf("FloorToIndex(-0.1) = %s, want 0 (negative values floor to zero)", negIdx.String())
	}
}

func TestPow2NativeFastPath(t *testing.T) {
	ctx := NewPrecisionContext(100)
	got := Pow2(ctx, 10).Float64()
	if !approxEqual(got, 1024, 1e-6) {
		t.Errorf("Pow2(10) = %f, want 1024", got)
	}
}

func TestPow2DeepLevelMatchesExpectedMagnitude(t *testing.T) {
	ctx := NewPrecisionContext(2000)
	result := Pow2(ctx, 1500.5)
	// 2^1500.5 is astronomically large; verify it is strictly positive and
	// that its binary exponent is 1501 (2^1500.5 = 0.707... * 2^1501).
	if result.bigOrZero().Sign() <= 0 {
		t.Fatal("Pow2 at deep level should be strictly positive")
	}
	if exp := result.bigOrZero().MantExp(nil); exp != 1501 {
		t.Errorf("Pow2(1500.5) binary exponent = %d, want 1501", exp)
	}
}

func TestBigIndexArithmeticAndClamp(t *testing.T) {
	zero := NewBigIndex(0)
	ten := NewBigIndex(10)

	sum := zero.AddInt(5)
	if sum.String() != "5" {
		t.Errorf("AddInt = %s, want 5", sum.String())
	}

	clamped := NewBigIndex(20).Clamp(zero, ten)
	if clamped.String() != "10" {
		t.Errorf("Clamp(20, [0,10]) = %s, want 10", clamped.String())
	}
	clampedLow := NewBigIndex(-5).Clamp(zero, ten)
	if clampedLow.String() != "0" {
		t.Errorf("Clamp(-5, [0,10]) = %s, want 0", clampedLow.String())
	}
}

func TestBigIndexInt64OverflowReturnsError(t *testing.T) {
	ctx := NewPrecisionContext(2000)
	huge := Pow2(ctx, 200).FloorToIndex()
	if _, err := huge.Int64(); err == nil {
		t.Fatal("expected ErrIndexTooLarge for a 2^200-scale index")
	}
}

func TestMaxTileIndex(t *testing.T) {
	ctx := NewPrecisionContext(100)
	max := MaxTileIndex(ctx, 3)
	if max.String() != "7" {
		t.Errorf("MaxTileIndex(3) = %s, want 7 (2^3 - 1)", max.String())
	}
}
