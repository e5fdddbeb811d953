package deepzoom

import "math"

// Camera is the canonical navigation state of the viewer: a continuous
// zoom depth, an arbitrary-precision position in normalized [0,1] global
// coordinates, and a screen rotation. One Camera exists per session and is
// mutated by UI events, path playback, and path-editor jumps.
//
// Invariants: 0 <= X <= 1, 0 <= Y <= 1, GlobalLevel >= 0.
type Camera struct {
	// GlobalLevel is the continuous zoom depth: its integer part selects
	// the base level of detail, its fractional part controls the next
	// finer layer's cross-fade opacity.
	GlobalLevel float64
	// X, Y are normalized global coordinates in [0, 1], held at arbitrary
	// precision so positions below float64's faithful range stay exact.
	X, Y BigDecimal
	// Rotation is the clockwise screen rotation, in radians.
	Rotation float64

	ctx PrecisionContext
}

// NewCamera creates a Camera at the given precision, centered at (0.5, 0.5)
// with GlobalLevel 0 and no rotation.
func NewCamera(ctx PrecisionContext) *Camera {
	return &Camera{
		GlobalLevel: 0,
		X:           NewBigDecimal(ctx, 0.5),
		Y:           NewBigDecimal(ctx, 0.5),
		Rotation:    0,
		ctx:         ctx,
	}
}

// Pan drags the camera by (dxPixels, dyPixels) of screen movement, per
// spec §4.2: worldPerPixel = 1 / (tileSize * 2^globalLevel); the delta is
// rotated by +rotation (screen->world), scaled by worldPerPixel, and
// subtracted from the position so the world appears to follow the cursor.
// Results are clamped to [0, 1].
//
// Why the rotation direction: world->screen rotates by -rotation (the
// layer container is displayed rotated by -rotation so the camera's local
// frame is axis-aligned), so screen->world rotates by +rotation.
func (c *Camera) Pan(dxPixels, dyPixels, tileSize float64) {
	worldPerPixel := 1.0 / (tileSize * Pow2(c.ctx, c.GlobalLevel).Float64())

	sin, cos := math.Sincos(c.Rotation)
	rdx := dxPixels*cos - dyPixels*sin
	rdy := dxPixels*sin + dyPixels*cos

	dx := NewBigDecimal(c.ctx, rdx*worldPerPixel)
	dy := NewBigDecimal(c.ctx, rdy*worldPerPixel)

	c.X = c.clampUnit(c.X.Sub(dx))
	c.Y = c.clampUnit(c.Y.Sub(dy))
}

// Zoom adjusts GlobalLevel by delta, clamped to a minimum of 0. Position
// and rotation are unchanged.
func (c *Camera) Zoom(delta float64) {
	c.GlobalLevel = math.Max(0, c.GlobalLevel+delta)
}

// SetRotation sets the camera's rotation in radians. No wrap-around
// normalization is performed. Non-finite input is rejected, preserving the
// prior rotation, per spec §4.2.
func (c *Camera) SetRotation(r float64) error {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return ErrBadCamera
	}
	c.Rotation = r
	return nil
}

// SetGlobalLevel sets GlobalLevel directly, rejecting non-finite values.
// The prior value is preserved on error.
func (c *Camera) SetGlobalLevel(level float64) error {
	if math.IsNaN(level) || math.IsInf(level, 0) {
		return ErrBadCamera
	}
	c.GlobalLevel = math.Max(0, level)
	return nil
}

// SetPosition sets X and Y directly, clamping both to [0, 1].
func (c *Camera) SetPosition(x, y BigDecimal) {
	c.X = c.clampUnit(x)
	c.Y = c.clampUnit(y)
}

// PrecisionContext returns the precision context this camera's position
// arithmetic was constructed with.
func (c *Camera) PrecisionContext() PrecisionContext {
	return c.ctx
}

// BaseLevel returns floor(GlobalLevel), the integer level of detail the
// base tile layer renders at.
func (c *Camera) BaseLevel() int {
	return int(math.Floor(c.GlobalLevel))
}

// ChildOpacity returns the fractional part of GlobalLevel, i.e. the
// cross-fade opacity of the next finer level of detail.
func (c *Camera) ChildOpacity() float64 {
	return c.GlobalLevel - math.Floor(c.GlobalLevel)
}

// Snapshot returns a value copy of the camera's current state, suitable for
// serialization (e.g. by the path editor when inserting a keyframe).
func (c *Camera) Snapshot() Camera {
	return *c
}

// clampUnit clamps a BigDecimal to [0, 1] at the camera's precision.
func (c *Camera) clampUnit(v BigDecimal) BigDecimal {
	zero := NewBigDecimal(c.ctx, 0)
	one := NewBigDecimal(c.ctx, 1)
	if v.Cmp(zero) < 0 {
		return zero
	}
	if v.Cmp(one) > 0 {
		return one
	}
	return v
}
