package deepzoom

import (
	"math"
	"testing"
)

func TestNewCameraDefaults(t *testing.T) {
	ctx := NewPrecisionContext(100)
	cam := NewCamera(ctx)

	if !approxEqual(cam.X.Float64(), 0.5, 1e-9) || !approxEqual(cam.Y.Float64(), 0.5, 1e-9) {
		t.Errorf("new camera position = (%f, %f), want (0.5, 0.5)", cam.X.Float64(), cam.Y.Float64())
	}
	if cam.GlobalLevel != 0 || cam.Rotation != 0 {
		t.Errorf("new camera level/rotation = (%f, %f), want (0, 0)", cam.GlobalLevel, cam.Rotation)
	}
}

func TestCameraPanNoRotationMovesOpposite(t *testing.T) {
	ctx := NewPrecisionContext(100)
	cam := NewCamera(ctx)
	cam.Pan(50, 0, 256)

	if cam.X.Cmp(NewBigDecimal(ctx, 0.5)) >= 0 {
		t.Errorf("panning right should decrease X, got %f", cam.X.Float64())
	}
	if !approxEqual(cam.Y.Float64(), 0.5, 1e-9) {
		t.Errorf("horizontal pan should not move Y, got %f", cam.Y.Float64())
	}
}

func TestCameraPanClampsToUnitRange(t *testing.T) {
	ctx := NewPrecisionContext(100)
	cam := NewCamera(ctx)
	cam.Pan(-1e9, -1e9, 256)

	if cam.X.Float64() != 1 || cam.Y.Float64() != 1 {
		t.Errorf("extreme pan should clamp to 1, got (%f, %f)", cam.X.Float64(), cam.Y.Float64())
	}

	cam.Pan(1e9, 1e9, 256)
	if cam.X.Float64() != 0 || cam.Y.Float64() != 0 {
		t.Errorf("extreme reverse pan should clamp to 0, got (%f, %f)", cam.X.Float64(), cam.Y.Float64())
	}
}

func TestCameraPanAtDeeperLevelMovesLess(t *testing.T) {
	ctx := NewPrecisionContext(100)
	shallow := NewCamera(ctx)
	shallow.Pan(50, 0, 256)
	shallowDelta := math.Abs(0.5 - shallow.X.Float64())

	deep := NewCamera(ctx)
	deep.GlobalLevel = 10
	deep.Pan(50, 0, 256)
	deepDelta := math.Abs(0.5 - deep.X.Float64())

	if deepDelta >= shallowDelta {
		t.Errorf("pan at deeper level should move less in world space: shallow=%g deep=%g", shallowDelta, deepDelta)
	}
}

func TestCameraZoomClampsAtZero(t *testing.T) {
	ctx := NewPrecisionContext(100)
	cam := NewCamera(ctx)
	cam.Zoom(-5)
	if cam.GlobalLevel != 0 {
		t.Errorf("Zoom below zero should clamp to 0, got %f", cam.GlobalLevel)
	}
	cam.Zoom(3.5)
	if cam.GlobalLevel != 3.5 {
		t.Errorf("Zoom(3.5) = %f, want 3.5", cam.GlobalLevel)
	}
}

func TestCameraSetRotationRejectsNonFinite(t *testing.T) {
	ctx := NewPrecisionContext(100)
	cam := NewCamera(ctx)
	cam.Rotation = 1.0

	if err := cam.SetRotation(math.NaN()); err == nil {
		t.Error("expected error for NaN rotation")
	}
	if err := cam.SetRotation(math.Inf(1)); err == nil {
		t.Error("expected error for +Inf rotation")
	}
	if cam.Rotation != 1.0 {
		t.Errorf("rotation should be unchanged after rejected input, got %f", cam.Rotation)
	}

	if err := cam.SetRotation(2.5); err != nil {
		t.Fatalf("SetRotation(2.5): %v", err)
	}
	if cam.Rotation != 2.5 {
		t.Errorf("Rotation = %f, want 2.5", cam.Rotation)
	}
}

func TestCameraSetGlobalLevelRejectsNonFiniteAndClampsNegative(t *testing.T) {
	ctx := NewPrecisionContext(100)
	cam := NewCamera(ctx)

	if err := cam.SetGlobalLevel(math.NaN()); err == nil {
		t.Error("expected error for NaN level")
	}
	if err := cam.SetGlobalLevel(-5); err != nil {
		t.Fatalf("SetGlobalLevel(-5): %v", err)
	}
	if cam.GlobalLevel != 0 {
		t.Errorf("negative level should clamp to 0, got %f", cam.GlobalLevel)
	}
}

func TestCameraSetPositionClamps(t *testing.T) {
	ctx := NewPrecisionContext(100)
	cam := NewCamera(ctx)
	cam.SetPosition(NewBigDecimal(ctx, 2.0), NewBigDecimal(ctx, -1.0))

	if cam.X.Float64() != 1 {
		t.Errorf("X = %f, want clamped to 1", cam.X.Float64())
	}
	if cam.Y.Float64() != 0 {
		t.Errorf("Y = %f, want clamped to 0", cam.Y.Float64())
	}
}

func TestCameraBaseLevelAndChildOpacity(t *testing.T) {
	ctx := NewPrecisionContext(100)
	cam := NewCamera(ctx)
	cam.GlobalLevel = 4.75

	if got := cam.BaseLevel(); got != 4 {
		t.Errorf("BaseLevel() = %d, want 4", got)
	}
	if got := cam.ChildOpacity(); !approxEqual(got, 0.75, 1e-9) {
		t.Errorf("ChildOpacity() = %f, want 0.75", got)
	}
}

func TestCameraSnapshotIsIndependentCopy(t *testing.T) {
	ctx := NewPrecisionContext(100)
	cam := NewCamera(ctx)
	snap := cam.Snapshot()

	cam.GlobalLevel = 9
	cam.SetPosition(NewBigDecimal(ctx, 0.1), NewBigDecimal(ctx, 0.9))

	if snap.GlobalLevel != 0 {
		t.Errorf("snapshot should not observe later mutation, got GlobalLevel=%f", snap.GlobalLevel)
	}
	if !approxEqual(snap.X.Float64(), 0.5, 1e-9) {
		t.Errorf("snapshot X should remain 0.5, got %f", snap.X.Float64())
	}
}

func TestCameraPrecisionContextRoundTrips(t *testing.T) {
	ctx := NewPrecisionContext(500)
	cam := NewCamera(ctx)
	if cam.PrecisionContext().Digits != ctx.Digits {
		t.Errorf("PrecisionContext().Digits = %d, want %d", cam.PrecisionContext().Digits, ctx.Digits)
	}
}
