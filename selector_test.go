package deepzoom

import "testing"

func TestVisibleTilesNegativeLevelIsEmpty(t *testing.T) {
	ctx := NewPrecisionContext(100)
	cam := NewCamera(ctx)
	result := VisibleTiles(cam, -1, 1024, 768, 256)
	if len(result.Tiles) != 0 {
		t.Errorf("negative targetLevel should return no tiles, got %d", len(result.Tiles))
	}
}

func TestVisibleTilesAtLevelZeroReturnsSingleTile(t *testing.T) {
	ctx := NewPrecisionContext(100)
	cam := NewCamera(ctx)
	cam.GlobalLevel = 0
	result := VisibleTiles(cam, 0, 256, 256, 256)

	if len(result.Tiles) != 1 {
		t.Fatalf("expected exactly one tile at level 0, got %d", len(result.Tiles))
	}
	for _, tile := range result.Tiles {
		if tile.X.String() != "0" || tile.Y.String() != "0" {
			t.Errorf("level 0 only has tile (0,0), got (%s,%s)", tile.X.String(), tile.Y.String())
		}
	}
}

func TestVisibleTilesClampsToLevelBounds(t *testing.T) {
	ctx := NewPrecisionContext(100)
	cam := NewCamera(ctx)
	cam.SetPosition(NewBigDecimal(ctx, 0.0), NewBigDecimal(ctx, 0.0))
	cam.GlobalLevel = 3

	result := VisibleTiles(cam, 3, 2048, 2048, 256)
	maxIdx := MaxTileIndex(ctx, 3)
	zero := NewBigIndex(0)
	for _, tile := range result.Tiles {
		if tile.X.Cmp(zero) < 0 || tile.X.Cmp(maxIdx) > 0 {
			t.Errorf("tile X=%s out of bounds [0,%s]", tile.X.String(), maxIdx.String())
		}
		if tile.Y.Cmp(zero) < 0 || tile.Y.Cmp(maxIdx) > 0 {
			t.Errorf("tile Y=%s out of bounds [0,%s]", tile.Y.String(), maxIdx.String())
		}
	}
}

func TestVisibleTilesMoreTilesAtFinerSearchLevel(t *testing.T) {
	ctx := NewPrecisionContext(100)
	cam := NewCamera(ctx)
	cam.GlobalLevel = 4

	coarse := VisibleTiles(cam, 2, 1024, 768, 256)
	fine := VisibleTiles(cam, 6, 1024, 768, 256)

	if len(fine.Tiles) <= len(coarse.Tiles) {
		t.Errorf("targeting a finer level at fixed viewport should select more tiles: coarse=%d fine=%d", len(coarse.Tiles), len(fine.Tiles))
	}
}

func TestVisibleTilesUnderRotationStillCoversCenterTile(t *testing.T) {
	ctx := NewPrecisionContext(100)
	cam := NewCamera(ctx)
	cam.GlobalLevel = 5
	_ = cam.SetRotation(0.7)

	result := VisibleTiles(cam, 5, 800, 600, 256)
	if len(result.Tiles) == 0 {
		t.Fatal("rotated camera should still select tiles")
	}
}

func TestVisibleTilesBoundsContainCameraPositionInTileUnits(t *testing.T) {
	ctx := NewPrecisionContext(200)
	cam := NewCamera(ctx)
	x, err := ParseBigDecimal(ctx, "0.500000000000000000000000000000000000000001")
	if err != nil {
		t.Fatalf("ParseBigDecimal: %v", err)
	}
	cam.SetPosition(x, x)
	cam.GlobalLevel = 200

	result := VisibleTiles(cam, 200, 1920, 1080, 512)
	if len(result.Tiles) == 0 {
		t.Fatal("expected at least one tile at level 200")
	}

	scale := Pow2(ctx, 200)
	centerTX := cam.X.Mul(scale)
	maxXPlus1 := result.MaxX.AddInt(1).ToBigDecimal(ctx)

	if centerTX.Cmp(result.MinX.ToBigDecimal(ctx)) < 0 {
		t.Errorf("camera position in tile units should be >= MinX")
	}
	if centerTX.Cmp(maxXPlus1) >= 0 {
		t.Errorf("camera position in tile units should be < MaxX+1")
	}

	twoTo199 := Pow2(ctx, 199)
	if result.MaxX.ToBigDecimal(ctx).Cmp(twoTo199) <= 0 {
		t.Errorf("MaxX should exceed 2^199 at this deep zoom level")
	}
}

func TestRequiredLevelsAtLevelZeroOmitsParent(t *testing.T) {
	ctx := NewPrecisionContext(100)
	cam := NewCamera(ctx)
	cam.GlobalLevel = 0.3

	levels := RequiredLevels(cam)
	if len(levels) != 2 {
		t.Fatalf("RequiredLevels at base 0 should have 2 entries, got %d: %v", len(levels), levels)
	}
	if levels[0] != 0 || levels[1] != 1 {
		t.Errorf("RequiredLevels(base=0) = %v, want [0 1]", levels)
	}
}

func TestRequiredLevelsDeepIncludesParent(t *testing.T) {
	ctx := NewPrecisionContext(100)
	cam := NewCamera(ctx)
	cam.GlobalLevel = 5.5

	levels := RequiredLevels(cam)
	if len(levels) != 3 {
		t.Fatalf("RequiredLevels at base 5 should have 3 entries, got %d: %v", len(levels), levels)
	}
	if levels[0] != 4 || levels[1] != 5 || levels[2] != 6 {
		t.Errorf("RequiredLevels(base=5) = %v, want [4 5 6]", levels)
	}
}
