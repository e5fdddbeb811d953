package deepzoom

import "math"

// VisibleTile is one tile returned by VisibleTiles: its identity plus its
// top-left position in target-level tile units relative to the camera.
type VisibleTile struct {
	Level  int
	X, Y   BigIndex
	RelX   float64
	RelY   float64
}

// VisibleTilesResult is the return value of VisibleTiles: the tile set plus
// the absolute tile-index bounding box they were swept from, at targetLevel
// (spec §4.4: the camera's position in tile units must lie within
// [minX, maxX+1]). Offsets past the level's edge are never returned, so the
// bounds stay valid at targetLevel 0 or near the level's edge.
type VisibleTilesResult struct {
	Tiles                  []VisibleTile
	MinX, MaxX, MinY, MaxY BigIndex
}

// tileBoundsBuffer is the buffer added to the acceptance radius to account for
// tile-corner coverage under rotation (spec §4.4 step 5).
const tileBoundsBuffer = 0.75

// VisibleTiles returns the integer-indexed tiles intersecting a rotation-
// invariant bounding circle around the camera at targetLevel, per spec
// §4.4. targetLevel < 0 returns an empty result.
func VisibleTiles(cam *Camera, targetLevel int, viewW, viewH, tileSize float64) VisibleTilesResult {
	if targetLevel < 0 {
		return VisibleTilesResult{}
	}

	ctx := cam.PrecisionContext()

	viewRadiusPx := math.Sqrt((viewW/2)*(viewW/2) + (viewH/2)*(viewH/2))
	displayScale := math.Exp2(cam.GlobalLevel - float64(targetLevel))
	tileSizeOnScreen := tileSize * displayScale
	radiusInTiles := viewRadiusPx / tileSizeOnScreen
	searchRadius := int(math.Ceil(radiusInTiles))

	scale := Pow2(ctx, float64(targetLevel))
	centerTX := cam.X.Mul(scale)
	centerTY := cam.Y.Mul(scale)

	centerIntX := centerTX.FloorToIndex()
	centerIntY := centerTY.FloorToIndex()
	centerFracX := centerTX.Sub(centerIntX.ToBigDecimal(ctx)).Float64()
	centerFracY := centerTY.Sub(centerIntY.ToBigDecimal(ctx)).Float64()

	maxIndex := MaxTileIndex(ctx, targetLevel)
	zero := NewBigIndex(0)

	acceptRadius := radiusInTiles + tileBoundsBuffer
	acceptRadiusSq := acceptRadius * acceptRadius

	result := VisibleTilesResult{}
	minDX, maxDX := math.MaxInt32, math.MinInt32
	minDY, maxDY := math.MaxInt32, math.MinInt32

	for dy := -searchRadius; dy <= searchRadius; dy++ {
		offY := float64(dy) + 0.5 - centerFracY
		for dx := -searchRadius; dx <= searchRadius; dx++ {
			offX := float64(dx) + 0.5 - centerFracX
			distSq := offX*offX + offY*offY
			if distSq >= acceptRadiusSq {
				continue
			}

			tileX := centerIntX.AddInt(int64(dx))
			tileY := centerIntY.AddInt(int64(dy))
			// An offset past the level's edge would clamp onto an edge tile
			// that the sweep already accepts, so it is skipped rather than
			// returned again as a duplicate.
			if tileX.Clamp(zero, maxIndex).Cmp(tileX) != 0 || tileY.Clamp(zero, maxIndex).Cmp(tileY) != 0 {
				continue
			}

			result.Tiles = append(result.Tiles, VisibleTile{
				Level: targetLevel,
				X:     tileX,
				Y:     tileY,
				RelX:  float64(dx) - centerFracX,
				RelY:  float64(dy) - centerFracY,
			})

			if dx < minDX {
				minDX = dx
			}
			if dx > maxDX {
				maxDX = dx
			}
			if dy < minDY {
				minDY = dy
			}
			if dy > maxDY {
				maxDY = dy
			}
		}
	}

	if len(result.Tiles) > 0 {
		result.MinX = centerIntX.AddInt(int64(minDX)).Clamp(zero, maxIndex)
		result.MaxX = centerIntX.AddInt(int64(maxDX)).Clamp(zero, maxIndex)
		result.MinY = centerIntY.AddInt(int64(minDY)).Clamp(zero, maxIndex)
		result.MaxY = centerIntY.AddInt(int64(maxDY)).Clamp(zero, maxIndex)
	}

	return result
}

// RequiredLevels returns the three levels the orchestrator composes per
// frame (spec §4.4): the stable parent fallback, the base level, and the
// fading-in child. baseLevel-1 is omitted when baseLevel is 0.
func RequiredLevels(cam *Camera) []int {
	base := cam.BaseLevel()
	if base <= 0 {
		return []int{base, base + 1}
	}
	return []int{base - 1, base, base + 1}
}
