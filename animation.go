package deepzoom

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// FieldTween animates up to 4 float64 fields simultaneously. Create one via
// the convenience constructors (TweenOpacity, TweenScalar, TweenCameraSnap) and
// call Update(dt) each frame; it writes interpolated values directly into
// the target fields.
//
// There is no global animation manager — callers (the render orchestrator,
// the path editor) own and update their own FieldTweens.
type FieldTween struct {
	tweens [4]*gween.Tween
	count  int
	fields [4]*float64
	Done   bool
}

// Update advances all tweens by dt seconds and writes the interpolated
// values into the target fields. Done is set once every tween has finished.
func (g *FieldTween) Update(dt float32) {
	if g.Done {
		return
	}
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
}

// TweenScalar creates a FieldTween animating a single field from its
// current value to "to" over duration seconds.
func TweenScalar(field *float64, to float64, duration float32, fn ease.TweenFunc) *FieldTween {
	g := &FieldTween{count: 1}
	g.tweens[0] = gween.New(float32(*field), float32(to), duration, fn)
	g.fields[0] = field
	return g
}

// TweenOpacity creates a FieldTween that fades a tile layer's opacity field
// from its current value to "to" over duration seconds (spec §4.6 cross-fade).
func TweenOpacity(opacity *float64, to float64, duration float32) *FieldTween {
	return TweenScalar(opacity, to, duration, ease.Linear)
}

// TweenCameraSnap creates a FieldTween animating a camera's GlobalLevel and
// Rotation to the given targets (spec §4.7 jump-to). Position (X, Y) is not
// tweened: BigDecimal coordinates carry no meaningful notion of "midway" once
// the precision context has grown past float64 range, so a jump snaps
// position immediately and only smooths level/rotation.
func TweenCameraSnap(cam *Camera, toLevel, toRotation float64, duration float32, fn ease.TweenFunc) *FieldTween {
	g := &FieldTween{count: 2}
	g.tweens[0] = gween.New(float32(cam.GlobalLevel), float32(toLevel), duration, fn)
	g.tweens[1] = gween.New(float32(cam.Rotation), float32(toRotation), duration, fn)
	g.fields[0] = &cam.GlobalLevel
	g.fields[1] = &cam.Rotation
	return g
}
