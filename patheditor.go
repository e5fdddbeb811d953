package deepzoom

import "github.com/tanema/gween/ease"

// pathSpeedVisualUnitsPerSecond is PATH_SPEED (spec §4.7): the constant
// playback rate, in visual units of arc length per second, used to convert
// a keyframe's LUT stop into an elapsed-time scrub position. Not pinned to
// a concrete value by the spec; chosen so a typical multi-keyframe deep
// zoom plays back over tens of seconds rather than minutes.
const pathSpeedVisualUnitsPerSecond = 1.0

// jumpSnapSeconds is the duration of the camera snap-tween PathEditor plays
// when jumping to a keyframe (spec §4.7 bypasses the sampler but still
// wants a smooth level/rotation transition rather than a hard cut).
const jumpSnapSeconds = 0.3

// PathEditor owns a mutable keyframe list and the derived PathSampler,
// rebuilding the sampler after every mutation (spec §4.7). It is the model
// backing an authoring UI: jumpTo, insertAfterActive, delete, and the
// timeline scrubber all operate through it.
type PathEditor struct {
	ctx       PrecisionContext
	keyframes []Keyframe
	sampler   *PathSampler

	// ActiveIndex is the currently selected keyframe, or -1 if none.
	ActiveIndex int

	// ElapsedSeconds is the timeline scrubber position.
	ElapsedSeconds float64

	// PlaybackEnabled is true only when the path has >= 2 keyframes
	// (spec §4.7 rebuild: "re-enables/disables playback controls").
	PlaybackEnabled bool
}

// NewPathEditor creates a PathEditor over an initial keyframe list (may be
// empty) and immediately rebuilds its sampler.
func NewPathEditor(ctx PrecisionContext, keyframes []Keyframe) *PathEditor {
	e := &PathEditor{ctx: ctx, keyframes: append([]Keyframe(nil), keyframes...), ActiveIndex: -1}
	if len(keyframes) > 0 {
		e.ActiveIndex = 0
	}
	e.rebuild()
	return e
}

// Keyframes returns the current keyframe list. Callers must not mutate the
// returned slice; use InsertAfterActive/Delete instead.
func (e *PathEditor) Keyframes() []Keyframe {
	return e.keyframes
}

// Sampler returns the PathSampler derived from the current keyframe list.
func (e *PathEditor) Sampler() *PathSampler {
	return e.sampler
}

// JumpTo sets the camera to the exact keyframe at index, bypassing the
// sampler, and updates the timeline scrubber to that keyframe's LUT stop
// (spec §4.7). It returns a FieldTween the caller should Update each frame
// to smooth the level/rotation transition; position snaps immediately.
func (e *PathEditor) JumpTo(cam *Camera, index int) *FieldTween {
	if index < 0 || index >= len(e.keyframes) {
		return nil
	}
	e.ActiveIndex = index

	target := e.keyframes[index].Resolve(e.ctx)
	cam.SetPosition(target.X, target.Y)

	if e.sampler != nil {
		stops := e.sampler.Stops()
		if index < len(stops) {
			e.ElapsedSeconds = stops[index] / pathSpeedVisualUnitsPerSecond
		}
	}

	return TweenCameraSnap(cam, target.GlobalLevel, target.Rotation, jumpSnapSeconds, ease.OutCubic)
}

// InsertAfterActive snapshots camera's current state and inserts it as a
// new keyframe immediately after ActiveIndex, then advances ActiveIndex to
// the new entry and rebuilds the sampler (spec §4.7). Position is carried
// as BigDecimal, preserving precision beyond what a float64 snapshot could.
func (e *PathEditor) InsertAfterActive(cam *Camera) {
	kf := Keyframe{Camera: cam.Snapshot()}

	insertAt := e.ActiveIndex + 1
	if insertAt < 0 {
		insertAt = len(e.keyframes)
	}
	e.keyframes = append(e.keyframes, Keyframe{})
	copy(e.keyframes[insertAt+1:], e.keyframes[insertAt:])
	e.keyframes[insertAt] = kf

	e.ActiveIndex = insertAt
	e.rebuild()
}

// Delete removes the keyframe at index and adjusts ActiveIndex: it stays on
// the same logical neighbor, clamped into range, or becomes -1 if the list
// is now empty (spec §4.7).
func (e *PathEditor) Delete(index int) {
	if index < 0 || index >= len(e.keyframes) {
		return
	}
	e.keyframes = append(e.keyframes[:index], e.keyframes[index+1:]...)

	switch {
	case len(e.keyframes) == 0:
		e.ActiveIndex = -1
	case e.ActiveIndex >= len(e.keyframes):
		e.ActiveIndex = len(e.keyframes) - 1
	case e.ActiveIndex > index:
		e.ActiveIndex--
	}
	e.rebuild()
}

// rebuild reconstructs the PathSampler from the current keyframe list and
// updates PlaybackEnabled, per spec §4.7.
func (e *PathEditor) rebuild() {
	e.sampler = BuildPathSampler(e.ctx, e.keyframes)
	e.PlaybackEnabled = len(e.keyframes) >= 2
}

// Progress returns the current scrubber position as sampler progress in
// [0, 1], for driving PathSampler.CameraAtProgress during playback.
func (e *PathEditor) Progress() float64 {
	if e.sampler == nil || e.sampler.TotalLength() <= 0 {
		return 0
	}
	dist := e.ElapsedSeconds * pathSpeedVisualUnitsPerSecond
	return dist / e.sampler.TotalLength()
}

// Advance moves the scrubber forward by dtSeconds, clamping at the end of
// the path (spec §4.6 step 4: "advance elapsed time").
func (e *PathEditor) Advance(dtSeconds float64) {
	if !e.PlaybackEnabled {
		return
	}
	maxElapsed := 0.0
	if e.sampler != nil {
		maxElapsed = e.sampler.TotalLength() / pathSpeedVisualUnitsPerSecond
	}
	e.ElapsedSeconds += dtSeconds
	if e.ElapsedSeconds > maxElapsed {
		e.ElapsedSeconds = maxElapsed
	}
}
