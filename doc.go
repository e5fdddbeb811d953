// Package deepzoom is a precision-safe deep-zoom tile viewer engine.
//
// It navigates an effectively unbounded quadtree of images to zoom depths
// far beyond IEEE-754 float precision, rendering a cross-faded stack of
// tiles driven either by interactive pan/zoom/rotate or by a pre-authored
// keyframe path sampled at constant visual speed.
//
// The package covers four tightly coupled subsystems: the precision-safe
// camera ([Camera], [BigDecimal], [BigIndex]), the arc-length path sampler
// ([PathSampler]), the visible-tile selector ([VisibleTiles]), and the
// prioritized tile request scheduler ([Scheduler]). The backend tile
// renderer, the static tile store, the UI shell, and image decoding are
// external collaborators consumed through the adapters in this package.
package deepzoom
