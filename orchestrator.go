package deepzoom

import (
	"context"

	"github.com/hajimehoshi/ebiten/v2"
)

// fadeOutSeconds is how long an evicted tile takes to fade to transparent
// before it is dropped from the active set (spec §4.6 cross-fade).
const fadeOutSeconds = 0.2

// TileSource fetches tile bytes from the static cache and the live render
// backend. Implementations live in the adapter files and wrap the actual
// transport (filesystem, HTTP, S3-compatible object storage, gRPC/HTTP
// live-render backend).
type TileSource interface {
	FetchStatic(ctx context.Context, tile TileID) ([]byte, error)
	FetchLive(ctx context.Context, tile TileID) ([]byte, int, error)
}

// Orchestrator is the per-frame render loop (spec §4.6): it reconciles the
// active tile set against VisibleTiles/RequiredLevels, drives the
// Scheduler, decodes completed fetches into GPU images, and composites the
// resulting cross-faded tile stack.
type Orchestrator struct {
	scheduler *Scheduler
	manifest  *TileManifest
	source    TileSource
	dataset   string
	tileSize  float64

	tiles map[string]*activeTile
}

// NewOrchestrator creates an Orchestrator for a single dataset.
func NewOrchestrator(scheduler *Scheduler, manifest *TileManifest, source TileSource, dataset string, tileSize float64) *Orchestrator {
	return &Orchestrator{
		scheduler: scheduler,
		manifest:  manifest,
		source:    source,
		dataset:   dataset,
		tileSize:  tileSize,
		tiles:     make(map[string]*activeTile),
	}
}

// Update reconciles the active tile set against the camera's current view,
// drains completed fetches, recomputes each level's cross-fade opacity, and
// advances eviction fade-outs. It should be called once per frame before
// Draw.
func (o *Orchestrator) Update(ctx context.Context, cam *Camera, viewW, viewH float64, dt float32) {
	o.scheduler.UpdateViewport(cam, viewW, viewH, o.tileSize)
	o.scheduler.Prune(cam, viewW, viewH, o.tileSize)
	o.drainCompletions()
	o.scheduler.Process(ctx)

	for _, t := range o.tiles {
		t.wanted = false
	}

	base := cam.BaseLevel()
	for _, level := range RequiredLevels(cam) {
		// The child layer's opacity is the fractional part of GlobalLevel,
		// recomputed every frame (spec §4.6 step 6); parent/base stay at 1.0.
		opacity := 1.0
		if level == base+1 {
			opacity = cam.ChildOpacity()
			if opacity <= 0.001 {
				continue
			}
		}

		vt := VisibleTiles(cam, level, viewW, viewH, o.tileSize)
		for _, v := range vt.Tiles {
			id := TileID{Dataset: o.dataset, Level: level, X: v.X, Y: v.Y}
			key := id.Key()
			t, ok := o.tiles[key]
			if !ok {
				t = &activeTile{id: id}
				o.tiles[key] = t
				o.requestTile(ctx, t)
			}
			t.wanted = true
			t.relX = v.RelX
			t.relY = v.RelY
			t.fade = nil
			t.opacity = opacity
		}
	}

	for key, t := range o.tiles {
		if !t.wanted && t.fade == nil {
			t.fade = TweenOpacity(&t.opacity, 0, fadeOutSeconds)
		}
		t.updateFade(dt)
		if !t.wanted && t.opacity <= 0.001 {
			delete(o.tiles, key)
		}
	}
}

// requestTile enqueues a fetch for a newly tracked tile, routing through
// the manifest-aware lane selection in Scheduler.Request (spec §4.5).
func (o *Orchestrator) requestTile(ctx context.Context, t *activeTile) {
	id := t.id
	static := StaticOptions{
		Fetch: func(ctx context.Context) ([]byte, error) {
			return o.source.FetchStatic(ctx, id)
		},
	}
	live := LiveOptions{
		Fetch: func(ctx context.Context) ([]byte, int, error) {
			return o.source.FetchLive(ctx, id)
		},
		RetryDelayMs: defaultRetryDelayMs,
	}
	o.scheduler.Request(id, t.relX, t.relY, static, live)
}

// drainCompletions applies every CompletionMessage currently buffered on
// the scheduler's channel without blocking.
func (o *Orchestrator) drainCompletions() {
	for {
		select {
		case msg, ok := <-o.scheduler.Completions:
			if !ok {
				return
			}
			o.scheduler.Complete(msg)
			o.applyCompletion(msg)
		default:
			return
		}
	}
}

func (o *Orchestrator) applyCompletion(msg CompletionMessage) {
	if msg.Err != nil {
		return
	}
	t, ok := o.tiles[msg.Tile.Key()]
	if !ok {
		return
	}
	img, err := decodeTileImage(msg.Bytes)
	if err != nil {
		return
	}
	t.image = img
}

// Draw composites the active tile stack onto screen, lowest level first,
// each tile positioned via the camera's screen transform at its level and
// painted at its current cross-fade opacity.
func (o *Orchestrator) Draw(screen *ebiten.Image, cam *Camera, viewW, viewH float64) {
	for _, level := range RequiredLevels(cam) {
		m := cameraScreenTransform(cam, level, viewW, viewH, o.tileSize)
		for _, t := range o.tiles {
			if t.id.Level != level || t.image == nil || t.opacity <= 0 {
				continue
			}
			o.drawTile(screen, t, m)
		}
	}
}

func (o *Orchestrator) drawTile(screen *ebiten.Image, t *activeTile, screenTransform [6]float64) {
	bounds := t.image.Bounds()
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	if w == 0 || h == 0 {
		return
	}

	toUnit := [6]float64{1 / w, 0, 0, 1 / h, 0, 0}
	placeAtTile := [6]float64{1, 0, 0, 1, t.relX, t.relY}
	unitPlacement := multiplyAffine(placeAtTile, toUnit)
	final := multiplyAffine(screenTransform, unitPlacement)

	var geom ebiten.GeoM
	geom.SetElement(0, 0, final[0])
	geom.SetElement(1, 0, final[1])
	geom.SetElement(0, 1, final[2])
	geom.SetElement(1, 1, final[3])
	geom.SetElement(0, 2, final[4])
	geom.SetElement(1, 2, final[5])

	var op ebiten.DrawImageOptions
	op.GeoM = geom
	a := float32(t.opacity)
	op.ColorScale.Scale(a, a, a, a)
	screen.DrawImage(t.image, &op)
}

// ActiveTileCount returns the number of tiles currently tracked (visible or
// fading out), for diagnostics/metrics.
func (o *Orchestrator) ActiveTileCount() int {
	return len(o.tiles)
}
