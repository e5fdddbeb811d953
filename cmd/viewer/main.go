// Command viewer is a minimal interactive deep-zoom viewer: it wires
// deepzoom's camera, path sampler, visible-tile selector, scheduler, and
// render orchestrator together over a synthetic procedurally-generated
// tile source, so the engine runs end to end without a real dataset.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"math/rand/v2"
	"net/http"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dage/ultra-resolution-quads"
)

const (
	screenW  = 1024
	screenH  = 768
	tileSize = 256.0
	dataset  = "demo"
	maxLevel = 400.0
)

// syntheticTileSource generates a deterministic colored checkerboard PNG
// per tile identity instead of fetching real imagery, so the viewer can
// run without a dataset on disk. Both fetches always succeed: the viewer
// starts with an empty manifest and live rendering enabled, so each tile is
// first fetched through the live lane and then admitted to the manifest.
type syntheticTileSource struct{}

func (syntheticTileSource) FetchStatic(_ context.Context, tile deepzoom.TileID) ([]byte, error) {
	return encodeSyntheticTile(tile), nil
}

func (syntheticTileSource) FetchLive(_ context.Context, tile deepzoom.TileID) ([]byte, int, error) {
	return encodeSyntheticTile(tile), http.StatusOK, nil
}

func encodeSyntheticTile(tile deepzoom.TileID) []byte {
	seed := uint64(tile.Level)*1_000_003 ^ hashIndex(tile.X) ^ hashIndex(tile.Y)<<1
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b9))
	base := color.RGBA{
		R: uint8(64 + r.IntN(160)),
		G: uint8(64 + r.IntN(160)),
		B: uint8(64 + r.IntN(160)),
		A: 255,
	}

	img := image.NewRGBA(image.Rect(0, 0, int(tileSize), int(tileSize)))
	for y := 0; y < img.Rect.Dy(); y++ {
		for x := 0; x < img.Rect.Dx(); x++ {
			if (x/16+y/16)%2 == 0 {
				img.Set(x, y, base)
			} else {
				img.Set(x, y, color.RGBA{R: base.R / 2, G: base.G / 2, B: base.B / 2, A: 255})
			}
		}
	}

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func hashIndex(b deepzoom.BigIndex) uint64 {
	s := b.String()
	var h uint64 = 1469598103934665603
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

type game struct {
	ctx      deepzoom.PrecisionContext
	cam      *deepzoom.Camera
	sched    *deepzoom.Scheduler
	manifest *deepzoom.TileManifest
	orch     *deepzoom.Orchestrator
	editor   *deepzoom.PathEditor

	playing     bool
	snapTween   *deepzoom.FieldTween
	lastMouseX  int
	lastMouseY  int
	dragging    bool
}

func newGame() *game {
	ctx := deepzoom.NewPrecisionContext(maxLevel)
	cam := deepzoom.NewCamera(ctx)

	manifest := deepzoom.NewTileManifest()
	sched := deepzoom.NewScheduler(manifest)
	sched.SetLiveRenderEnabled(true)

	source := deepzoom.NewTileSource(syntheticTileSource{}, syntheticTileSource{})
	orch := deepzoom.NewOrchestrator(sched, manifest, source, dataset, tileSize)

	editor := deepzoom.NewPathEditor(ctx, nil)

	return &game{ctx: ctx, cam: cam, sched: sched, manifest: manifest, orch: orch, editor: editor}
}

func (g *game) Update() error {
	const dt = 1.0 / 60.0

	mx, my := ebiten.CursorPosition()
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if g.dragging {
			g.cam.Pan(float64(mx-g.lastMouseX), float64(my-g.lastMouseY), tileSize)
		}
		g.dragging = true
	} else {
		g.dragging = false
	}
	g.lastMouseX, g.lastMouseY = mx, my

	if _, dy := ebiten.Wheel(); dy != 0 {
		g.cam.Zoom(dy * 0.5)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyK) {
		g.editor.InsertAfterActive(g.cam)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) && g.editor.PlaybackEnabled {
		g.playing = !g.playing
	}

	if g.snapTween != nil {
		g.snapTween.Update(dt)
	}
	if g.playing {
		g.editor.Advance(dt)
		sampled := g.editor.Sampler().CameraAtProgress(g.editor.Progress())
		*g.cam = sampled
	}

	g.orch.Update(context.Background(), g.cam, screenW, screenH, dt)
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 15, G: 15, B: 23, A: 255})
	g.orch.Draw(screen, g.cam, screenW, screenH)

	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"level=%.2f  keyframes=%d  playing=%v  tiles=%d\ndrag: pan  wheel: zoom  K: insert keyframe  space: play/pause",
		g.cam.GlobalLevel, len(g.editor.Keyframes()), g.playing, g.orch.ActiveTileCount(),
	))
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenW, screenH
}

func main() {
	metricsAddr := flag.String("metrics-addr", "", "if set, serve Prometheus metrics on this address")
	flag.Parse()

	g := newGame()

	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		if err := deepzoom.RegisterMetrics(reg, dataset, g.sched, g.orch, nil); err != nil {
			log.Fatalf("register metrics: %v", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			log.Printf("serving metrics on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	ebiten.SetWindowSize(screenW, screenH)
	ebiten.SetWindowTitle("deepzoom viewer")
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
