package deepzoom

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/hajimehoshi/ebiten/v2"
)

// activeTile is one tile currently tracked by the render orchestrator: a
// decoded image (once available), its eviction fade-out tween (if any), and
// its last-known position in target-level tile units. Opacity while wanted
// is set directly each frame from Camera.ChildOpacity() (spec §4.6 step 6),
// not animated; only the fade-to-zero on eviction is a tween.
type activeTile struct {
	id      TileID
	image   *ebiten.Image
	opacity float64
	fade    *FieldTween
	relX    float64
	relY    float64
	wanted  bool // still within the current VisibleTiles set
}

// decodeTileImage decodes PNG/JPEG tile bytes into an ebiten.Image, the way
// the teacher's sprite-loading demo does via image.Decode + NewImageFromImage.
func decodeTileImage(data []byte) (*ebiten.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return ebiten.NewImageFromImage(img), nil
}

// updateFade advances the eviction fade-out tween, if one is running.
func (t *activeTile) updateFade(dt float32) {
	if t.fade != nil && !t.fade.Done {
		t.fade.Update(dt)
	}
}
