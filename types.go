package deepzoom

import "strconv"

// Vec2 is a 2D vector. The package's own APIs pass offsets and positions
// as separate float64 values rather than as Vec2.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle in pixels, origin top-left, Y increasing
// downward. Viewports are passed to the package as width/height values, not
// as Rect.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// TileID identifies a tile: a dataset, an integer level, and arbitrary-width
// x/y indices. Only the identity travels through the scheduler — the bytes
// live externally per spec §1.
type TileID struct {
	Dataset string
	Level   int
	X, Y    BigIndex
}

// Key returns the canonical "level/x/y" manifest key for this tile.
func (t TileID) Key() string {
	return strconv.Itoa(t.Level) + "/" + t.X.String() + "/" + t.Y.String()
}

func (t TileID) String() string {
	return t.Dataset + "/" + t.Key()
}

// Equal reports whether two tile IDs refer to the same tile.
func (t TileID) Equal(other TileID) bool {
	return t.Dataset == other.Dataset && t.Level == other.Level &&
		t.X.Cmp(other.X) == 0 && t.Y.Cmp(other.Y) == 0
}
