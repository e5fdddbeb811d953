package deepzoom

import (
	"encoding/json"
	"fmt"
)

// DatasetIndex is the top-level dataset listing (spec §6): { datasets: [...] }.
type DatasetIndex struct {
	Datasets []DatasetSummary `json:"datasets"`
}

// DatasetSummary is one entry in a DatasetIndex.
type DatasetSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ParseDatasetIndex parses the dataset index JSON document.
func ParseDatasetIndex(data []byte) (DatasetIndex, error) {
	var idx DatasetIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return DatasetIndex{}, fmt.Errorf("deepzoom: parse dataset index: %w", err)
	}
	return idx, nil
}

// DatasetConfig is a single dataset's configuration (spec §6).
type DatasetConfig struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	TileSize int            `json:"tile_size"`
	Render   *RenderConfig  `json:"render_config,omitempty"`
}

// RenderConfig carries optional per-dataset rendering hints: the deepest
// expected level (used to size the precision context) and an optionally
// embedded keyframe path.
type RenderConfig struct {
	MaxLevel *float64  `json:"max_level,omitempty"`
	Path     *PathSpec `json:"path,omitempty"`
}

// ParseDatasetConfig parses a dataset config JSON document.
func ParseDatasetConfig(data []byte) (DatasetConfig, error) {
	var cfg DatasetConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DatasetConfig{}, fmt.Errorf("deepzoom: parse dataset config: %w", err)
	}
	return cfg, nil
}

// PathSpec is the JSON document shape for a path file (spec §6):
// { path: { keyframes: [...] } }.
type PathSpec struct {
	Keyframes []KeyframeSpec `json:"keyframes"`
}

// PathDocument wraps a PathSpec the way the standalone path JSON file does:
// { path: {...} }.
type PathDocument struct {
	Path PathSpec `json:"path"`
}

// KeyframeSpec is the wire shape of a keyframe: either an explicit camera
// (with position fields accepting numeric-or-string for precision) or a
// macro reference, per spec §3/§6.
type KeyframeSpec struct {
	Camera *CameraSpec `json:"camera,omitempty"`
	Macro  string      `json:"macro,omitempty"`

	// Direct macro fields, present when Macro is set (mirrors the spec's
	// MacroObj shape, which carries macro + its fields at the top level).
	GlobalX json.Number `json:"globalX,omitempty"`
	GlobalY json.Number `json:"globalY,omitempty"`
	Re      json.Number `json:"re,omitempty"`
	Im      json.Number `json:"im,omitempty"`
	Level   json.Number `json:"level,omitempty"`
}

// CameraSpec is the wire shape of a camera within a keyframe. Position
// fields accept either a JSON number or a decimal string for precision
// preservation (spec §6).
type CameraSpec struct {
	GlobalLevel *json.Number `json:"globalLevel,omitempty"`
	Level       *json.Number `json:"level,omitempty"`
	ZoomOffset  *json.Number `json:"zoomOffset,omitempty"`

	X       json.Number `json:"x,omitempty"`
	Y       json.Number `json:"y,omitempty"`
	GlobalX json.Number `json:"globalX,omitempty"`
	GlobalY json.Number `json:"globalY,omitempty"`

	Rotation json.Number `json:"rotation,omitempty"`
}

// ParsePath parses a path JSON document or a bare path spec, either
// "{ path: {...} }" or "{ keyframes: [...] }", then resolves it into a
// Keyframe slice ready for BuildPathSampler.
func ParsePath(ctx PrecisionContext, data []byte) ([]Keyframe, error) {
	var doc PathDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("deepzoom: parse path: %w", err)
	}
	if len(doc.Path.Keyframes) > 0 {
		return resolveKeyframeSpecs(ctx, doc.Path.Keyframes)
	}

	var spec PathSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("deepzoom: parse path: %w", err)
	}
	return resolveKeyframeSpecs(ctx, spec.Keyframes)
}

func resolveKeyframeSpecs(ctx PrecisionContext, specs []KeyframeSpec) ([]Keyframe, error) {
	out := make([]Keyframe, 0, len(specs))
	for i, spec := range specs {
		kf, err := keyframeFromSpec(ctx, spec)
		if err != nil {
			return nil, fmt.Errorf("deepzoom: keyframe %d: %w", i, err)
		}
		out = append(out, kf)
	}
	return out, nil
}

func keyframeFromSpec(ctx PrecisionContext, spec KeyframeSpec) (Keyframe, error) {
	if spec.Macro != "" {
		kf := Keyframe{Macro: spec.Macro}
		if spec.Re != "" {
			re, err := spec.Re.Float64()
			if err != nil {
				return Keyframe{}, fmt.Errorf("%w: re", ErrBadCoordinate)
			}
			kf.MacroRe = re
		}
		if spec.Im != "" {
			im, err := spec.Im.Float64()
			if err != nil {
				return Keyframe{}, fmt.Errorf("%w: im", ErrBadCoordinate)
			}
			kf.MacroIm = im
		}
		if spec.GlobalX != "" {
			x, err := numberToBigDecimal(ctx, spec.GlobalX)
			if err != nil {
				return Keyframe{}, err
			}
			kf.Camera.X = x
		}
		if spec.GlobalY != "" {
			y, err := numberToBigDecimal(ctx, spec.GlobalY)
			if err != nil {
				return Keyframe{}, err
			}
			kf.Camera.Y = y
		}
		if spec.Level != "" {
			lvl, err := spec.Level.Float64()
			if err != nil {
				return Keyframe{}, fmt.Errorf("%w: level", ErrBadCoordinate)
			}
			kf.Camera.GlobalLevel = lvl
		}
		kf.Camera.ctx = ctx
		return kf, nil
	}

	if spec.Camera == nil {
		return Keyframe{}, fmt.Errorf("%w: keyframe missing camera and macro", ErrBadCoordinate)
	}
	cam, err := cameraFromSpec(ctx, *spec.Camera)
	if err != nil {
		return Keyframe{}, err
	}
	return Keyframe{Camera: cam}, nil
}

func cameraFromSpec(ctx PrecisionContext, spec CameraSpec) (Camera, error) {
	cam := Camera{ctx: ctx}

	switch {
	case spec.GlobalLevel != nil:
		lvl, err := spec.GlobalLevel.Float64()
		if err != nil {
			return Camera{}, fmt.Errorf("%w: globalLevel", ErrBadCoordinate)
		}
		cam.GlobalLevel = lvl
	case spec.Level != nil:
		lvl, err := spec.Level.Float64()
		if err != nil {
			return Camera{}, fmt.Errorf("%w: level", ErrBadCoordinate)
		}
		offset := 0.0
		if spec.ZoomOffset != nil {
			o, err := spec.ZoomOffset.Float64()
			if err != nil {
				return Camera{}, fmt.Errorf("%w: zoomOffset", ErrBadCoordinate)
			}
			offset = o
		}
		cam.GlobalLevel = lvl + offset
	}

	xField, yField := spec.X, spec.Y
	if xField == "" && spec.GlobalX != "" {
		xField = spec.GlobalX
	}
	if yField == "" && spec.GlobalY != "" {
		yField = spec.GlobalY
	}
	if xField != "" {
		x, err := numberToBigDecimal(ctx, xField)
		if err != nil {
			return Camera{}, err
		}
		cam.X = x
	}
	if yField != "" {
		y, err := numberToBigDecimal(ctx, yField)
		if err != nil {
			return Camera{}, err
		}
		cam.Y = y
	}
	if spec.Rotation != "" {
		r, err := spec.Rotation.Float64()
		if err != nil {
			return Camera{}, fmt.Errorf("%w: rotation", ErrBadCoordinate)
		}
		cam.Rotation = r
	}
	return cam, nil
}

// numberToBigDecimal converts a json.Number (which may have arrived as a
// quoted decimal string for precision, or a bare JSON number) into a
// BigDecimal without ever routing through float64.
func numberToBigDecimal(ctx PrecisionContext, n json.Number) (BigDecimal, error) {
	return ParseBigDecimal(ctx, n.String())
}
