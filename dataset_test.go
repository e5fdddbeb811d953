package deepzoom

import "testing"

func TestParseDatasetIndex(t *testing.T) {
	data := []byte(`{"datasets":[{"id":"mandelbrot","name":"Mandelbrot Set","description":"deep zoom demo"}]}`)
	idx, err := ParseDatasetIndex(data)
	if err != nil {
		t.Fatalf("ParseDatasetIndex: %v", err)
	}
	if len(idx.Datasets) != 1 || idx.Datasets[0].ID != "mandelbrot" {
		t.Errorf("unexpected datasets: %+v", idx.Datasets)
	}
}

func TestParseDatasetIndexMalformed(t *testing.T) {
	if _, err := ParseDatasetIndex([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed dataset index")
	}
}

func TestParseDatasetConfig(t *testing.T) {
	data := []byte(`{"id":"mandelbrot","name":"Mandelbrot Set","tile_size":256,"render_config":{"max_level":400}}`)
	cfg, err := ParseDatasetConfig(data)
	if err != nil {
		t.Fatalf("ParseDatasetConfig: %v", err)
	}
	if cfg.TileSize != 256 {
		t.Errorf("TileSize = %d, want 256", cfg.TileSize)
	}
	if cfg.Render == nil || cfg.Render.MaxLevel == nil || *cfg.Render.MaxLevel != 400 {
		t.Fatalf("Render.MaxLevel not parsed correctly: %+v", cfg.Render)
	}
}

func TestParsePathWrappedDocument(t *testing.T) {
	ctx := NewPrecisionContext(100)
	data := []byte(`{"path":{"keyframes":[
		{"camera":{"globalLevel":0,"x":"0.25","y":"0.75","rotation":0}},
		{"camera":{"level":2,"zoomOffset":0.5,"x":0.5,"y":0.5}}
	]}}`)
	kfs, err := ParsePath(ctx, data)
	if err != nil {
		t.Fatalf("ParsePath: %v", err)
	}
	if len(kfs) != 2 {
		t.Fatalf("len(kfs) = %d, want 2", len(kfs))
	}
	if !approxEqual(kfs[0].Camera.X.Float64(), 0.25, 1e-9) {
		t.Errorf("kfs[0].X = %f, want 0.25 (parsed from a quoted string)", kfs[0].Camera.X.Float64())
	}
	if !approxEqual(kfs[1].Camera.GlobalLevel, 2.5, 1e-9) {
		t.Errorf("kfs[1].GlobalLevel = %f, want 2.5 (level + zoomOffset)", kfs[1].Camera.GlobalLevel)
	}
}

func TestParsePathBareKeyframesShape(t *testing.T) {
	ctx := NewPrecisionContext(100)
	data := []byte(`{"keyframes":[{"camera":{"globalLevel":1,"x":0.1,"y":0.9}}]}`)
	kfs, err := ParsePath(ctx, data)
	if err != nil {
		t.Fatalf("ParsePath: %v", err)
	}
	if len(kfs) != 1 {
		t.Fatalf("len(kfs) = %d, want 1", len(kfs))
	}
}

func TestParsePathMacroKeyframe(t *testing.T) {
	ctx := NewPrecisionContext(100)
	data := []byte(`{"path":{"keyframes":[{"macro":"mandelbrot","re":-0.75,"im":0,"level":3}]}}`)
	kfs, err := ParsePath(ctx, data)
	if err != nil {
		t.Fatalf("ParsePath: %v", err)
	}
	if len(kfs) != 1 {
		t.Fatalf("len(kfs) = %d, want 1", len(kfs))
	}
	if kfs[0].Macro != "mandelbrot" {
		t.Errorf("Macro = %q, want %q", kfs[0].Macro, "mandelbrot")
	}
	resolved := kfs[0].Resolve(ctx)
	if !approxEqual(resolved.X.Float64(), 0.5, 1e-9) {
		t.Errorf("resolved macro X = %f, want 0.5 (mandelbrot center)", resolved.X.Float64())
	}
}

func TestParsePathKeyframeMissingCameraAndMacroErrors(t *testing.T) {
	ctx := NewPrecisionContext(100)
	data := []byte(`{"path":{"keyframes":[{}]}}`)
	if _, err := ParsePath(ctx, data); err == nil {
		t.Fatal("expected error for a keyframe with neither camera nor macro")
	}
}

func TestParsePathRejectsBadCoordinateString(t *testing.T) {
	ctx := NewPrecisionContext(100)
	data := []byte(`{"path":{"keyframes":[{"camera":{"globalLevel":0,"x":"not-a-number","y":0}}]}}`)
	if _, err := ParsePath(ctx, data); err == nil {
		t.Fatal("expected error for an unparsable coordinate string")
	}
}

func TestNumberToBigDecimalPreservesHighPrecisionString(t *testing.T) {
	ctx := NewPrecisionContext(500)
	d, err := numberToBigDecimal(ctx, "0.123456789012345678901234567890123456789")
	if err != nil {
		t.Fatalf("numberToBigDecimal: %v", err)
	}
	if d.String() == "" {
		t.Error("expected a non-empty rendered decimal")
	}
}
