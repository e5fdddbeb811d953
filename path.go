package deepzoom

import (
	"math"
	"sort"
)

// samplesPerPrimitive is the per-primitive LUT resolution (spec §4.3,
// SAMPLES_PER_PRIM), tunable.
const samplesPerPrimitive = 2000

// filletCapVisualUnits bounds the fillet radius so corners never orbit
// widely at deep levels (spec §4.3).
const filletCapVisualUnits = 4.0

// swoopEpsilon is the threshold below which the swoop interpolation's
// level-weight denominator is treated as zero, falling back to linear-in-t
// interpolation (spec §9, open question on the swoop division).
const swoopEpsilon = 1e-9

// Keyframe is an anchor point in a camera path. Position fields are carried
// as BigDecimal so precision survives serialization round-trips; Resolve
// applies any macro before the keyframe is used for sampling.
type Keyframe struct {
	Camera Camera
	// Macro, if non-empty, is "global" or "mandelbrot"/"mb" and indicates
	// Camera.X/Y should be recomputed from macro-specific fields before use.
	Macro string
	// MacroRe, MacroIm are the Mandelbrot-plane coordinates used when
	// Macro is "mandelbrot" or "mb".
	MacroRe, MacroIm float64
}

// Mandelbrot bounding rectangle used to map (re, im) -> normalized (x, y),
// per spec §3/§6: centered at (-0.75, 0) with width/height 3.0, y inverted.
const (
	mandelbrotCenterRe = -0.75
	mandelbrotCenterIm = 0.0
	mandelbrotExtent   = 3.0
)

// Resolve returns the keyframe's canonical camera, applying the macro (if
// any) to derive X/Y. Keyframes without a macro are returned unchanged.
func (k Keyframe) Resolve(ctx PrecisionContext) Camera {
	cam := k.Camera
	cam.ctx = ctx
	switch k.Macro {
	case "mandelbrot", "mb":
		x := (k.MacroRe-mandelbrotCenterRe)/mandelbrotExtent + 0.5
		y := (mandelbrotCenterIm-k.MacroIm)/mandelbrotExtent + 0.5
		cam.X = NewBigDecimal(ctx, x)
		cam.Y = NewBigDecimal(ctx, y)
	case "global", "":
		// already canonical
	}
	return cam
}

// primitiveKind distinguishes the two geometry primitives the sampler
// builds from a keyframe list (spec §4.3). Dispatch is a type switch on
// the tagged kind, matching the teacher's sum-typed command dispatch
// instead of an interface hierarchy.
type primitiveKind uint8

const (
	primLine primitiveKind = iota
	primCorner
)

// primitive is a single geometry segment: either a straight (swoop-
// interpolated) line between two resolved cameras, or a quadratic Bézier
// fillet through three cameras.
type primitive struct {
	kind       primitiveKind
	p1, p2     Camera // line endpoints
	qIn, pC, qOut Camera // corner: qIn -> pCorner -> qOut
}

// evaluate returns the camera at parameter t in [0, 1] along this
// primitive.
func (p primitive) evaluate(ctx PrecisionContext, t float64) Camera {
	switch p.kind {
	case primCorner:
		return bezierCamera(ctx, p.qIn, p.pC, p.qOut, t)
	default:
		return swoopCamera(ctx, p.p1, p.p2, t)
	}
}

// swoopCamera interpolates position using the "swoop" / projective blend
// (spec §4.3): level interpolates linearly in t, while x/y interpolate by
// the fraction of level-weight traversed, keeping a deep-zoom target framed
// throughout the descent.
func swoopCamera(ctx PrecisionContext, a, b Camera, t float64) Camera {
	level := a.GlobalLevel + t*(b.GlobalLevel-a.GlobalLevel)

	w1 := math.Exp2(-a.GlobalLevel)
	w2 := math.Exp2(-b.GlobalLevel)

	s := t
	if math.Abs(w2-w1) >= swoopEpsilon {
		wT := math.Exp2(-level)
		s = (wT - w1) / (w2 - w1)
	}

	x := a.X.Add(b.X.Sub(a.X).Mul(NewBigDecimal(ctx, s)))
	y := a.Y.Add(b.Y.Sub(a.Y).Mul(NewBigDecimal(ctx, s)))
	rot := a.Rotation + t*(b.Rotation-a.Rotation)

	return Camera{GlobalLevel: level, X: x, Y: y, Rotation: rot, ctx: ctx}
}

// bezierCamera evaluates a quadratic Bézier through (q0, p1, q2) at t,
// componentwise across every camera field, giving C¹ continuity across a
// path corner.
func bezierCamera(ctx PrecisionContext, q0, p1, q2 Camera, t float64) Camera {
	mt := 1 - t
	w0 := mt * mt
	w1 := 2 * mt * t
	w2 := t * t

	level := w0*q0.GlobalLevel + w1*p1.GlobalLevel + w2*q2.GlobalLevel
	rot := w0*q0.Rotation + w1*p1.Rotation + w2*q2.Rotation

	x := bezierBigDecimal(ctx, q0.X, p1.X, q2.X, w0, w1, w2)
	y := bezierBigDecimal(ctx, q0.Y, p1.Y, q2.Y, w0, w1, w2)

	return Camera{GlobalLevel: level, X: x, Y: y, Rotation: rot, ctx: ctx}
}

func bezierBigDecimal(ctx PrecisionContext, a, b, c BigDecimal, w0, w1, w2 float64) BigDecimal {
	ta := a.Mul(NewBigDecimal(ctx, w0))
	tb := b.Mul(NewBigDecimal(ctx, w1))
	tc := c.Mul(NewBigDecimal(ctx, w2))
	return ta.Add(tb).Add(tc)
}

// lutEntry maps a cumulative global-t parameter to cumulative arc distance.
type lutEntry struct {
	globalT      float64 // primitiveIndex + localT
	cumulativeDist float64
}

// PathSampler converts a keyframe list into a continuous, constant-visual-
// speed, C¹ path via filleted linear segments and quadratic Bézier
// corners, plus an arc-length lookup table. It is immutable after Build
// and must be rebuilt whenever the source path changes.
type PathSampler struct {
	ctx        PrecisionContext
	primitives []primitive
	lut        []lutEntry
	totalLength float64
	// stops holds the arc-distance at which each source keyframe occurs,
	// used for timeline sync by the path editor.
	stops []float64

	// constant is set when the sampler degenerates to a single fixed
	// camera, per spec §4.3 failure modes (0 or 1 keyframes).
	constant   bool
	constCam   Camera
}

// BuildPathSampler builds a PathSampler from a list of keyframes. An empty
// list yields a null (zero-value) camera sampler; a single keyframe yields
// a constant sampler. Both are valid, non-error results per spec §4.3.
func BuildPathSampler(ctx PrecisionContext, keyframes []Keyframe) *PathSampler {
	if len(keyframes) == 0 {
		return &PathSampler{ctx: ctx, constant: true}
	}
	cams := make([]Camera, len(keyframes))
	for i, k := range keyframes {
		cams[i] = k.Resolve(ctx)
	}
	if len(cams) == 1 {
		return &PathSampler{ctx: ctx, constant: true, constCam: cams[0]}
	}

	ps := &PathSampler{ctx: ctx}
	ps.primitives = buildPrimitives(cams)
	ps.buildLUT()
	return ps
}

// buildPrimitives constructs the Line/Corner sequence for n >= 2 resolved
// keyframe cameras, per spec §4.3: Line(k0,qIn1) -> Corner(qIn1,k1,qOut1) ->
// Line(qOut1,qIn2) -> ... -> Line(qInN-1,kN).
func buildPrimitives(cams []Camera) []primitive {
	n := len(cams)
	if n == 2 {
		return []primitive{{kind: primLine, p1: cams[0], p2: cams[1]}}
	}

	// raw segment lengths, used to size fillets.
	segLen := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		segLen[i] = visualDistance(cams[i], cams[i+1])
	}

	prims := make([]primitive, 0, 2*n-3)
	prevEnd := cams[0]
	for i := 1; i < n-1; i++ {
		lenPrev := segLen[i-1]
		lenNext := segLen[i]
		r := math.Min(lenPrev, lenNext) * 0.5
		if r > filletCapVisualUnits {
			r = filletCapVisualUnits
		}

		var tIn, tOut float64 = 1, 0
		if lenPrev > 0 {
			tIn = 1 - r/lenPrev
		}
		if lenNext > 0 {
			tOut = r / lenNext
		}
		clamp01 := func(v float64) float64 {
			if v < 0 {
				return 0
			}
			if v > 1 {
				return 1
			}
			return v
		}
		tIn, tOut = clamp01(tIn), clamp01(tOut)

		qIn := swoopCamera(cams[i].ctx, cams[i-1], cams[i], tIn)
		qOut := swoopCamera(cams[i].ctx, cams[i], cams[i+1], tOut)

		prims = append(prims, primitive{kind: primLine, p1: prevEnd, p2: qIn})
		prims = append(prims, primitive{kind: primCorner, qIn: qIn, pC: cams[i], qOut: qOut})
		prevEnd = qOut
	}
	prims = append(prims, primitive{kind: primLine, p1: prevEnd, p2: cams[n-1]})
	return prims
}

// visualDistance computes the perceptual cost function driving constant-
// speed playback (spec §4.3): using the coarser (minimum) of the two
// endpoint levels avoids overestimating lateral distance during deep
// zooms.
func visualDistance(a, b Camera) float64 {
	lRef := math.Min(a.GlobalLevel, b.GlobalLevel)
	s := math.Exp2(lRef)

	dx := b.X.Sub(a.X).Float64() * s
	dy := b.Y.Sub(a.Y).Float64() * s
	dl := b.GlobalLevel - a.GlobalLevel
	drot := b.Rotation - a.Rotation

	return math.Sqrt(dx*dx + dy*dy + dl*dl + drot*drot)
}

// buildLUT samples every primitive at samplesPerPrimitive equal-t intervals
// (samplesPerPrimitive+1 points), accumulates pairwise visual distance into totalLength, and
// records per-keyframe stops.
func (ps *PathSampler) buildLUT() {
	ps.lut = make([]lutEntry, 0, len(ps.primitives)*(samplesPerPrimitive+1))
	ps.stops = make([]float64, 0, len(ps.primitives)+1)

	cumulative := 0.0
	var prevCam Camera
	havePrev := false

	ps.stops = append(ps.stops, 0)

	for pi, prim := range ps.primitives {
		for si := 0; si <= samplesPerPrimitive; si++ {
			t := float64(si) / float64(samplesPerPrimitive)
			cam := prim.evaluate(ps.ctx, t)
			if havePrev {
				cumulative += visualDistance(prevCam, cam)
			}
			ps.lut = append(ps.lut, lutEntry{globalT: float64(pi) + t, cumulativeDist: cumulative})
			prevCam = cam
			havePrev = true
		}
		// A Line primitive boundary between fillets corresponds to a
		// source keyframe only when it's not itself a corner; corners sit
		// between keyframe boundaries and are excluded from stops.
		if prim.kind == primLine && pi == len(ps.primitives)-1 {
			ps.stops = append(ps.stops, cumulative)
		} else if prim.kind == primLine && pi+1 < len(ps.primitives) && ps.primitives[pi+1].kind == primCorner {
			ps.stops = append(ps.stops, cumulative)
		}
	}

	ps.totalLength = cumulative
}

// TotalLength returns the path's total arc length in visual units.
func (ps *PathSampler) TotalLength() float64 {
	return ps.totalLength
}

// Stops returns the arc-distances at which source keyframes occur, for
// timeline sync.
func (ps *PathSampler) Stops() []float64 {
	return ps.stops
}

// CameraAtProgress returns the camera at normalized progress p in [0, 1],
// clamped. If the sampler has fewer than 2 keyframes it returns the
// constant/null camera per spec §4.3.
func (ps *PathSampler) CameraAtProgress(p float64) Camera {
	if ps.constant {
		return ps.constCam
	}
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}

	target := p * ps.totalLength
	idx := sort.Search(len(ps.lut), func(i int) bool {
		return ps.lut[i].cumulativeDist >= target
	})

	var globalT float64
	switch {
	case len(ps.lut) == 0:
		globalT = 0
	case idx == 0:
		globalT = ps.lut[0].globalT
	case idx >= len(ps.lut):
		globalT = ps.lut[len(ps.lut)-1].globalT
	default:
		lo, hi := ps.lut[idx-1], ps.lut[idx]
		span := hi.cumulativeDist - lo.cumulativeDist
		frac := 0.0
		if span > 0 {
			frac = (target - lo.cumulativeDist) / span
		}
		globalT = lo.globalT + frac*(hi.globalT-lo.globalT)
	}

	primIndex := int(math.Floor(globalT))
	if primIndex >= len(ps.primitives) {
		primIndex = len(ps.primitives) - 1
	}
	if primIndex < 0 {
		primIndex = 0
	}
	localT := globalT - float64(primIndex)
	if localT < 0 {
		localT = 0
	}
	if localT > 1 {
		localT = 1
	}

	return ps.primitives[primIndex].evaluate(ps.ctx, localT)
}
