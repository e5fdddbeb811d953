package deepzoom

import "math"

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular.
func invertAffine(m [6]float64) [6]float64 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// cameraScreenTransform builds the affine matrix mapping target-level tile
// units (the VisibleTile.RelX/RelY grid) to screen pixels, for a camera
// rendering at a given target level (spec §4.6 step 5). This is the
// world->screen transform directly (not its inverse), so the layers
// container rotates by -Rotation, matching Camera.Pan's own "world->screen
// rotates by -rotation" rationale.
func cameraScreenTransform(cam *Camera, targetLevel int, viewW, viewH, tileSize float64) [6]float64 {
	displayScale := math.Exp2(cam.GlobalLevel-float64(targetLevel)) * tileSize
	sin, cos := math.Sincos(cam.Rotation)

	scaleRotate := [6]float64{
		cos * displayScale, -sin * displayScale,
		sin * displayScale, cos * displayScale,
		0, 0,
	}
	toScreenCenter := [6]float64{1, 0, 0, 1, viewW / 2, viewH / 2}
	return multiplyAffine(toScreenCenter, scaleRotate)
}

// tileScreenRect returns the four screen-space corners (TL, TR, BL, BR) of
// a unit tile whose top-left sits at (relX, relY) in target-level tile
// units, under the given screen transform.
func tileScreenRect(m [6]float64, relX, relY float64) (tlX, tlY, trX, trY, blX, blY, brX, brY float64) {
	tlX, tlY = transformPoint(m, relX, relY)
	trX, trY = transformPoint(m, relX+1, relY)
	blX, blY = transformPoint(m, relX, relY+1)
	brX, brY = transformPoint(m, relX+1, relY+1)
	return
}
