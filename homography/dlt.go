package homography

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// planarPair is an internal correspondence between two planar points
// (image pixels and the court-plane projection of the world point).
type planarPair struct {
	ix, iy float64 // image
	wx, wy float64 // world plane (x, z in meters)
}

func toPlanarPairs(pairs []Correspondence) []planarPair {
	out := make([]planarPair, len(pairs))
	for i, p := range pairs {
		out[i] = planarPair{ix: p.Image.X, iy: p.Image.Y, wx: p.World.X, wy: p.World.Z}
	}
	return out
}

// normalization is a Hartley similarity transform: points are translated
// so their centroid is the origin and scaled so the average distance from
// it is sqrt(2). DLT on raw pixel coordinates is numerically hostile (the
// design matrix mixes magnitudes of 1 and 1e6), so both point sets are
// conditioned before the solve and the result is denormalized after.
type normalization struct {
	t Matrix
}

func normalizePoints(xs, ys []float64) normalization {
	n := float64(len(xs))
	var cx, cy float64
	for i := range xs {
		cx += xs[i]
		cy += ys[i]
	}
	cx /= n
	cy /= n

	var meanDist float64
	for i := range xs {
		dx := xs[i] - cx
		dy := ys[i] - cy
		meanDist += math.Sqrt(dx*dx + dy*dy)
	}
	meanDist /= n

	scale := 1.0
	if meanDist > 1e-12 {
		scale = math.Sqrt2 / meanDist
	}

	return normalization{t: Matrix{
		{scale, 0, -scale * cx},
		{0, scale, -scale * cy},
		{0, 0, 1},
	}}
}

func (nm normalization) apply(x, y float64) (float64, float64) {
	u, v, _ := nm.t.Apply(x, y)
	return u, v
}

// solveDLT computes the homography mapping image points to world-plane
// points using the direct linear transform: the 2n x 9 homogeneous system
// is solved for its null vector via SVD, taking the right singular vector
// of the smallest singular value.
//
// Returns the denormalized matrix, the condition number of the normalized
// solution (meaningful for confidence scoring, unlike the raw-unit one),
// and whether the usual H[2][2]=1 scaling had to fall back to the
// Frobenius norm.
func solveDLT(pairs []planarPair) (h Matrix, cond float64, scaleFallback bool, err error) {
	n := len(pairs)
	if n < minimalSampleSize {
		return Matrix{}, 0, false, ErrInsufficientPoints
	}
	if hasDuplicatePoints(pairs) {
		return Matrix{}, 0, false, ErrDegenerateConfiguration
	}

	imgX := make([]float64, n)
	imgY := make([]float64, n)
	wldX := make([]float64, n)
	wldY := make([]float64, n)
	for i, p := range pairs {
		imgX[i], imgY[i] = p.ix, p.iy
		wldX[i], wldY[i] = p.wx, p.wy
	}
	normImg := normalizePoints(imgX, imgY)
	normWld := normalizePoints(wldX, wldY)

	a := mat.NewDense(2*n, 9, nil)
	for i, p := range pairs {
		x, y := normImg.apply(p.ix, p.iy)
		u, v := normWld.apply(p.wx, p.wy)

		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y, -u})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y, -v})
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFullV) {
		return Matrix{}, 0, false, ErrDegenerateConfiguration
	}
	sigma := svd.Values(nil)

	// The null vector is the last column of the full V (9 columns). For
	// exactly 4 points the system is 8x9 and the null direction carries no
	// singular value at all; for more points it pairs with the smallest.
	// Either way the next singular value up must be well separated from
	// zero, or the correspondences are collinear/ambiguous and the null
	// space has more than one dimension.
	separationIdx := len(sigma) - 1
	if 2*n >= 9 {
		separationIdx = len(sigma) - 2
	}
	if sigma[0] <= 0 || sigma[separationIdx] < 1e-9*sigma[0] {
		return Matrix{}, 0, false, ErrDegenerateConfiguration
	}

	var v mat.Dense
	svd.VTo(&v)
	normalized := Matrix{
		{v.At(0, 8), v.At(1, 8), v.At(2, 8)},
		{v.At(3, 8), v.At(4, 8), v.At(5, 8)},
		{v.At(6, 8), v.At(7, 8), v.At(8, 8)},
	}

	cond = normalized.Cond()
	if math.IsInf(cond, 0) || math.IsNaN(cond) {
		return Matrix{}, 0, false, ErrDegenerateConfiguration
	}

	// Denormalize: H = Tw^-1 * Hn * Ti.
	invWld, invErr := normWld.t.Inverse()
	if invErr != nil {
		return Matrix{}, 0, false, ErrDegenerateConfiguration
	}
	h = invWld.Mul(normalized).Mul(normImg.t)

	// Fix the projective scale. H[2][2]=1 is the usual convention; when
	// that entry is ~0 the world origin maps to infinity, so fall back to
	// unit Frobenius norm and let the caller dock confidence.
	frob := h.Frobenius()
	if frob < 1e-12 {
		return Matrix{}, 0, false, ErrDegenerateConfiguration
	}
	if math.Abs(h[2][2]) > 1e-8*frob {
		h = h.Scale(1 / h[2][2])
	} else {
		h = h.Scale(1 / frob)
		scaleFallback = true
	}

	return h, cond, scaleFallback, nil
}

func hasDuplicatePoints(pairs []planarPair) bool {
	const eps = 1e-9
	for i := 0; i < len(pairs); i++ {
		for j := i + 1; j < len(pairs); j++ {
			if math.Abs(pairs[i].ix-pairs[j].ix) < eps && math.Abs(pairs[i].iy-pairs[j].iy) < eps {
				return true
			}
			if math.Abs(pairs[i].wx-pairs[j].wx) < eps && math.Abs(pairs[i].wy-pairs[j].wy) < eps {
				return true
			}
		}
	}
	return false
}

// reprojectionError computes the mean Euclidean distance, in world meters,
// between each world point and its image point projected through h.
func reprojectionError(h Matrix, pairs []planarPair) float64 {
	if len(pairs) == 0 {
		return math.Inf(1)
	}
	var total float64
	for _, p := range pairs {
		u, v, ok := h.Apply(p.ix, p.iy)
		if !ok {
			return math.Inf(1)
		}
		du := u - p.wx
		dv := v - p.wy
		total += math.Sqrt(du*du + dv*dv)
	}
	return total / float64(len(pairs))
}

// pairError is the single-correspondence reprojection distance in meters.
func pairError(h Matrix, p planarPair) float64 {
	u, v, ok := h.Apply(p.ix, p.iy)
	if !ok {
		return math.Inf(1)
	}
	du := u - p.wx
	dv := v - p.wy
	return math.Sqrt(du*du + dv*dv)
}
