// Package homography estimates the 3x3 projective transform mapping video
// frame pixels onto the court ground plane.
//
// How it works:
//
// 1. Direct Linear Transform:
//   - Each image/world correspondence contributes two rows to a 2n x 9
//     homogeneous system.
//   - Both point sets are Hartley-normalized before the solve for
//     numerical conditioning.
//   - The system's null vector, found via SVD, reshapes into H (up to
//     scale, fixed at H[2][2]=1).
//
// 2. Robust estimation:
//   - With more than 4 correspondences the estimator runs RANSAC: minimal
//     4-point samples are fitted repeatedly, inliers counted against a
//     reprojection threshold in meters, and the winning consensus set is
//     refitted with the full DLT.
//
// 3. Quality metrics:
//   - ReprojectionError is the mean distance in meters between each world
//     point and its projected image point.
//   - Confidence combines inlier ratio, reprojection error and the
//     condition number of the normalized solution, so near-collinear
//     click configurations score low even when the nominal error is small.
package homography

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"court-motion/geom"
)

var (
	ErrInsufficientPoints      = errors.New("homography: need at least 4 point correspondences")
	ErrDegenerateConfiguration = errors.New("homography: degenerate point configuration (collinear or duplicate points)")
)

const (
	minimalSampleSize = 4

	defaultInlierThreshold = 0.10 // meters of reprojection error
	defaultMaxIterations   = 300
	defaultEarlyExitRatio  = 0.95

	// Condition numbers of the normalized solution below condGood don't
	// affect confidence; above condBad (on a log10 scale) it reaches zero.
	condGoodLog10 = 2.0
	condBadLog10  = 8.0
)

// Correspondence pairs a clicked image point with a known world reference
// point. World points must be tagged geom.SpaceWorld; only the court-plane
// components (x, z) participate in the fit.
type Correspondence struct {
	Image geom.Point2D `json:"image"`
	World geom.Point3D `json:"world"`
}

// Result is an immutable homography estimate. A new calibration attempt
// produces a fresh Result; nothing mutates an existing one.
type Result struct {
	Matrix            Matrix  `json:"matrix"`
	Inverse           Matrix  `json:"inverseMatrix"`
	ReprojectionError float64 `json:"reprojectionError"` // meters
	Confidence        float64 `json:"confidence"`        // [0, 1]
	InlierIndices     []int   `json:"inlierIndices"`
	InlierRatio       float64 `json:"inlierRatio"`
	ConditionNumber   float64 `json:"conditionNumber"`
}

// Estimator fits homographies from point correspondences. The zero value
// is not ready to use; construct with NewEstimator. An Estimator is not
// safe for concurrent use: RANSAC sampling draws from a single RNG, so
// callers sharing one must serialize Estimate.
type Estimator struct {
	// InlierThreshold is the maximum reprojection error in meters for a
	// correspondence to count as a RANSAC inlier.
	InlierThreshold float64
	// MaxIterations bounds the RANSAC trial count so a fit always
	// returns promptly even on hopeless input.
	MaxIterations int
	// EarlyExitRatio stops sampling once a candidate explains this
	// fraction of the correspondences.
	EarlyExitRatio float64

	rng *rand.Rand
}

// NewEstimator returns an estimator with production defaults.
func NewEstimator() *Estimator {
	return NewEstimatorWithSeed(time.Now().UnixNano())
}

// NewEstimatorWithSeed returns an estimator with a deterministic RANSAC
// sampling sequence, for reproducible fits and tests.
func NewEstimatorWithSeed(seed int64) *Estimator {
	return &Estimator{
		InlierThreshold: defaultInlierThreshold,
		MaxIterations:   defaultMaxIterations,
		EarlyExitRatio:  defaultEarlyExitRatio,
		rng:             rand.New(rand.NewSource(seed)),
	}
}

// Estimate computes the image-to-world homography for the given
// correspondences. Exactly 4 points are fitted directly; more than 4 go
// through RANSAC so a misclicked reference point cannot poison the fit.
func (e *Estimator) Estimate(pairs []Correspondence) (*Result, error) {
	if len(pairs) < minimalSampleSize {
		return nil, ErrInsufficientPoints
	}

	planar := toPlanarPairs(pairs)

	if len(planar) == minimalSampleSize {
		inliers := []int{0, 1, 2, 3}
		return e.fitAndScore(planar, planar, inliers)
	}
	return e.ransac(planar)
}

// fitAndScore runs the DLT on fitPairs and evaluates quality metrics
// against them, reporting the provided inlier set relative to allPairs.
func (e *Estimator) fitAndScore(fitPairs, allPairs []planarPair, inliers []int) (*Result, error) {
	h, cond, scaleFallback, err := solveDLT(fitPairs)
	if err != nil {
		return nil, err
	}

	inv, err := h.Inverse()
	if err != nil {
		return nil, ErrDegenerateConfiguration
	}

	reprojErr := reprojectionError(h, fitPairs)
	if math.IsInf(reprojErr, 0) {
		return nil, ErrDegenerateConfiguration
	}

	inlierRatio := float64(len(inliers)) / float64(len(allPairs))
	confidence := scoreConfidence(inlierRatio, reprojErr, cond)
	if scaleFallback {
		confidence *= 0.5
	}

	return &Result{
		Matrix:            h,
		Inverse:           inv,
		ReprojectionError: reprojErr,
		Confidence:        confidence,
		InlierIndices:     inliers,
		InlierRatio:       inlierRatio,
		ConditionNumber:   cond,
	}, nil
}

func (e *Estimator) ransac(pairs []planarPair) (*Result, error) {
	n := len(pairs)
	bestInliers := []int(nil)

	for iter := 0; iter < e.MaxIterations; iter++ {
		sample := e.sampleIndices(n)
		candidate := make([]planarPair, minimalSampleSize)
		for i, idx := range sample {
			candidate[i] = pairs[idx]
		}

		h, _, _, err := solveDLT(candidate)
		if err != nil {
			continue // degenerate minimal sample, draw again
		}

		inliers := make([]int, 0, n)
		for i, p := range pairs {
			if pairError(h, p) <= e.InlierThreshold {
				inliers = append(inliers, i)
			}
		}

		if len(inliers) > len(bestInliers) {
			bestInliers = inliers
			if float64(len(inliers))/float64(n) >= e.EarlyExitRatio {
				break
			}
		}
	}

	if len(bestInliers) < minimalSampleSize {
		return nil, ErrDegenerateConfiguration
	}

	// Refit on the full consensus set for the final estimate.
	inlierPairs := make([]planarPair, len(bestInliers))
	for i, idx := range bestInliers {
		inlierPairs[i] = pairs[idx]
	}
	return e.fitAndScore(inlierPairs, pairs, bestInliers)
}

// sampleIndices draws 4 distinct indices from [0, n).
func (e *Estimator) sampleIndices(n int) []int {
	sample := make([]int, 0, minimalSampleSize)
	for len(sample) < minimalSampleSize {
		idx := e.rng.Intn(n)
		duplicate := false
		for _, s := range sample {
			if s == idx {
				duplicate = true
				break
			}
		}
		if !duplicate {
			sample = append(sample, idx)
		}
	}
	return sample
}

// scoreConfidence folds the three quality signals into [0, 1]. The error
// term halves confidence at one inlier-threshold of mean error; the
// conditioning term decays on a log10 scale between condGood and condBad.
func scoreConfidence(inlierRatio, reprojErr, cond float64) float64 {
	errScore := 1.0 / (1.0 + reprojErr/defaultInlierThreshold)

	condScore := 1.0
	if cond > 0 {
		lc := math.Log10(cond)
		switch {
		case lc <= condGoodLog10:
			condScore = 1.0
		case lc >= condBadLog10:
			condScore = 0.0
		default:
			condScore = 1.0 - (lc-condGoodLog10)/(condBadLog10-condGoodLog10)
		}
	}

	confidence := inlierRatio * errScore * condScore
	return math.Max(0, math.Min(1, confidence))
}

// MetersPerPixel estimates the local ground-plane scale of the homography
// at an image point by finite differences. Useful for converting
// pixel-space displacements into meters.
func (r *Result) MetersPerPixel(at geom.Point2D) float64 {
	const delta = 1.0 // 1 px probe

	p0, ok0 := projectToPlane(r.Matrix, at)
	px, okx := projectToPlane(r.Matrix, geom.Point2D{X: at.X + delta, Y: at.Y, Space: at.Space})
	py, oky := projectToPlane(r.Matrix, geom.Point2D{X: at.X, Y: at.Y + delta, Space: at.Space})
	if !ok0 || !okx || !oky {
		return 0
	}

	dx := px.Sub(p0)
	dy := py.Sub(p0)
	// Area scale of the local Jacobian; square root gives linear scale.
	area := math.Abs(dx.X*dy.Z - dx.Z*dy.X)
	return math.Sqrt(area)
}

// ProjectToWorld maps an image point onto the court plane in meters.
func (r *Result) ProjectToWorld(p geom.Point2D) (geom.Point3D, error) {
	out, ok := projectToPlane(r.Matrix, p)
	if !ok {
		return geom.Point3D{}, ErrDegenerateConfiguration
	}
	return out, nil
}

// ProjectToImage maps a court-plane point back into image pixels.
func (r *Result) ProjectToImage(p geom.Point3D) (geom.Point2D, error) {
	u, v, ok := r.Inverse.Apply(p.X, p.Z)
	if !ok {
		return geom.Point2D{}, ErrDegenerateConfiguration
	}
	return geom.Point2D{X: u, Y: v, Space: geom.SpacePixel}, nil
}
