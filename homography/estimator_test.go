package homography

import (
	"errors"
	"math"
	"testing"

	"court-motion/geom"
)

// badmintonLayout is a spread of world reference points on a badminton
// court plane (x across the width, z along the length, meters).
var badmintonLayout = [][2]float64{
	{-3.05, -6.7}, // corner-bl
	{3.05, -6.7},  // corner-br
	{3.05, 6.7},   // corner-tr
	{-3.05, 6.7},  // corner-tl
	{-3.05, 0},    // net-left
	{3.05, 0},     // net-right
	{-3.05, -1.98},
	{3.05, 1.98},
}

// camera is a synthetic world-to-pixel projection used as ground truth.
// Chosen so the projective weight stays positive over the whole court.
var camera = Matrix{
	{60, 8, 640},
	{2, -44, 520},
	{0.002, 0.01, 1},
}

func TestEstimateExactCornersRoundTrips(t *testing.T) {
	t.Parallel()

	pairs := projectLayout(t, camera, badmintonLayout[:4])

	est := NewEstimatorWithSeed(1)
	res, err := est.Estimate(pairs)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}

	if res.ReprojectionError > 1e-6 {
		t.Fatalf("exact fit reprojection error = %g m, want ~0", res.ReprojectionError)
	}
	if res.Confidence <= 0.95 {
		t.Fatalf("exact fit confidence = %.4f, want > 0.95", res.Confidence)
	}
	if res.InlierRatio != 1 {
		t.Fatalf("exact fit inlier ratio = %.3f, want 1", res.InlierRatio)
	}

	for _, p := range pairs {
		world, err := res.ProjectToWorld(p.Image)
		if err != nil {
			t.Fatalf("ProjectToWorld(%v): %v", p.Image, err)
		}
		if math.Abs(world.X-p.World.X) > 1e-6 || math.Abs(world.Z-p.World.Z) > 1e-6 {
			t.Fatalf("ProjectToWorld(%v) = (%.6f, %.6f), want (%.2f, %.2f)",
				p.Image, world.X, world.Z, p.World.X, p.World.Z)
		}

		img, err := res.ProjectToImage(p.World)
		if err != nil {
			t.Fatalf("ProjectToImage(%v): %v", p.World, err)
		}
		if geom.Dist2D(img, p.Image) > 1e-4 {
			t.Fatalf("ProjectToImage(%v) = (%.4f, %.4f), want (%.4f, %.4f)",
				p.World, img.X, img.Y, p.Image.X, p.Image.Y)
		}
	}
}

func TestEstimateRejectsInsufficientPoints(t *testing.T) {
	t.Parallel()

	pairs := projectLayout(t, camera, badmintonLayout[:3])
	_, err := NewEstimatorWithSeed(1).Estimate(pairs)
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("Estimate with 3 points: got %v, want ErrInsufficientPoints", err)
	}
}

func TestEstimateRejectsCollinearPoints(t *testing.T) {
	t.Parallel()

	line := [][2]float64{{-3, 0}, {-1, 0}, {1, 0}, {3, 0}}
	pairs := projectLayout(t, camera, line)

	_, err := NewEstimatorWithSeed(1).Estimate(pairs)
	if !errors.Is(err, ErrDegenerateConfiguration) {
		t.Fatalf("Estimate with collinear points: got %v, want ErrDegenerateConfiguration", err)
	}
}

func TestEstimateRejectsDuplicatePoints(t *testing.T) {
	t.Parallel()

	dup := [][2]float64{{-3.05, -6.7}, {3.05, -6.7}, {3.05, 6.7}, {3.05, 6.7}}
	pairs := projectLayout(t, camera, dup)

	_, err := NewEstimatorWithSeed(1).Estimate(pairs)
	if !errors.Is(err, ErrDegenerateConfiguration) {
		t.Fatalf("Estimate with duplicate points: got %v, want ErrDegenerateConfiguration", err)
	}
}

func TestRansacExcludesMisclick(t *testing.T) {
	t.Parallel()

	pairs := projectLayout(t, camera, badmintonLayout)
	const bad = 5
	pairs[bad].Image.X += 60 // ~1 m of world error at this scale
	pairs[bad].Image.Y -= 40

	res, err := NewEstimatorWithSeed(7).Estimate(pairs)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}

	if len(res.InlierIndices) != len(pairs)-1 {
		t.Fatalf("inlier count = %d, want %d", len(res.InlierIndices), len(pairs)-1)
	}
	for _, idx := range res.InlierIndices {
		if idx == bad {
			t.Fatalf("misclicked correspondence %d counted as inlier", bad)
		}
	}
	if res.ReprojectionError > 0.01 {
		t.Fatalf("consensus reprojection error = %g m, want < 0.01", res.ReprojectionError)
	}
}

func TestNoiseLowersConfidence(t *testing.T) {
	t.Parallel()

	clean := projectLayout(t, camera, badmintonLayout)
	cleanRes, err := NewEstimatorWithSeed(3).Estimate(clean)
	if err != nil {
		t.Fatalf("clean Estimate returned error: %v", err)
	}

	noisy := projectLayout(t, camera, badmintonLayout)
	offsets := []float64{2.1, -1.7, 1.3, -2.4, 1.9, -1.1, 2.6, -1.5}
	for i := range noisy {
		noisy[i].Image.X += offsets[i]
		noisy[i].Image.Y += offsets[(i+3)%len(offsets)]
	}
	noisyRes, err := NewEstimatorWithSeed(3).Estimate(noisy)
	if err != nil {
		t.Fatalf("noisy Estimate returned error: %v", err)
	}

	if noisyRes.ReprojectionError <= cleanRes.ReprojectionError {
		t.Fatalf("noisy reprojection error %g not above clean %g",
			noisyRes.ReprojectionError, cleanRes.ReprojectionError)
	}
	if noisyRes.Confidence >= cleanRes.Confidence {
		t.Fatalf("noisy confidence %.4f not below clean %.4f",
			noisyRes.Confidence, cleanRes.Confidence)
	}
}

func TestMetersPerPixelOnUniformScale(t *testing.T) {
	t.Parallel()

	// Pure scale-and-shift projection: 50 px per meter everywhere.
	scaleCam := Matrix{
		{50, 0, 640},
		{0, 50, 360},
		{0, 0, 1},
	}
	pairs := projectLayout(t, scaleCam, badmintonLayout[:4])

	res, err := NewEstimatorWithSeed(1).Estimate(pairs)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}

	mpp := res.MetersPerPixel(geom.Point2D{X: 640, Y: 360, Space: geom.SpacePixel})
	if math.Abs(mpp-0.02) > 1e-6 {
		t.Fatalf("MetersPerPixel = %g, want 0.02", mpp)
	}
}

// projectLayout builds correspondences by pushing world-plane points
// through a known world-to-pixel projection.
func projectLayout(t *testing.T, worldToPixel Matrix, layout [][2]float64) []Correspondence {
	t.Helper()
	pairs := make([]Correspondence, len(layout))
	for i, wp := range layout {
		u, v, ok := worldToPixel.Apply(wp[0], wp[1])
		if !ok {
			t.Fatalf("synthetic camera maps world point %v to infinity", wp)
		}
		pairs[i] = Correspondence{
			Image: geom.Point2D{X: u, Y: v, Space: geom.SpacePixel},
			World: geom.Point3D{X: wp[0], Z: wp[1], Space: geom.SpaceWorld},
		}
	}
	return pairs
}
