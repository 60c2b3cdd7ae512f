package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"

	"court-motion/court"
	"court-motion/geom"
	"court-motion/homography"
)

// Sweep noise and outlier levels over a synthetic camera view of a court
// and print how the estimator's quality metrics respond. Useful for
// picking thresholds and sanity-checking a RANSAC change.
func main() {
	courtFlag := flag.String("court", string(court.Badminton), "Court type (badminton or tennis)")
	seed := flag.Int64("seed", 42, "RNG seed for reproducible sweeps")
	trials := flag.Int("trials", 20, "Trials per noise level")
	flag.Parse()

	courtType := court.Type(*courtFlag)
	ids, err := court.PointIDs(courtType)
	if err != nil {
		log.Fatalf("unknown court type %q: %v", *courtFlag, err)
	}

	// A plausible broadcast-camera projection of the court plane.
	camera := homography.Matrix{
		{60, 8, 640},
		{2, -44, 520},
		{0.002, 0.01, 1},
	}

	var clean []homography.Correspondence
	for _, id := range ids {
		world, err := court.ReferencePoint(courtType, id)
		if err != nil {
			log.Fatalf("failed to resolve %q: %v", id, err)
		}
		u, v, ok := camera.Apply(world.X, world.Z)
		if !ok {
			log.Fatalf("camera maps %q to infinity", id)
		}
		clean = append(clean, homography.Correspondence{
			Image: geom.Point2D{X: u, Y: v, Space: geom.SpacePixel},
			World: world,
		})
	}

	rng := rand.New(rand.NewSource(*seed))

	fmt.Printf("=== Synthetic estimation sweep: %s, %d points, %d trials/level ===\n\n",
		courtType, len(clean), *trials)
	fmt.Printf("%-12s %-10s %12s %12s %12s\n", "noise(px)", "outliers", "reproj(m)", "confidence", "inlier%")

	for _, noise := range []float64{0, 1, 2, 5, 10} {
		for _, outliers := range []int{0, 1, 2} {
			var sumErr, sumConf, sumInlier float64
			failures := 0

			for trial := 0; trial < *trials; trial++ {
				pairs := perturb(clean, noise, outliers, rng)
				est := homography.NewEstimatorWithSeed(*seed + int64(trial))
				res, err := est.Estimate(pairs)
				if err != nil {
					failures++
					continue
				}
				sumErr += res.ReprojectionError
				sumConf += res.Confidence
				sumInlier += res.InlierRatio
			}

			ok := float64(*trials - failures)
			if ok == 0 {
				fmt.Printf("%-12.1f %-10d %12s %12s %12s (all trials failed)\n",
					noise, outliers, "-", "-", "-")
				continue
			}
			fmt.Printf("%-12.1f %-10d %12.4f %12.3f %11.1f%%\n",
				noise, outliers, sumErr/ok, sumConf/ok, 100*sumInlier/ok)
		}
	}
}

// perturb adds Gaussian pixel noise to every click and replaces the first
// few correspondences with gross misclicks.
func perturb(clean []homography.Correspondence, noise float64, outliers int, rng *rand.Rand) []homography.Correspondence {
	pairs := make([]homography.Correspondence, len(clean))
	copy(pairs, clean)
	for i := range pairs {
		pairs[i].Image.X += rng.NormFloat64() * noise
		pairs[i].Image.Y += rng.NormFloat64() * noise
	}
	for i := 0; i < outliers && i < len(pairs); i++ {
		pairs[i].Image.X += 80 + rng.Float64()*120
		pairs[i].Image.Y -= 60 + rng.Float64()*100
	}
	return pairs
}
