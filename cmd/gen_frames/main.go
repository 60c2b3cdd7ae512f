package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"

	"court-motion/models"
	"court-motion/pose"
)

// Synthesize a landmark stream of a player moving across the frame, for
// feeding replay_frames or a locally running server without a real
// detector in the loop.
func main() {
	out := flag.String("out", "frames.json", "Output path for the frames JSON")
	count := flag.Int("frames", 300, "Number of frames to generate")
	fps := flag.Float64("fps", 30, "Frame rate of the simulated video")
	stride := flag.Float64("stride", 0.004, "Horizontal movement per frame in normalized units")
	jitter := flag.Float64("jitter", 0.002, "Per-landmark detector noise in normalized units")
	seed := flag.Int64("seed", 1, "RNG seed")
	flag.Parse()

	if *count <= 0 || *fps <= 0 {
		log.Fatal("frames and fps must be positive")
	}

	rng := rand.New(rand.NewSource(*seed))
	payloads := make([]models.FramePayload, *count)

	for i := 0; i < *count; i++ {
		t := float64(i) / *fps
		// Walk right, with a gentle sway so the velocity isn't constant.
		centerX := 0.2 + *stride*float64(i) + 0.01*math.Sin(t*2)
		centerY := 0.5 + 0.005*math.Sin(t*5)

		landmarks := make([]pose.Landmark, pose.LandmarkCount)
		for idx := range landmarks {
			ox, oy := bodyOffset(idx)
			landmarks[idx] = pose.Landmark{
				X:          centerX + ox + rng.NormFloat64()**jitter,
				Y:          centerY + oy + rng.NormFloat64()**jitter,
				Z:          rng.NormFloat64() * *jitter,
				Visibility: 0.85 + 0.15*rng.Float64(),
			}
		}
		payloads[i] = models.FramePayload{Landmarks: landmarks, Timestamp: t}
	}

	data, err := json.MarshalIndent(payloads, "", "  ")
	if err != nil {
		log.Fatalf("failed to marshal frames: %v", err)
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		log.Fatalf("failed to write %s: %v", *out, err)
	}

	fmt.Printf("Wrote %d frames (%.1fs at %.0f fps) to %s\n",
		*count, float64(*count)/(*fps), *fps, *out)
}

// bodyOffset places each landmark in a rough standing silhouette around
// the body center so the anthropometric weighting has real structure.
func bodyOffset(idx int) (x, y float64) {
	switch idx {
	case pose.Nose, pose.LeftEyeInner, pose.LeftEye, pose.LeftEyeOuter,
		pose.RightEyeInner, pose.RightEye, pose.RightEyeOuter,
		pose.MouthLeft, pose.MouthRight:
		return 0, -0.22
	case pose.LeftEar:
		return -0.02, -0.21
	case pose.RightEar:
		return 0.02, -0.21
	case pose.LeftShoulder:
		return -0.06, -0.15
	case pose.RightShoulder:
		return 0.06, -0.15
	case pose.LeftElbow:
		return -0.09, -0.05
	case pose.RightElbow:
		return 0.09, -0.05
	case pose.LeftWrist, pose.LeftPinky, pose.LeftIndex, pose.LeftThumb:
		return -0.10, 0.04
	case pose.RightWrist, pose.RightPinky, pose.RightIndex, pose.RightThumb:
		return 0.10, 0.04
	case pose.LeftHip:
		return -0.04, 0.02
	case pose.RightHip:
		return 0.04, 0.02
	case pose.LeftKnee:
		return -0.04, 0.12
	case pose.RightKnee:
		return 0.04, 0.12
	case pose.LeftAnkle, pose.LeftHeel:
		return -0.04, 0.22
	case pose.RightAnkle, pose.RightHeel:
		return 0.04, 0.22
	case pose.LeftFootIndex:
		return -0.02, 0.23
	case pose.RightFootIndex:
		return 0.02, 0.23
	default:
		return 0, 0
	}
}
