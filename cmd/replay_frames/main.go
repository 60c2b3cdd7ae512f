package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"court-motion/court"
	"court-motion/models"
	"court-motion/pose"
	"court-motion/speed"
	"court-motion/store"
)

// Replay a recorded landmark stream through the speed pipeline and print
// the resulting metrics, using the same persisted settings the server
// would load.
func main() {
	framesPath := flag.String("frames", "", "JSON file with an array of landmark frames")
	courtFlag := flag.String("court", string(court.Badminton), "Court type when no settings file exists")
	height := flag.Float64("height", 0, "Player height in cm (overrides persisted settings, 0 = keep)")
	verbose := flag.Bool("v", false, "Print every frame instead of a summary")
	flag.Parse()

	if *framesPath == "" {
		log.Fatal("Usage: replay_frames -frames <frames.json> [-height 185] [-v]")
	}

	data, err := os.ReadFile(*framesPath)
	if err != nil {
		log.Fatalf("failed to read frames file: %v", err)
	}
	var payloads []models.FramePayload
	if err := json.Unmarshal(data, &payloads); err != nil {
		log.Fatalf("failed to parse frames file: %v", err)
	}
	if len(payloads) == 0 {
		log.Fatal("frames file contains no frames")
	}

	settings, err := store.LoadSettings(court.Type(*courtFlag))
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}
	if *height > 0 {
		settings.UseHeightCalibration = true
		settings.PlayerHeightCm = *height
		if err := settings.Validate(); err != nil {
			log.Fatalf("invalid height override: %v", err)
		}
	}

	est := speed.NewEstimator(speed.DefaultConfig())
	est.SetSettings(settings)

	var (
		valid, skipped, clamped int
		sumSpeed, maxSpeed      float64
	)
	for i, payload := range payloads {
		if len(payload.Landmarks) != pose.LandmarkCount {
			log.Fatalf("frame %d has %d landmarks, want %d", i, len(payload.Landmarks), pose.LandmarkCount)
		}
		frame := pose.FromSlice(payload.Landmarks, payload.Timestamp)

		metrics, err := est.Process(frame)
		if err != nil {
			skipped++
			if *verbose {
				fmt.Printf("t=%8.3f  skipped: %v\n", payload.Timestamp, err)
			}
			continue
		}
		if !metrics.IsValid {
			skipped++
			if *verbose {
				fmt.Printf("t=%8.3f  no metrics (insufficient visibility or history)\n", payload.Timestamp)
			}
			continue
		}

		valid++
		sumSpeed += metrics.Speed
		if metrics.Speed > maxSpeed {
			maxSpeed = metrics.Speed
		}
		if metrics.Clamped {
			clamped++
		}
		if *verbose {
			flag := " "
			if metrics.Clamped {
				flag = "!"
			}
			fmt.Printf("t=%8.3f  speed=%6.2f m/s  horizontal=%6.2f m/s %s\n",
				payload.Timestamp, metrics.Speed, metrics.GeneralMovingSpeed, flag)
		}
	}

	fmt.Printf("\n=== Replay of %s ===\n", *framesPath)
	fmt.Printf("Frames:        %d (%d with metrics, %d skipped)\n", len(payloads), valid, skipped)
	fmt.Printf("Scaling:       %.4f (height %s, court %s)\n", est.ScalingFactor(),
		onOff(settings.UseHeightCalibration), onOff(settings.IsCalibrated))
	if valid > 0 {
		fmt.Printf("Average speed: %.2f m/s\n", sumSpeed/float64(valid))
		fmt.Printf("Peak speed:    %.2f m/s\n", maxSpeed)
		fmt.Printf("Clamped:       %d frames\n", clamped)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
