package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"court-motion/models"
	"court-motion/posedet"
	"court-motion/utils"
)

// Runs a directory of video stills through the external pose detector and
// writes the resulting landmark stream as frames JSON for replay_frames.
func main() {
	dir := flag.String("dir", "", "Directory of stills (jpg/jpeg/png), processed in name order")
	out := flag.String("out", "frames.json", "Output path for the frames JSON")
	fps := flag.Float64("fps", 30, "Frame rate the stills were extracted at")
	serviceURL := flag.String("url", utils.GetEnv("POSE_SERVICE_URL", ""), "Pose service base URL")
	flag.Parse()

	if *dir == "" {
		log.Fatal("usage: detect_frames -dir <stills dir> [-out frames.json] [-fps 30]")
	}
	if *fps <= 0 {
		log.Fatal("fps must be positive")
	}

	images, err := listImages(*dir)
	if err != nil {
		log.Fatalf("failed to list stills: %v", err)
	}
	if len(images) == 0 {
		log.Fatalf("no jpg/jpeg/png files in %s", *dir)
	}

	client := posedet.NewClient(*serviceURL)
	if err := client.HealthCheck(); err != nil {
		log.Fatalf("pose service check failed: %v", err)
	}

	payloads := make([]models.FramePayload, 0, len(images))
	failed := 0
	for i, path := range images {
		timestamp := float64(i) / *fps
		frame, err := client.DetectFile(path, timestamp)
		if err != nil {
			log.Printf("WARNING: %s: %v", filepath.Base(path), err)
			failed++
			continue
		}
		payloads = append(payloads, models.FramePayload{
			Landmarks: frame.Landmarks[:],
			Timestamp: timestamp,
		})
	}
	if len(payloads) == 0 {
		log.Fatal("detection failed on every still")
	}

	data, err := json.MarshalIndent(payloads, "", "  ")
	if err != nil {
		log.Fatalf("failed to marshal frames: %v", err)
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		log.Fatalf("failed to write %s: %v", *out, err)
	}

	fmt.Printf("Detected %d/%d frames (%d failed) at %.0f fps, wrote %s\n",
		len(payloads), len(images), failed, *fps, *out)
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			images = append(images, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(images)
	return images, nil
}
