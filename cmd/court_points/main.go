package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"court-motion/court"
)

func main() {
	courtFlag := flag.String("court", string(court.Badminton), "Court type (badminton or tennis)")
	asJSON := flag.Bool("json", false, "Emit machine-readable JSON instead of a table")
	flag.Parse()

	courtType := court.Type(*courtFlag)
	dims, err := court.DimensionsFor(courtType)
	if err != nil {
		log.Fatalf("unknown court type %q: %v", *courtFlag, err)
	}
	ids, err := court.PointIDs(courtType)
	if err != nil {
		log.Fatalf("failed to list reference points: %v", err)
	}

	if *asJSON {
		points := make(map[string][3]float64, len(ids))
		for _, id := range ids {
			p, err := court.ReferencePoint(courtType, id)
			if err != nil {
				log.Fatalf("failed to resolve %q: %v", id, err)
			}
			points[id] = [3]float64{p.X, p.Y, p.Z}
		}
		out := map[string]interface{}{
			"courtType":  courtType,
			"dimensions": dims,
			"points":     points,
			"modes":      court.Modes(),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Fatalf("failed to encode output: %v", err)
		}
		return
	}

	fmt.Printf("=== %s court (%.2fm x %.2fm, singles %.2fm) ===\n\n",
		courtType, dims.Length, dims.Width, dims.SinglesWidth)

	fmt.Println("Reference points (x across width, z along length, meters):")
	for _, id := range ids {
		p, err := court.ReferencePoint(courtType, id)
		if err != nil {
			log.Fatalf("failed to resolve %q: %v", id, err)
		}
		fmt.Printf("  %-20s (%7.3f, %7.3f)\n", id, p.X, p.Z)
	}

	fmt.Println("\nCalibration modes:")
	for _, mode := range court.Modes() {
		fmt.Printf("  %-16s min %d points, required: %v\n", mode.ID, mode.MinPoints, mode.RequiredPoints)
		if len(mode.OptionalPoints) > 0 {
			fmt.Printf("  %-16s optional: %v\n", "", mode.OptionalPoints)
		}
	}
}
