package court

import (
	"errors"
	"fmt"
)

// ErrUnknownMode is returned when a mode id is not defined.
var ErrUnknownMode = errors.New("unknown calibration mode")

// Mode describes which reference points a calibration flow collects.
// Required points are suggested first and in order; optional points can
// tighten the fit once the requirements are met. MinPoints is never
// below 4, the minimum for a well-posed homography.
type Mode struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	RequiredPoints []string `json:"requiredPoints"`
	OptionalPoints []string `json:"optionalPoints"`
	MinPoints      int      `json:"minPoints"`
}

// modes are ordered the way the UI presents them.
var modes = []Mode{
	{
		ID:             "full-court",
		Name:           "Full court",
		RequiredPoints: []string{"corner-bl", "corner-br", "corner-tr", "corner-tl"},
		OptionalPoints: []string{"net-left", "net-center", "net-right"},
		MinPoints:      4,
	},
	{
		ID:             "half-court",
		Name:           "Half court (near side)",
		RequiredPoints: []string{"corner-bl", "corner-br", "net-right", "net-left"},
		OptionalPoints: []string{"service-near-left", "service-near-right", "net-center"},
		MinPoints:      4,
	},
	{
		ID:             "service-line",
		Name:           "Service lines",
		RequiredPoints: []string{"service-near-left", "service-near-right", "service-far-right", "service-far-left"},
		OptionalPoints: []string{"net-left", "net-center", "net-right"},
		MinPoints:      4,
	},
	{
		ID:   "reference-lines",
		Name: "Free reference lines",
		OptionalPoints: []string{
			"corner-bl", "corner-br", "corner-tr", "corner-tl",
			"net-left", "net-center", "net-right",
			"service-near-left", "service-near-right",
			"service-far-left", "service-far-right",
		},
		MinPoints: 4,
	},
}

// Modes returns all calibration mode descriptors.
func Modes() []Mode {
	out := make([]Mode, len(modes))
	copy(out, modes)
	return out
}

// ModeByID looks up a mode descriptor.
func ModeByID(id string) (Mode, error) {
	for _, m := range modes {
		if m.ID == id {
			return m, nil
		}
	}
	return Mode{}, fmt.Errorf("%w: %q", ErrUnknownMode, id)
}
