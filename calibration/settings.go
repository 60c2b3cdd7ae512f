package calibration

import (
	"errors"
	"fmt"

	"court-motion/court"
	"court-motion/homography"
)

// Player height bounds in centimeters accepted by the UI.
const (
	MinPlayerHeightCm = 140
	MaxPlayerHeightCm = 220

	// ReferenceHeightCm anchors the height scaling factor: a player of
	// this height gets a factor of exactly 1.
	ReferenceHeightCm = 170
)

var ErrInvalidPlayerHeight = errors.New("calibration: player height out of range")

// Settings is the user-facing calibration aggregate consumed by the speed
// pipeline. It is created at session start, mutated by calibrate/reset
// actions, and persisted by the host application.
type Settings struct {
	UseHeightCalibration bool               `json:"useHeightCalibration"`
	PlayerHeightCm       float64            `json:"playerHeight"`
	UseCourtCalibration  bool               `json:"useCourtCalibration"`
	CourtType            court.Type         `json:"courtType"`
	CourtDimensions      court.Dimensions   `json:"courtDimensions"`
	Homography           *homography.Result `json:"homography,omitempty"`
	IsCalibrated         bool               `json:"isCalibrated"`
	CalibrationAccuracy  float64            `json:"calibrationAccuracy"` // 0-100%
}

// DefaultSettings returns settings for a court type with calibration off.
func DefaultSettings(courtType court.Type) (Settings, error) {
	dims, err := court.DimensionsFor(courtType)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		PlayerHeightCm:  ReferenceHeightCm,
		CourtType:       courtType,
		CourtDimensions: dims,
	}, nil
}

// Validate checks user-settable fields.
func (s *Settings) Validate() error {
	if s.UseHeightCalibration &&
		(s.PlayerHeightCm < MinPlayerHeightCm || s.PlayerHeightCm > MaxPlayerHeightCm) {
		return fmt.Errorf("%w: %.0f cm (expected %d-%d)",
			ErrInvalidPlayerHeight, s.PlayerHeightCm, MinPlayerHeightCm, MaxPlayerHeightCm)
	}
	if _, err := court.DimensionsFor(s.CourtType); err != nil {
		return err
	}
	return nil
}

// ApplyResult installs a confirmed homography into the settings.
func (s *Settings) ApplyResult(result *homography.Result) {
	s.Homography = result
	s.IsCalibrated = result != nil
	if result != nil {
		s.CalibrationAccuracy = result.Confidence * 100
	} else {
		s.CalibrationAccuracy = 0
	}
}

// HeightScaling returns the anthropometric scale factor, 1 when height
// calibration is disabled.
func (s *Settings) HeightScaling() float64 {
	if !s.UseHeightCalibration || s.PlayerHeightCm <= 0 {
		return 1
	}
	return s.PlayerHeightCm / ReferenceHeightCm
}
