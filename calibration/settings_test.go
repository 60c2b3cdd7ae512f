package calibration

import (
	"errors"
	"math"
	"testing"

	"court-motion/court"
	"court-motion/homography"
)

func TestSettingsValidateHeightBounds(t *testing.T) {
	t.Parallel()

	s, err := DefaultSettings(court.Badminton)
	if err != nil {
		t.Fatalf("DefaultSettings returned error: %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}

	s.UseHeightCalibration = true
	for _, h := range []float64{139, 221, 0, -180} {
		s.PlayerHeightCm = h
		if err := s.Validate(); !errors.Is(err, ErrInvalidPlayerHeight) {
			t.Fatalf("Validate with height %.0f: got %v, want ErrInvalidPlayerHeight", h, err)
		}
	}
	for _, h := range []float64{140, 170, 220} {
		s.PlayerHeightCm = h
		if err := s.Validate(); err != nil {
			t.Fatalf("Validate with height %.0f: %v", h, err)
		}
	}

	s.CourtType = court.Type("squash")
	s.PlayerHeightCm = 170
	if err := s.Validate(); !errors.Is(err, court.ErrUnknownCourtType) {
		t.Fatalf("Validate with unknown court: got %v, want ErrUnknownCourtType", err)
	}
}

func TestHeightScaling(t *testing.T) {
	t.Parallel()

	s, err := DefaultSettings(court.Badminton)
	if err != nil {
		t.Fatalf("DefaultSettings returned error: %v", err)
	}

	if got := s.HeightScaling(); got != 1 {
		t.Fatalf("HeightScaling with calibration off = %g, want 1", got)
	}

	s.UseHeightCalibration = true
	s.PlayerHeightCm = 187
	if got := s.HeightScaling(); math.Abs(got-1.1) > 1e-12 {
		t.Fatalf("HeightScaling(187cm) = %g, want 1.1", got)
	}
	s.PlayerHeightCm = ReferenceHeightCm
	if got := s.HeightScaling(); got != 1 {
		t.Fatalf("HeightScaling(reference) = %g, want 1", got)
	}
}

func TestApplyResultTogglesCalibration(t *testing.T) {
	t.Parallel()

	s, err := DefaultSettings(court.Tennis)
	if err != nil {
		t.Fatalf("DefaultSettings returned error: %v", err)
	}

	s.ApplyResult(&homography.Result{Matrix: homography.Identity(), Confidence: 0.87})
	if !s.IsCalibrated {
		t.Fatal("ApplyResult(result) left IsCalibrated false")
	}
	if math.Abs(s.CalibrationAccuracy-87) > 1e-12 {
		t.Fatalf("CalibrationAccuracy = %.2f, want 87", s.CalibrationAccuracy)
	}

	s.ApplyResult(nil)
	if s.IsCalibrated || s.CalibrationAccuracy != 0 {
		t.Fatalf("ApplyResult(nil) left IsCalibrated=%v accuracy=%.2f", s.IsCalibrated, s.CalibrationAccuracy)
	}
}
