package speed

import (
	"errors"
	"math"
	"testing"

	"court-motion/calibration"
	"court-motion/court"
	"court-motion/pose"
)

func TestFirstFrameProducesNoMetrics(t *testing.T) {
	t.Parallel()

	est := NewEstimator(DefaultConfig())
	m, err := est.Process(uniformFrame(0.5, 0.5, 1.0, 0.0))
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if m.IsValid {
		t.Fatal("first frame reported valid metrics with no history")
	}
	if m.Speed != 0 || m.Velocity.Norm() != 0 {
		t.Fatalf("invalid frame carried non-zero outputs: speed=%g", m.Speed)
	}
}

func TestStationarySubjectHasZeroSpeed(t *testing.T) {
	t.Parallel()

	est := NewEstimator(DefaultConfig())
	var last Metrics
	for i := 0; i < 5; i++ {
		m, err := est.Process(uniformFrame(0.5, 0.5, 1.0, float64(i)*0.1))
		if err != nil {
			t.Fatalf("Process frame %d returned error: %v", i, err)
		}
		last = m
	}

	if !last.IsValid {
		t.Fatal("stationary frame with history reported invalid")
	}
	if last.Speed > 1e-12 {
		t.Fatalf("stationary speed = %g, want 0", last.Speed)
	}
	if last.GeneralMovingSpeed > 1e-12 {
		t.Fatalf("stationary general moving speed = %g, want 0", last.GeneralMovingSpeed)
	}
}

func TestConstantVelocityIsRecovered(t *testing.T) {
	t.Parallel()

	est := NewEstimator(DefaultConfig())

	// 0.1 units of x per 0.1 s: every raw sample is exactly 1.0, so the
	// smoothed mean is too.
	var last Metrics
	for i := 0; i < 8; i++ {
		frame := uniformFrame(0.1*float64(i), 0.5, 1.0, 0.1*float64(i))
		m, err := est.Process(frame)
		if err != nil {
			t.Fatalf("Process frame %d returned error: %v", i, err)
		}
		last = m
	}

	if !last.IsValid {
		t.Fatal("moving frame with history reported invalid")
	}
	if math.Abs(last.Speed-1.0) > 1e-9 {
		t.Fatalf("constant-velocity speed = %g, want 1.0", last.Speed)
	}
	if math.Abs(last.Velocity.X-1.0) > 1e-9 || math.Abs(last.Velocity.Y) > 1e-9 {
		t.Fatalf("velocity = %+v, want (1, 0, 0)", last.Velocity)
	}
	if math.Abs(last.GeneralMovingSpeed-1.0) > 1e-9 {
		t.Fatalf("general moving speed = %g, want 1.0", last.GeneralMovingSpeed)
	}
}

func TestLowVisibilityFrameRejected(t *testing.T) {
	t.Parallel()

	est := NewEstimator(DefaultConfig())
	if _, err := est.Process(uniformFrame(0.5, 0.5, 1.0, 0.0)); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	m, err := est.Process(uniformFrame(0.5, 0.5, 0.2, 0.1))
	if err != nil {
		t.Fatalf("low-visibility Process returned error: %v", err)
	}
	if m.IsValid {
		t.Fatal("frame below the visibility floor reported valid metrics")
	}

	// The rejected frame must not have advanced the history clock.
	m, err = est.Process(uniformFrame(0.5, 0.5, 1.0, 0.2))
	if err != nil {
		t.Fatalf("Process after rejected frame returned error: %v", err)
	}
	if !m.IsValid {
		t.Fatal("valid frame after a rejected one reported invalid")
	}
	if m.Speed > 1e-12 {
		t.Fatalf("speed across a rejected frame = %g, want 0", m.Speed)
	}
}

func TestStaleFrameReturnsError(t *testing.T) {
	t.Parallel()

	est := NewEstimator(DefaultConfig())
	if _, err := est.Process(uniformFrame(0.5, 0.5, 1.0, 1.0)); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	m, err := est.Process(uniformFrame(0.6, 0.5, 1.0, 1.0))
	if !errors.Is(err, ErrStaleFrame) {
		t.Fatalf("repeated timestamp: got %v, want ErrStaleFrame", err)
	}
	if m.IsValid {
		t.Fatal("stale frame reported valid metrics")
	}

	// Rolling state untouched: the next advancing frame differences
	// against the original t=1.0 sample.
	m, err = est.Process(uniformFrame(0.5, 0.5, 1.0, 1.5))
	if err != nil {
		t.Fatalf("Process after stale frame returned error: %v", err)
	}
	if !m.IsValid || m.Speed > 1e-12 {
		t.Fatalf("metrics after stale frame: valid=%v speed=%g, want valid with 0 speed", m.IsValid, m.Speed)
	}
}

func TestSpeedClampedAtCeiling(t *testing.T) {
	t.Parallel()

	est := NewEstimator(DefaultConfig())
	if _, err := est.Process(uniformFrame(0.0, 0.5, 1.0, 0.0)); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	// 100 units in 0.1 s is a detector glitch, far beyond the ceiling.
	m, err := est.Process(uniformFrame(100.0, 0.5, 1.0, 0.1))
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if !m.IsValid {
		t.Fatal("clamped frame reported invalid")
	}
	if !m.Clamped {
		t.Fatal("glitch frame not flagged as clamped")
	}
	if math.Abs(m.Speed-DefaultConfig().MaxSpeed) > 1e-9 {
		t.Fatalf("clamped speed = %g, want %g", m.Speed, DefaultConfig().MaxSpeed)
	}
	if norm := m.Velocity.Norm(); math.Abs(norm-DefaultConfig().MaxSpeed) > 1e-9 {
		t.Fatalf("clamped velocity norm = %g, want %g", norm, DefaultConfig().MaxSpeed)
	}
}

func TestPerLandmarkSpeeds(t *testing.T) {
	t.Parallel()

	est := NewEstimator(DefaultConfig())
	if _, err := est.Process(uniformFrame(0.0, 0.5, 1.0, 0.0)); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	m, err := est.Process(uniformFrame(0.2, 0.5, 1.0, 0.1))
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if len(m.PerLandmarkSpeed) != pose.LandmarkCount {
		t.Fatalf("per-landmark speeds for %d landmarks, want %d", len(m.PerLandmarkSpeed), pose.LandmarkCount)
	}
	got, ok := m.PerLandmarkSpeed["nose"]
	if !ok {
		t.Fatal("per-landmark speeds missing entry for nose")
	}
	if math.Abs(got-2.0) > 1e-9 {
		t.Fatalf("nose speed = %g, want 2.0", got)
	}
}

func TestSettingsScaleVelocity(t *testing.T) {
	t.Parallel()

	settings, err := calibration.DefaultSettings(court.Badminton)
	if err != nil {
		t.Fatalf("DefaultSettings returned error: %v", err)
	}
	settings.UseHeightCalibration = true
	settings.PlayerHeightCm = 187 // scaling factor 1.1

	est := NewEstimator(DefaultConfig())
	est.SetSettings(settings)

	if got := est.ScalingFactor(); math.Abs(got-1.1) > 1e-12 {
		t.Fatalf("ScalingFactor = %g, want 1.1", got)
	}

	if _, err := est.Process(uniformFrame(0.0, 0.5, 1.0, 0.0)); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	m, err := est.Process(uniformFrame(0.1, 0.5, 1.0, 0.1))
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if math.Abs(m.Speed-1.1) > 1e-9 {
		t.Fatalf("scaled speed = %g, want 1.1", m.Speed)
	}
	if math.Abs(m.ScalingFactor-1.1) > 1e-12 {
		t.Fatalf("reported scaling factor = %g, want 1.1", m.ScalingFactor)
	}
}

func TestResetClearsRollingState(t *testing.T) {
	t.Parallel()

	est := NewEstimator(DefaultConfig())
	for i := 0; i < 3; i++ {
		if _, err := est.Process(uniformFrame(0.1*float64(i), 0.5, 1.0, 0.1*float64(i))); err != nil {
			t.Fatalf("Process frame %d returned error: %v", i, err)
		}
	}

	est.Reset()

	m, err := est.Process(uniformFrame(0.9, 0.5, 1.0, 0.05))
	if err != nil {
		t.Fatalf("Process after Reset returned error: %v", err)
	}
	if m.IsValid {
		t.Fatal("first frame after Reset reported valid metrics")
	}
}

// uniformFrame places all 33 landmarks at the same x with fixed y/z, so
// the center of mass lands exactly there.
func uniformFrame(x, y, visibility, timestamp float64) pose.Frame {
	var f pose.Frame
	for i := range f.Landmarks {
		f.Landmarks[i] = pose.Landmark{X: x, Y: y, Z: 0, Visibility: visibility}
	}
	f.Timestamp = timestamp
	return f
}
