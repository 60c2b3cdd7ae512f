// Package speed derives center-of-mass velocity and speed metrics from a
// per-frame stream of pose landmarks.
//
// The pipeline per frame:
//
//  1. Reject frames where fewer than 15 of the 33 landmarks are visible.
//  2. Scale raw landmark coordinates by heightScaling x courtScaling.
//  3. Compute the body center of mass (anthro package).
//  4. Difference against the previous frame's CoM over the frame clock.
//  5. Smooth: the reported velocity is the mean of the last few raw
//     per-frame velocity samples, trading ~100ms of group delay for
//     jitter suppression.
//  6. Clamp speed outputs at a physical ceiling; faster values are
//     detector artifacts, flagged but not rejected.
//
// A frame that cannot produce metrics yields IsValid=false with zeroed
// numeric fields. Stale values are never reported as fresh.
package speed

import (
	"errors"

	"court-motion/anthro"
	"court-motion/calibration"
	"court-motion/geom"
	"court-motion/pose"
)

// ErrStaleFrame marks a frame whose timestamp does not advance the clock
// (dt <= 0). The frame is skipped, never divided by.
var ErrStaleFrame = errors.New("speed: frame timestamp is not after the previous frame")

// Config tunes the per-frame pipeline.
type Config struct {
	// SmoothingWindow is the CoM history capacity in frames.
	SmoothingWindow int
	// VelocitySamples is how many raw velocity samples average into the
	// reported velocity.
	VelocitySamples int
	// VisibilityThreshold is the minimum landmark visibility score.
	VisibilityThreshold float64
	// MinVisibleLandmarks is the per-frame floor below which the whole
	// frame is rejected.
	MinVisibleLandmarks int
	// MaxSpeed is the clamp ceiling in m/s.
	MaxSpeed float64
	// ScaleProbe is the image point at which the homography's local
	// pixel-to-meter ratio is sampled for court scaling. Hosts should
	// set it to the video frame center.
	ScaleProbe geom.Point2D
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		SmoothingWindow:     10,
		VelocitySamples:     5,
		VisibilityThreshold: 0.5,
		MinVisibleLandmarks: 15,
		MaxSpeed:            50,
		ScaleProbe:          geom.Point2D{X: 640, Y: 360, Space: geom.SpacePixel},
	}
}

// Metrics is the per-frame output. All numeric fields are zero whenever
// IsValid is false.
type Metrics struct {
	Timestamp          float64            `json:"timestamp"`
	CenterOfMass       geom.Point3D       `json:"centerOfMass"`
	Velocity           geom.Point3D       `json:"velocity"`
	Speed              float64            `json:"speed"`              // m/s
	GeneralMovingSpeed float64            `json:"generalMovingSpeed"` // horizontal plane, m/s
	PerLandmarkSpeed   map[string]float64 `json:"perLandmarkSpeed,omitempty"`
	ScalingFactor      float64            `json:"scalingFactor"`
	IsValid            bool               `json:"isValid"`
	Clamped            bool               `json:"clamped"`
}

// Estimator runs the speed pipeline. It is driven synchronously, one call
// per rendered frame, and is not safe for concurrent use; the host's
// frame callback owns it.
type Estimator struct {
	cfg      Config
	settings calibration.Settings

	courtScale float64
	history    *history
	velocities []geom.Point3D // raw per-frame velocity samples, newest last

	prevFrame     pose.Frame
	prevTimestamp float64
	hasPrevFrame  bool
}

// NewEstimator constructs an estimator with uncalibrated settings.
func NewEstimator(cfg Config) *Estimator {
	if cfg.SmoothingWindow <= 0 {
		cfg.SmoothingWindow = 10
	}
	if cfg.VelocitySamples <= 0 {
		cfg.VelocitySamples = 5
	}
	return &Estimator{
		cfg:        cfg,
		courtScale: 1,
		history:    newHistory(cfg.SmoothingWindow),
	}
}

// SetSettings installs confirmed calibration settings and derives the
// court scaling factor from the homography's local pixel-to-meter ratio.
// History is cleared: metrics under the old scaling must not difference
// against the new.
func (e *Estimator) SetSettings(s calibration.Settings) {
	e.settings = s
	e.courtScale = 1
	if s.UseCourtCalibration && s.Homography != nil {
		if mpp := s.Homography.MetersPerPixel(e.cfg.ScaleProbe); mpp > 0 {
			e.courtScale = mpp
		}
	}
	e.Reset()
}

// Reset clears all rolling state.
func (e *Estimator) Reset() {
	e.history.reset()
	e.velocities = e.velocities[:0]
	e.hasPrevFrame = false
}

// ScalingFactor is the composed height x court scale applied to raw
// landmark coordinates.
func (e *Estimator) ScalingFactor() float64 {
	return e.settings.HeightScaling() * e.courtScale
}

// Process consumes one landmark frame and returns the frame's metrics.
// Insufficient visibility and missing history degrade to IsValid=false;
// a non-advancing timestamp additionally returns ErrStaleFrame and leaves
// the rolling state untouched.
func (e *Estimator) Process(frame pose.Frame) (Metrics, error) {
	invalid := Metrics{Timestamp: frame.Timestamp}

	if frame.VisibleCount(e.cfg.VisibilityThreshold) < e.cfg.MinVisibleLandmarks {
		return invalid, nil
	}

	if last, ok := e.history.latest(); ok && frame.Timestamp <= last.timestamp {
		return invalid, ErrStaleFrame
	}

	scaling := e.ScalingFactor()
	scaled := scaleFrame(frame, scaling)

	com, err := anthro.CenterOfMass(scaled, e.cfg.VisibilityThreshold)
	if err != nil {
		return invalid, nil
	}

	metrics := Metrics{
		Timestamp:     frame.Timestamp,
		CenterOfMass:  com,
		ScalingFactor: scaling,
	}

	prev, hasPrev := e.history.latest()
	if hasPrev {
		dt := frame.Timestamp - prev.timestamp

		raw := com.Sub(prev.com).Scale(1 / dt)
		e.pushVelocity(raw)

		velocity := e.smoothedVelocity()
		speed := velocity.Norm()
		general := velocity.HorizontalNorm()

		if speed > e.cfg.MaxSpeed {
			// Artifact, not physics: scale the vector down to the ceiling
			// and flag the frame instead of dropping it.
			velocity = velocity.Scale(e.cfg.MaxSpeed / speed)
			speed = e.cfg.MaxSpeed
			metrics.Clamped = true
		}
		if general > e.cfg.MaxSpeed {
			general = e.cfg.MaxSpeed
			metrics.Clamped = true
		}

		metrics.Velocity = velocity
		metrics.Speed = speed
		metrics.GeneralMovingSpeed = general
		metrics.IsValid = true

		if e.hasPrevFrame {
			metrics.PerLandmarkSpeed = e.perLandmarkSpeeds(scaled, frame.Timestamp, &metrics)
		}
	}

	e.history.add(comSample{timestamp: frame.Timestamp, com: com})
	e.prevFrame = scaled
	e.prevTimestamp = frame.Timestamp
	e.hasPrevFrame = true

	return metrics, nil
}

// pushVelocity appends a raw velocity sample, keeping only the newest
// VelocitySamples entries.
func (e *Estimator) pushVelocity(v geom.Point3D) {
	e.velocities = append(e.velocities, v)
	if len(e.velocities) > e.cfg.VelocitySamples {
		e.velocities = e.velocities[1:]
	}
}

// smoothedVelocity is the arithmetic mean of the retained raw samples.
func (e *Estimator) smoothedVelocity() geom.Point3D {
	var sum geom.Point3D
	for _, v := range e.velocities {
		sum.X += v.X
		sum.Y += v.Y
		sum.Z += v.Z
	}
	n := float64(len(e.velocities))
	space := e.velocities[len(e.velocities)-1].Space
	return geom.Point3D{X: sum.X / n, Y: sum.Y / n, Z: sum.Z / n, Space: space}
}

// perLandmarkSpeeds computes single-landmark speeds between the previous
// and current scaled frames, for landmarks visible in both. Values above
// the ceiling are clamped and flag the frame.
func (e *Estimator) perLandmarkSpeeds(scaled pose.Frame, timestamp float64, metrics *Metrics) map[string]float64 {
	dt := timestamp - e.prevTimestamp
	if dt <= 0 {
		return nil
	}

	speeds := make(map[string]float64)
	for i := 0; i < pose.LandmarkCount; i++ {
		cur := scaled.Landmarks[i]
		old := e.prevFrame.Landmarks[i]
		if cur.Visibility < e.cfg.VisibilityThreshold || old.Visibility < e.cfg.VisibilityThreshold {
			continue
		}
		s := cur.Point().Sub(old.Point()).Norm() / dt
		if s > e.cfg.MaxSpeed {
			s = e.cfg.MaxSpeed
			metrics.Clamped = true
		}
		speeds[pose.Name(i)] = s
	}
	return speeds
}

// scaleFrame multiplies all landmark coordinates by f, leaving visibility
// untouched.
func scaleFrame(frame pose.Frame, f float64) pose.Frame {
	out := frame
	for i := range out.Landmarks {
		out.Landmarks[i].X *= f
		out.Landmarks[i].Y *= f
		out.Landmarks[i].Z *= f
	}
	return out
}
