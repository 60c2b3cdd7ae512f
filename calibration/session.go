// Package calibration manages the collection of user-clicked court
// reference points and orchestrates homography estimation over them.
//
// A session moves through Empty -> Collecting -> Calibrated -> Confirmed.
// Undoing a point can drop a session back to Collecting and invalidates a
// result computed from the larger point set; reset and mode changes return
// to Empty and bump the session generation so in-flight estimates from the
// previous configuration are discarded rather than applied.
package calibration

import (
	"errors"
	"fmt"
	"sync"

	"court-motion/court"
	"court-motion/geom"
	"court-motion/homography"
)

// State is the session lifecycle phase.
type State int

const (
	StateEmpty State = iota
	StateCollecting
	StateCalibrated
	StateConfirmed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateCollecting:
		return "collecting"
	case StateCalibrated:
		return "calibrated"
	case StateConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

var (
	ErrDuplicatePoint    = errors.New("calibration: point already collected in this session")
	ErrInvalidTransition = errors.New("calibration: operation not valid in current state")
	ErrStaleEstimate     = errors.New("calibration: estimate superseded by a session reset")
	ErrPointNotInMode    = errors.New("calibration: point is not part of the active mode")
)

// Point is a single collected correspondence: the named court reference
// point and where the user clicked it in frame space. Immutable once
// recorded; owned exclusively by its session.
type Point struct {
	ID         string       `json:"id"`
	Image      geom.Point2D `json:"image"`
	Confidence float64      `json:"confidence"`
}

// Session collects calibration points for one court and mode. Methods are
// safe for concurrent use; estimation itself runs on a snapshot of the
// point list so the estimator never holds references into session state.
// estMu serializes Estimate calls, since the estimator's RNG is not safe
// for concurrent use and estimation runs outside the state lock.
type Session struct {
	mu         sync.Mutex
	estMu      sync.Mutex
	courtType  court.Type
	mode       court.Mode
	state      State
	points     []Point
	result     *homography.Result
	estimator  *homography.Estimator
	generation uint64
}

// NewSession starts an empty session for the given court type and mode.
func NewSession(courtType court.Type, modeID string) (*Session, error) {
	if _, err := court.DimensionsFor(courtType); err != nil {
		return nil, err
	}
	mode, err := court.ModeByID(modeID)
	if err != nil {
		return nil, err
	}
	return &Session{
		courtType: courtType,
		mode:      mode,
		state:     StateEmpty,
		estimator: homography.NewEstimator(),
	}, nil
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Mode returns the active calibration mode descriptor.
func (s *Session) Mode() court.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Generation returns the monotonic session generation. It increments on
// every reset, mode change and undo, and tags each estimation attempt.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// SetMode switches the active calibration mode, discarding all collected
// points and any result.
func (s *Session) SetMode(modeID string) error {
	mode, err := court.ModeByID(modeID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	s.points = nil
	s.result = nil
	s.state = StateEmpty
	s.generation++
	return nil
}

// AddPoint records a clicked reference point. The point must be defined
// for the session's court, belong to the active mode, and not already be
// collected.
func (s *Session) AddPoint(pointID string, image geom.Point2D, confidence float64) error {
	if _, err := court.ReferencePoint(s.courtType, pointID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateConfirmed {
		return fmt.Errorf("%w: cannot add points after confirming", ErrInvalidTransition)
	}
	if !s.modeHasPoint(pointID) {
		return fmt.Errorf("%w: %q in mode %q", ErrPointNotInMode, pointID, s.mode.ID)
	}
	for _, p := range s.points {
		if p.ID == pointID {
			return fmt.Errorf("%w: %q", ErrDuplicatePoint, pointID)
		}
	}

	s.points = append(s.points, Point{ID: pointID, Image: image, Confidence: confidence})
	s.state = StateCollecting
	return nil
}

// SuggestNextPoint returns the first uncollected required point, then the
// first uncollected optional point, or "" once everything is collected.
// Required points always take priority over optional ones.
func (s *Session) SuggestNextPoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.mode.RequiredPoints {
		if !s.hasPoint(id) {
			return id
		}
	}
	for _, id := range s.mode.OptionalPoints {
		if !s.hasPoint(id) {
			return id
		}
	}
	return ""
}

// CanCalibrate reports whether enough points have been collected for the
// active mode.
func (s *Session) CanCalibrate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points) >= s.mode.MinPoints
}

// Points returns a copy of the collected points, in collection order.
func (s *Session) Points() []Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Calibrate resolves the collected points against the court model and
// estimates the homography. On success the session moves to Calibrated;
// on failure it stays in Collecting with its points intact so the user
// can add more and retry. If the session was reset or switched mode while
// the estimator ran, the result is discarded and ErrStaleEstimate
// returned.
func (s *Session) Calibrate() (*homography.Result, error) {
	s.mu.Lock()
	if len(s.points) < s.mode.MinPoints {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: have %d, mode %q needs %d",
			homography.ErrInsufficientPoints, len(s.points), s.mode.ID, s.mode.MinPoints)
	}

	gen := s.generation
	pairs := make([]homography.Correspondence, len(s.points))
	for i, p := range s.points {
		world, err := court.ReferencePoint(s.courtType, p.ID)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		pairs[i] = homography.Correspondence{Image: p.Image, World: world}
	}
	s.mu.Unlock()

	// Estimation runs on the snapshot, outside the state lock. estMu
	// keeps overlapping Calibrate calls off the shared estimator.
	s.estMu.Lock()
	result, err := s.estimator.Estimate(pairs)
	s.estMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return nil, ErrStaleEstimate
	}
	if err != nil {
		if s.state == StateCalibrated {
			s.state = StateCollecting
		}
		return nil, err
	}

	s.result = result
	s.state = StateCalibrated
	return result, nil
}

// UndoLastPoint removes the most recently added point. Dropping below the
// mode minimum invalidates any existing result and returns the session to
// Collecting (or Empty when no points remain).
func (s *Session) UndoLastPoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateConfirmed {
		return fmt.Errorf("%w: cannot undo after confirming", ErrInvalidTransition)
	}
	if len(s.points) == 0 {
		return fmt.Errorf("%w: no points to undo", ErrInvalidTransition)
	}

	s.points = s.points[:len(s.points)-1]
	s.generation++

	if len(s.points) < s.mode.MinPoints {
		s.result = nil
	}
	if s.state == StateCalibrated {
		s.state = StateCollecting
	}
	if len(s.points) == 0 {
		s.state = StateEmpty
	}
	return nil
}

// Confirm freezes the calibrated result for consumption by the speed
// pipeline. Valid only from Calibrated.
func (s *Session) Confirm() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCalibrated || s.result == nil {
		return fmt.Errorf("%w: confirm requires a calibrated session", ErrInvalidTransition)
	}
	s.state = StateConfirmed
	return nil
}

// Reset discards all points and results and returns to Empty, from any
// state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = nil
	s.result = nil
	s.state = StateEmpty
	s.generation++
}

// Result returns the latest homography estimate, or nil before a
// successful Calibrate.
func (s *Session) Result() *homography.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Session) hasPoint(id string) bool {
	for _, p := range s.points {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (s *Session) modeHasPoint(id string) bool {
	for _, p := range s.mode.RequiredPoints {
		if p == id {
			return true
		}
	}
	for _, p := range s.mode.OptionalPoints {
		if p == id {
			return true
		}
	}
	return false
}

// View is a read-only snapshot of session state for display layers.
type View struct {
	CourtType    court.Type         `json:"courtType"`
	Mode         court.Mode         `json:"mode"`
	State        string             `json:"state"`
	Points       []Point            `json:"points"`
	SuggestedID  string             `json:"suggestedPointId,omitempty"`
	CanCalibrate bool               `json:"canCalibrate"`
	Result       *homography.Result `json:"result,omitempty"`
	Accuracy     float64            `json:"accuracy"` // 0-100%
}

// Snapshot builds a consistent read-only view of the session.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	points := make([]Point, len(s.points))
	copy(points, s.points)
	mode := s.mode
	state := s.state
	result := s.result
	courtType := s.courtType
	s.mu.Unlock()

	view := View{
		CourtType:    courtType,
		Mode:         mode,
		State:        state.String(),
		Points:       points,
		SuggestedID:  s.SuggestNextPoint(),
		CanCalibrate: len(points) >= mode.MinPoints,
		Result:       result,
	}
	if result != nil {
		view.Accuracy = result.Confidence * 100
	}
	return view
}
