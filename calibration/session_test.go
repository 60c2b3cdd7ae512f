package calibration

import (
	"errors"
	"sync"
	"testing"

	"court-motion/court"
	"court-motion/geom"
	"court-motion/homography"
)

// cornerClicks maps the full-court corner ids to a plausible on-screen
// trapezoid (camera behind the near baseline).
var cornerClicks = map[string]geom.Point2D{
	"corner-bl": {X: 200, Y: 620, Space: geom.SpacePixel},
	"corner-br": {X: 1080, Y: 620, Space: geom.SpacePixel},
	"corner-tr": {X: 880, Y: 210, Space: geom.SpacePixel},
	"corner-tl": {X: 400, Y: 210, Space: geom.SpacePixel},
}

func TestSuggestNextPointOrder(t *testing.T) {
	t.Parallel()

	s := newFullCourtSession(t)

	mode := s.Mode()
	for _, id := range mode.RequiredPoints {
		if got := s.SuggestNextPoint(); got != id {
			t.Fatalf("SuggestNextPoint = %q, want required %q", got, id)
		}
		addClick(t, s, id)
	}

	// Required set complete: optional points come next, in order.
	if got, want := s.SuggestNextPoint(), mode.OptionalPoints[0]; got != want {
		t.Fatalf("SuggestNextPoint after required = %q, want optional %q", got, want)
	}
	for _, id := range mode.OptionalPoints {
		if err := s.AddPoint(id, geom.Point2D{X: 640, Y: float64(300 + len(id)), Space: geom.SpacePixel}, 0.9); err != nil {
			t.Fatalf("AddPoint(%q): %v", id, err)
		}
	}
	if got := s.SuggestNextPoint(); got != "" {
		t.Fatalf("SuggestNextPoint with everything collected = %q, want empty", got)
	}
}

func TestAddPointValidation(t *testing.T) {
	t.Parallel()

	s := newFullCourtSession(t)
	addClick(t, s, "corner-bl")

	if err := s.AddPoint("corner-bl", geom.Point2D{X: 10, Y: 10}, 1); !errors.Is(err, ErrDuplicatePoint) {
		t.Fatalf("duplicate AddPoint: got %v, want ErrDuplicatePoint", err)
	}
	if err := s.AddPoint("no-such-point", geom.Point2D{X: 10, Y: 10}, 1); !errors.Is(err, court.ErrUnknownPointID) {
		t.Fatalf("unknown AddPoint: got %v, want ErrUnknownPointID", err)
	}
	// Valid court point, but not part of the full-court mode.
	if err := s.AddPoint("service-near-left", geom.Point2D{X: 10, Y: 10}, 1); !errors.Is(err, ErrPointNotInMode) {
		t.Fatalf("out-of-mode AddPoint: got %v, want ErrPointNotInMode", err)
	}
}

func TestCalibrateLifecycle(t *testing.T) {
	t.Parallel()

	s := newFullCourtSession(t)
	if s.State() != StateEmpty {
		t.Fatalf("fresh session state = %v, want StateEmpty", s.State())
	}

	for id := range cornerClicks {
		addClick(t, s, id)
	}
	if s.State() != StateCollecting {
		t.Fatalf("state after points = %v, want StateCollecting", s.State())
	}
	if !s.CanCalibrate() {
		t.Fatal("CanCalibrate = false with 4 required points collected")
	}

	res, err := s.Calibrate()
	if err != nil {
		t.Fatalf("Calibrate returned error: %v", err)
	}
	if res == nil || res.Confidence <= 0 {
		t.Fatalf("Calibrate result = %+v, want positive confidence", res)
	}
	if s.State() != StateCalibrated {
		t.Fatalf("state after Calibrate = %v, want StateCalibrated", s.State())
	}

	if err := s.Confirm(); err != nil {
		t.Fatalf("Confirm returned error: %v", err)
	}
	if s.State() != StateConfirmed {
		t.Fatalf("state after Confirm = %v, want StateConfirmed", s.State())
	}

	if err := s.AddPoint("net-left", geom.Point2D{X: 640, Y: 400}, 1); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("AddPoint after Confirm: got %v, want ErrInvalidTransition", err)
	}
	if err := s.UndoLastPoint(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("UndoLastPoint after Confirm: got %v, want ErrInvalidTransition", err)
	}

	s.Reset()
	if s.State() != StateEmpty || s.Result() != nil || len(s.Points()) != 0 {
		t.Fatalf("Reset left state=%v result=%v points=%d", s.State(), s.Result(), len(s.Points()))
	}
}

func TestCalibrateRequiresMinPoints(t *testing.T) {
	t.Parallel()

	s := newFullCourtSession(t)
	addClick(t, s, "corner-bl")
	addClick(t, s, "corner-br")
	addClick(t, s, "corner-tr")

	if s.CanCalibrate() {
		t.Fatal("CanCalibrate = true with 3 of 4 minimum points")
	}
	if _, err := s.Calibrate(); !errors.Is(err, homography.ErrInsufficientPoints) {
		t.Fatalf("Calibrate with 3 points: got %v, want ErrInsufficientPoints", err)
	}
}

func TestUndoDropsBelowMinimumAndInvalidates(t *testing.T) {
	t.Parallel()

	s := newFullCourtSession(t)
	for id := range cornerClicks {
		addClick(t, s, id)
	}
	if _, err := s.Calibrate(); err != nil {
		t.Fatalf("Calibrate returned error: %v", err)
	}

	gen := s.Generation()
	if err := s.UndoLastPoint(); err != nil {
		t.Fatalf("UndoLastPoint returned error: %v", err)
	}
	if s.Generation() == gen {
		t.Fatal("UndoLastPoint did not bump the session generation")
	}
	if s.Result() != nil {
		t.Fatal("result survived dropping below the mode minimum")
	}
	if s.State() != StateCollecting {
		t.Fatalf("state after undo = %v, want StateCollecting", s.State())
	}
	if got := len(s.Points()); got != 3 {
		t.Fatalf("points after undo = %d, want 3", got)
	}

	for i := 0; i < 3; i++ {
		if err := s.UndoLastPoint(); err != nil {
			t.Fatalf("UndoLastPoint %d returned error: %v", i, err)
		}
	}
	if s.State() != StateEmpty {
		t.Fatalf("state after undoing everything = %v, want StateEmpty", s.State())
	}
	if err := s.UndoLastPoint(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("UndoLastPoint on empty session: got %v, want ErrInvalidTransition", err)
	}
}

func TestSetModeDiscardsCollectedPoints(t *testing.T) {
	t.Parallel()

	s := newFullCourtSession(t)
	addClick(t, s, "corner-bl")
	gen := s.Generation()

	if err := s.SetMode("half-court"); err != nil {
		t.Fatalf("SetMode returned error: %v", err)
	}
	if s.State() != StateEmpty || len(s.Points()) != 0 {
		t.Fatalf("SetMode kept state=%v points=%d", s.State(), len(s.Points()))
	}
	if s.Generation() == gen {
		t.Fatal("SetMode did not bump the session generation")
	}
	if err := s.SetMode("no-such-mode"); !errors.Is(err, court.ErrUnknownMode) {
		t.Fatalf("SetMode(unknown): got %v, want ErrUnknownMode", err)
	}
}

func TestSnapshotReflectsSession(t *testing.T) {
	t.Parallel()

	s := newFullCourtSession(t)
	for id := range cornerClicks {
		addClick(t, s, id)
	}
	if _, err := s.Calibrate(); err != nil {
		t.Fatalf("Calibrate returned error: %v", err)
	}

	view := s.Snapshot()
	if view.State != "calibrated" {
		t.Fatalf("view state = %q, want %q", view.State, "calibrated")
	}
	if len(view.Points) != 4 {
		t.Fatalf("view points = %d, want 4", len(view.Points))
	}
	if !view.CanCalibrate {
		t.Fatal("view CanCalibrate = false after calibrating")
	}
	if view.Result == nil {
		t.Fatal("view result missing after calibrating")
	}
	if view.Accuracy <= 0 || view.Accuracy > 100 {
		t.Fatalf("view accuracy = %.2f, want (0, 100]", view.Accuracy)
	}
	if view.SuggestedID != "net-left" {
		t.Fatalf("view suggestion = %q, want first optional %q", view.SuggestedID, "net-left")
	}
}

func TestConcurrentCalibrateCalls(t *testing.T) {
	t.Parallel()

	// Seven geometrically consistent points, then overlapping Calibrate
	// calls. The session serializes access to its estimator, so every
	// call must complete with a usable result.
	camera := homography.Matrix{{60, 8, 640}, {2, -44, 520}, {0.002, 0.01, 1}}
	s := newFullCourtSession(t)
	ids := []string{
		"corner-bl", "corner-br", "corner-tr", "corner-tl",
		"net-left", "net-center", "net-right",
	}
	for _, id := range ids {
		world, err := court.ReferencePoint(court.Badminton, id)
		if err != nil {
			t.Fatalf("ReferencePoint(%q): %v", id, err)
		}
		u, v, ok := camera.Apply(world.X, world.Z)
		if !ok {
			t.Fatalf("synthetic camera maps %q to infinity", id)
		}
		if err := s.AddPoint(id, geom.Point2D{X: u, Y: v, Space: geom.SpacePixel}, 0.95); err != nil {
			t.Fatalf("AddPoint(%q): %v", id, err)
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := s.Calibrate()
			if err == nil && res == nil {
				err = errors.New("nil result without error")
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("concurrent Calibrate %d: %v", i, err)
		}
	}
	if s.State() != StateCalibrated {
		t.Fatalf("state after concurrent calibrate = %v, want %v", s.State(), StateCalibrated)
	}
}

func newFullCourtSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(court.Badminton, "full-court")
	if err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	return s
}

func addClick(t *testing.T, s *Session, id string) {
	t.Helper()
	click, ok := cornerClicks[id]
	if !ok {
		click = geom.Point2D{X: 640, Y: 415, Space: geom.SpacePixel}
	}
	if err := s.AddPoint(id, click, 0.95); err != nil {
		t.Fatalf("AddPoint(%q): %v", id, err)
	}
}
