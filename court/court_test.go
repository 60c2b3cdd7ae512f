package court

import (
	"errors"
	"testing"
)

func TestDimensionsTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		courtType Type
		length    float64
		width     float64
	}{
		{Badminton, 13.4, 6.1},
		{Tennis, 23.77, 8.23},
	}
	for _, tc := range cases {
		d, err := DimensionsFor(tc.courtType)
		if err != nil {
			t.Fatalf("DimensionsFor(%q): %v", tc.courtType, err)
		}
		if d.Length != tc.length || d.Width != tc.width {
			t.Fatalf("DimensionsFor(%q) = %+v, want length %.2f width %.2f",
				tc.courtType, d, tc.length, tc.width)
		}
		if d.SinglesWidth <= 0 || d.SinglesWidth > d.Width {
			t.Fatalf("DimensionsFor(%q) singles width %.2f outside (0, %.2f]",
				tc.courtType, d.SinglesWidth, d.Width)
		}
	}

	if _, err := DimensionsFor(Type("squash")); !errors.Is(err, ErrUnknownCourtType) {
		t.Fatalf("DimensionsFor(squash): got %v, want ErrUnknownCourtType", err)
	}
}

func TestReferencePointsLieOnTheCourt(t *testing.T) {
	t.Parallel()

	for _, courtType := range []Type{Badminton, Tennis} {
		dims, err := DimensionsFor(courtType)
		if err != nil {
			t.Fatalf("DimensionsFor(%q): %v", courtType, err)
		}
		ids, err := PointIDs(courtType)
		if err != nil {
			t.Fatalf("PointIDs(%q): %v", courtType, err)
		}
		if len(ids) == 0 {
			t.Fatalf("no reference points defined for %q", courtType)
		}

		for _, id := range ids {
			p, err := ReferencePoint(courtType, id)
			if err != nil {
				t.Fatalf("ReferencePoint(%q, %q): %v", courtType, id, err)
			}
			if p.Y != 0 {
				t.Fatalf("%q %q has height %.2f, painted points sit on the plane", courtType, id, p.Y)
			}
			halfW, halfL := dims.Width/2, dims.Length/2
			if p.X < -halfW || p.X > halfW || p.Z < -halfL || p.Z > halfL {
				t.Fatalf("%q %q at (%.2f, %.2f) outside the %.2fx%.2f court",
					courtType, id, p.X, p.Z, dims.Width, dims.Length)
			}
		}
	}

	if _, err := ReferencePoint(Badminton, "no-such-point"); !errors.Is(err, ErrUnknownPointID) {
		t.Fatalf("ReferencePoint(unknown): got %v, want ErrUnknownPointID", err)
	}
}

func TestCornersAreSymmetric(t *testing.T) {
	t.Parallel()

	for _, courtType := range []Type{Badminton, Tennis} {
		bl, _ := ReferencePoint(courtType, "corner-bl")
		br, _ := ReferencePoint(courtType, "corner-br")
		tl, _ := ReferencePoint(courtType, "corner-tl")
		tr, _ := ReferencePoint(courtType, "corner-tr")

		if bl.X != -br.X || tl.X != -tr.X {
			t.Fatalf("%q corners not mirrored across x=0", courtType)
		}
		if bl.Z != -tl.Z || br.Z != -tr.Z {
			t.Fatalf("%q corners not mirrored across the net", courtType)
		}
	}
}

func TestModePointsResolve(t *testing.T) {
	t.Parallel()

	allModes := Modes()
	if len(allModes) == 0 {
		t.Fatal("no calibration modes defined")
	}

	for _, mode := range allModes {
		if mode.MinPoints < 4 {
			t.Fatalf("mode %q minimum %d below the homography floor of 4", mode.ID, mode.MinPoints)
		}
		total := len(mode.RequiredPoints) + len(mode.OptionalPoints)
		if total < mode.MinPoints {
			t.Fatalf("mode %q defines %d points but requires %d", mode.ID, total, mode.MinPoints)
		}

		for _, courtType := range []Type{Badminton, Tennis} {
			for _, id := range append(append([]string{}, mode.RequiredPoints...), mode.OptionalPoints...) {
				if _, err := ReferencePoint(courtType, id); err != nil {
					t.Fatalf("mode %q point %q does not resolve for %q: %v", mode.ID, id, courtType, err)
				}
			}
		}
	}
}

func TestModeByID(t *testing.T) {
	t.Parallel()

	m, err := ModeByID("full-court")
	if err != nil {
		t.Fatalf("ModeByID(full-court): %v", err)
	}
	if len(m.RequiredPoints) != 4 {
		t.Fatalf("full-court requires %d points, want 4 corners", len(m.RequiredPoints))
	}
	if _, err := ModeByID("no-such-mode"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("ModeByID(unknown): got %v, want ErrUnknownMode", err)
	}
}
