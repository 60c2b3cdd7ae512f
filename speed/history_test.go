package speed

import (
	"testing"

	"court-motion/geom"
)

func TestHistoryEvictsOldestAtCapacity(t *testing.T) {
	t.Parallel()

	h := newHistory(4)
	for i := 0; i < 6; i++ {
		h.add(comSample{timestamp: float64(i), com: geom.Point3D{X: float64(i)}})
	}

	if h.len() != 4 {
		t.Fatalf("len = %d after overfilling, want capacity 4", h.len())
	}

	latest, ok := h.latest()
	if !ok || latest.timestamp != 5 {
		t.Fatalf("latest = (%+v, %v), want timestamp 5", latest, ok)
	}

	// Oldest retained sample is 4 steps back; 2 was evicted.
	oldest, ok := h.previous(4)
	if !ok || oldest.timestamp != 2 {
		t.Fatalf("previous(4) = (%+v, %v), want timestamp 2", oldest, ok)
	}
	if _, ok := h.previous(5); ok {
		t.Fatal("previous(5) returned a sample beyond the retained window")
	}
}

func TestHistoryEmptyAndReset(t *testing.T) {
	t.Parallel()

	h := newHistory(3)
	if _, ok := h.latest(); ok {
		t.Fatal("latest on an empty buffer returned ok")
	}

	h.add(comSample{timestamp: 1})
	h.add(comSample{timestamp: 2})
	if h.len() != 2 {
		t.Fatalf("len = %d, want 2", h.len())
	}

	h.reset()
	if h.len() != 0 {
		t.Fatalf("len after reset = %d, want 0", h.len())
	}
	if _, ok := h.latest(); ok {
		t.Fatal("latest after reset returned ok")
	}
}
