package speed

import "court-motion/geom"

// comSample is one frame's center-of-mass observation.
type comSample struct {
	timestamp float64
	com       geom.Point3D
}

// history is a fixed-capacity ring buffer of center-of-mass samples.
// Once full, new samples overwrite the oldest; memory never grows.
type history struct {
	samples  []comSample
	capacity int
	head     int // next write position
	size     int
}

func newHistory(capacity int) *history {
	if capacity < 2 {
		capacity = 2
	}
	return &history{
		samples:  make([]comSample, capacity),
		capacity: capacity,
	}
}

// add stores a sample, evicting the oldest when at capacity.
func (h *history) add(s comSample) {
	h.samples[h.head] = s
	h.head = (h.head + 1) % h.capacity
	if h.size < h.capacity {
		h.size++
	}
}

// latest returns the most recent sample. ok is false on an empty buffer.
func (h *history) latest() (comSample, bool) {
	return h.previous(1)
}

// previous returns the sample n steps back: previous(1) is the most
// recent, previous(2) the one before it.
func (h *history) previous(n int) (comSample, bool) {
	if n < 1 || n > h.size {
		return comSample{}, false
	}
	idx := (h.head - n + h.capacity) % h.capacity
	return h.samples[idx], true
}

func (h *history) len() int {
	return h.size
}

func (h *history) reset() {
	h.head = 0
	h.size = 0
}
