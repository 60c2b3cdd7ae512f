package main

import (
	"testing"

	"court-motion/speed"
)

func TestRecordSampleBoundsBuffer(t *testing.T) {
	t.Parallel()

	cs := &clientSession{}
	total := maxBufferedSamples + 100
	for i := 0; i < total; i++ {
		cs.recordSample(speed.Metrics{
			Timestamp: float64(i),
			Speed:     1.5,
			IsValid:   true,
		})
	}

	if len(cs.samples) > maxBufferedSamples {
		t.Fatalf("sample buffer grew to %d, cap is %d", len(cs.samples), maxBufferedSamples)
	}
	if cs.frameCount != int64(total) {
		t.Fatalf("frameCount = %d, want %d (rollup must stay exact past the cap)", cs.frameCount, total)
	}
	if got := cs.samples[len(cs.samples)-1].Timestamp; got != float64(total-1) {
		t.Fatalf("newest sample timestamp = %v, want %v", got, float64(total-1))
	}
	// Dropping the oldest half at the cap keeps the trace a contiguous
	// suffix of the stream.
	first := cs.samples[0].Timestamp
	for i, s := range cs.samples {
		if s.Timestamp != first+float64(i) {
			t.Fatalf("sample %d has timestamp %v, want %v", i, s.Timestamp, first+float64(i))
		}
	}
}

func TestRecordSampleRollup(t *testing.T) {
	t.Parallel()

	cs := &clientSession{}
	for _, sp := range []float64{1, 4, 2} {
		cs.recordSample(speed.Metrics{Speed: sp, IsValid: true})
	}
	if cs.frameCount != 3 || cs.sumSpeed != 7 || cs.maxSpeed != 4 {
		t.Fatalf("rollup = (count %d, sum %v, max %v), want (3, 7, 4)",
			cs.frameCount, cs.sumSpeed, cs.maxSpeed)
	}
}
