package pose

import (
	"fmt"

	"court-motion/geom"
)

// Landmark is a single detector output: position in normalized space plus
// a visibility score in [0,1].
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Point returns the landmark position tagged as normalized space.
func (l Landmark) Point() geom.Point3D {
	return geom.Point3D{X: l.X, Y: l.Y, Z: l.Z, Space: geom.SpaceNormalized}
}

// Frame is one detector result: all 33 landmarks plus the frame timestamp
// in seconds on the video clock. Frames are consumed read-only.
type Frame struct {
	Landmarks [LandmarkCount]Landmark `json:"landmarks"`
	Timestamp float64                 `json:"timestamp"`
}

// FromSlice builds a Frame from a loosely-typed landmark slice, as
// delivered over the wire. A frame with the wrong landmark count is a
// programmer error upstream, so this is the one place that panics.
func FromSlice(landmarks []Landmark, timestamp float64) Frame {
	if len(landmarks) != LandmarkCount {
		panic(fmt.Sprintf("pose: malformed frame with %d landmarks, want %d", len(landmarks), LandmarkCount))
	}
	var f Frame
	copy(f.Landmarks[:], landmarks)
	f.Timestamp = timestamp
	return f
}

// VisibleCount returns how many landmarks meet the visibility threshold.
func (f *Frame) VisibleCount(threshold float64) int {
	n := 0
	for i := range f.Landmarks {
		if f.Landmarks[i].Visibility >= threshold {
			n++
		}
	}
	return n
}
