// Package geom defines the point types shared by the calibration and
// speed-estimation pipeline.
//
// Every point carries an explicit coordinate space. The overlay code this
// replaces used to guess the space from coordinate magnitudes (values under
// 1.0 were assumed normalized), which was a recurring source of bugs.
// Callers must tag points at the boundary and convert explicitly.
package geom

import "math"

// Space identifies the coordinate system a point is expressed in.
type Space int

const (
	// SpacePixel is source video frame space, origin top-left, units px.
	SpacePixel Space = iota
	// SpaceNormalized is pose-detector output space, coordinates in [0,1].
	SpaceNormalized
	// SpaceWorld is court space in meters: x/z span the court plane
	// centered on mid-court, y is height above it.
	SpaceWorld
)

func (s Space) String() string {
	switch s {
	case SpacePixel:
		return "pixel"
	case SpaceNormalized:
		return "normalized"
	case SpaceWorld:
		return "world"
	default:
		return "unknown"
	}
}

// Point2D is a planar point, typically a user click in frame space.
type Point2D struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Space Space   `json:"space"`
}

// Point3D is a spatial point. In SpaceWorld the court plane is (x,z) and
// y is height; in SpaceNormalized all axes are detector output in [0,1].
type Point3D struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Space Space   `json:"space"`
}

// Sub returns the componentwise difference a-b. Panics are not worth it
// here; mixing spaces is guarded at the pipeline boundaries.
func (a Point3D) Sub(b Point3D) Point3D {
	return Point3D{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z, Space: a.Space}
}

// Scale returns the point with every component multiplied by f.
func (a Point3D) Scale(f float64) Point3D {
	return Point3D{X: a.X * f, Y: a.Y * f, Z: a.Z * f, Space: a.Space}
}

// Norm returns the Euclidean length of the point treated as a vector.
func (a Point3D) Norm() float64 {
	return math.Sqrt(a.X*a.X + a.Y*a.Y + a.Z*a.Z)
}

// HorizontalNorm returns the length of the (x,z) court-plane projection.
func (a Point3D) HorizontalNorm() float64 {
	return math.Sqrt(a.X*a.X + a.Z*a.Z)
}

// Dist2D returns the Euclidean distance between two planar points.
func Dist2D(a, b Point2D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
