package anthro

import (
	"errors"

	"court-motion/geom"
	"court-motion/pose"
)

// ErrNoVisibleSegments means occlusion wiped out every segment, so no
// center of mass can be computed for the frame.
var ErrNoVisibleSegments = errors.New("anthro: no segment has visible landmarks")

// CenterOfMass computes the mass-weighted body center from a landmark
// frame. Landmarks under the visibility threshold are excluded from their
// segment's anchor; a segment missing either anchor is dropped entirely
// and its mass redistributes proportionally across the visible segments
// (the weighted mean divides by the sum of contributing fractions rather
// than by 1). The result is in the same coordinate space as the input
// landmarks.
func CenterOfMass(frame pose.Frame, visibilityThreshold float64) (geom.Point3D, error) {
	var sumX, sumY, sumZ, totalWeight float64

	for _, seg := range segments {
		pos, ok := segmentPosition(frame, seg, visibilityThreshold)
		if !ok {
			continue
		}
		sumX += pos.X * seg.MassFraction
		sumY += pos.Y * seg.MassFraction
		sumZ += pos.Z * seg.MassFraction
		totalWeight += seg.MassFraction
	}

	if totalWeight <= 0 {
		return geom.Point3D{}, ErrNoVisibleSegments
	}

	return geom.Point3D{
		X:     sumX / totalWeight,
		Y:     sumY / totalWeight,
		Z:     sumZ / totalWeight,
		Space: geom.SpaceNormalized,
	}, nil
}

// segmentPosition locates a segment's center of mass, COMFromProximal of
// the way from the proximal anchor mean to the distal one. A two-anchor
// segment contributes only when both anchors are visible: a limb with an
// occluded far end must not collapse to a point mass at its torso anchor
// and drag the mean. Point-mass segments (no distal landmarks) need only
// the proximal mean.
func segmentPosition(frame pose.Frame, seg Segment, threshold float64) (geom.Point3D, bool) {
	prox, proxOK := visibleMean(frame, seg.Proximal, threshold)
	if len(seg.Distal) == 0 {
		return prox, proxOK
	}
	dist, distOK := visibleMean(frame, seg.Distal, threshold)
	if !proxOK || !distOK {
		return geom.Point3D{}, false
	}
	d := dist.Sub(prox)
	return geom.Point3D{
		X: prox.X + d.X*seg.COMFromProximal,
		Y: prox.Y + d.Y*seg.COMFromProximal,
		Z: prox.Z + d.Z*seg.COMFromProximal,
	}, true
}

// visibleMean averages the positions of the listed landmarks that meet
// the visibility threshold. ok is false when none do (or the list is
// empty, as for point-mass segments' distal side).
func visibleMean(frame pose.Frame, indices []int, threshold float64) (geom.Point3D, bool) {
	var sum geom.Point3D
	n := 0
	for _, idx := range indices {
		lm := frame.Landmarks[idx]
		if lm.Visibility < threshold {
			continue
		}
		sum.X += lm.X
		sum.Y += lm.Y
		sum.Z += lm.Z
		n++
	}
	if n == 0 {
		return geom.Point3D{}, false
	}
	return geom.Point3D{X: sum.X / float64(n), Y: sum.Y / float64(n), Z: sum.Z / float64(n)}, true
}
