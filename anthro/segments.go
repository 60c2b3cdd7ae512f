// Package anthro computes whole-body center of mass from pose landmarks
// using Dempster's anthropometric body-segment parameters.
//
// Each segment carries a fraction of total body mass and a center-of-mass
// location expressed as a fraction of the segment length from its proximal
// end. Paired limb segments appear once per side. The fractions sum to
// ~100%; the weighted mean divides by the sum of the weights that actually
// contributed, so occluded segments renormalize the rest automatically.
package anthro

import "court-motion/pose"

// Segment is one rigid body segment with Dempster mass data. Proximal and
// Distal list the landmark indices whose mean anchors each end; a segment
// with no distal landmarks is treated as a point mass at the proximal mean.
type Segment struct {
	Name            string
	MassFraction    float64 // fraction of total body mass
	COMFromProximal float64 // CoM location along the segment, from proximal
	Proximal        []int
	Distal          []int
}

// segments is the full per-side expansion of the 8-kind Dempster table:
// head 8.26%, trunk 48.33%, and per side upper arm 2.70%, forearm 1.60%,
// hand 0.60%, thigh 10.50%, shank 4.75%, foot 1.43%.
var segments = []Segment{
	{Name: "head", MassFraction: 0.0826, COMFromProximal: 0.5,
		Proximal: []int{pose.LeftEar, pose.RightEar}},
	{Name: "trunk", MassFraction: 0.4833, COMFromProximal: 0.495,
		Proximal: []int{pose.LeftShoulder, pose.RightShoulder},
		Distal:   []int{pose.LeftHip, pose.RightHip}},

	{Name: "left_upper_arm", MassFraction: 0.0270, COMFromProximal: 0.436,
		Proximal: []int{pose.LeftShoulder}, Distal: []int{pose.LeftElbow}},
	{Name: "right_upper_arm", MassFraction: 0.0270, COMFromProximal: 0.436,
		Proximal: []int{pose.RightShoulder}, Distal: []int{pose.RightElbow}},

	{Name: "left_forearm", MassFraction: 0.0160, COMFromProximal: 0.430,
		Proximal: []int{pose.LeftElbow}, Distal: []int{pose.LeftWrist}},
	{Name: "right_forearm", MassFraction: 0.0160, COMFromProximal: 0.430,
		Proximal: []int{pose.RightElbow}, Distal: []int{pose.RightWrist}},

	{Name: "left_hand", MassFraction: 0.0060, COMFromProximal: 0.506,
		Proximal: []int{pose.LeftWrist}, Distal: []int{pose.LeftIndex}},
	{Name: "right_hand", MassFraction: 0.0060, COMFromProximal: 0.506,
		Proximal: []int{pose.RightWrist}, Distal: []int{pose.RightIndex}},

	{Name: "left_thigh", MassFraction: 0.1050, COMFromProximal: 0.433,
		Proximal: []int{pose.LeftHip}, Distal: []int{pose.LeftKnee}},
	{Name: "right_thigh", MassFraction: 0.1050, COMFromProximal: 0.433,
		Proximal: []int{pose.RightHip}, Distal: []int{pose.RightKnee}},

	{Name: "left_shank", MassFraction: 0.0475, COMFromProximal: 0.433,
		Proximal: []int{pose.LeftKnee}, Distal: []int{pose.LeftAnkle}},
	{Name: "right_shank", MassFraction: 0.0475, COMFromProximal: 0.433,
		Proximal: []int{pose.RightKnee}, Distal: []int{pose.RightAnkle}},

	{Name: "left_foot", MassFraction: 0.0143, COMFromProximal: 0.5,
		Proximal: []int{pose.LeftHeel}, Distal: []int{pose.LeftFootIndex}},
	{Name: "right_foot", MassFraction: 0.0143, COMFromProximal: 0.5,
		Proximal: []int{pose.RightHeel}, Distal: []int{pose.RightFootIndex}},
}

// Segments returns the segment table.
func Segments() []Segment {
	out := make([]Segment, len(segments))
	copy(out, segments)
	return out
}
