// Package court holds the static geometry tables for supported court
// types. All reference coordinates are in world meters, centered on
// mid-court: x runs across the width, z along the length, the net sits
// at z=0 and y is height above the court plane (always 0 for painted
// reference points).
package court

import (
	"errors"
	"fmt"
	"sort"

	"court-motion/geom"
)

// Type identifies a supported court geometry.
type Type string

const (
	Badminton Type = "badminton"
	Tennis    Type = "tennis"
)

var (
	ErrUnknownCourtType = errors.New("unknown court type")
	ErrUnknownPointID   = errors.New("unknown reference point id")
)

// Dimensions are the standard painted dimensions of a court in meters.
type Dimensions struct {
	Length       float64 `json:"length"`
	Width        float64 `json:"width"`
	SinglesWidth float64 `json:"singlesWidth"`
}

var dimensions = map[Type]Dimensions{
	Badminton: {Length: 13.4, Width: 6.1, SinglesWidth: 5.18},
	Tennis:    {Length: 23.77, Width: 8.23, SinglesWidth: 8.23},
}

// DimensionsFor returns the standard dimensions of a court type.
func DimensionsFor(t Type) (Dimensions, error) {
	d, ok := dimensions[t]
	if !ok {
		return Dimensions{}, fmt.Errorf("%w: %q", ErrUnknownCourtType, t)
	}
	return d, nil
}

// worldPoint is shorthand for a point on the court plane.
func worldPoint(x, z float64) geom.Point3D {
	return geom.Point3D{X: x, Y: 0, Z: z, Space: geom.SpaceWorld}
}

// badmintonPoints maps reference point ids to court-plane coordinates.
// The short service lines sit 1.98 m either side of the net; the corner
// points are the doubles outer lines, the singles-* points the 5.18 m
// singles sidelines.
var badmintonPoints = map[string]geom.Point3D{
	"corner-bl": worldPoint(-3.05, -6.7),
	"corner-br": worldPoint(3.05, -6.7),
	"corner-tl": worldPoint(-3.05, 6.7),
	"corner-tr": worldPoint(3.05, 6.7),

	"net-left":   worldPoint(-3.05, 0),
	"net-center": worldPoint(0, 0),
	"net-right":  worldPoint(3.05, 0),

	"service-near-left":  worldPoint(-3.05, -1.98),
	"service-near-right": worldPoint(3.05, -1.98),
	"service-far-left":   worldPoint(-3.05, 1.98),
	"service-far-right":  worldPoint(3.05, 1.98),

	"singles-bl": worldPoint(-2.59, -6.7),
	"singles-br": worldPoint(2.59, -6.7),
	"singles-tl": worldPoint(-2.59, 6.7),
	"singles-tr": worldPoint(2.59, 6.7),
}

// tennisPoints uses the singles court. Service lines sit 6.40 m either
// side of the net, with the center service line splitting them at x=0.
var tennisPoints = map[string]geom.Point3D{
	"corner-bl": worldPoint(-4.115, -11.885),
	"corner-br": worldPoint(4.115, -11.885),
	"corner-tl": worldPoint(-4.115, 11.885),
	"corner-tr": worldPoint(4.115, 11.885),

	"net-left":   worldPoint(-4.115, 0),
	"net-center": worldPoint(0, 0),
	"net-right":  worldPoint(4.115, 0),

	"service-near-left":  worldPoint(-4.115, -6.40),
	"service-near-right": worldPoint(4.115, -6.40),
	"service-far-left":   worldPoint(-4.115, 6.40),
	"service-far-right":  worldPoint(4.115, 6.40),

	"service-t-near": worldPoint(0, -6.40),
	"service-t-far":  worldPoint(0, 6.40),
}

var pointTables = map[Type]map[string]geom.Point3D{
	Badminton: badmintonPoints,
	Tennis:    tennisPoints,
}

// ReferencePoint resolves a named calibration point to its world
// coordinate for the given court type.
func ReferencePoint(t Type, pointID string) (geom.Point3D, error) {
	table, ok := pointTables[t]
	if !ok {
		return geom.Point3D{}, fmt.Errorf("%w: %q", ErrUnknownCourtType, t)
	}
	p, ok := table[pointID]
	if !ok {
		return geom.Point3D{}, fmt.Errorf("%w: %q for court %q", ErrUnknownPointID, pointID, t)
	}
	return p, nil
}

// PointIDs lists every reference point defined for a court type, sorted
// for deterministic output.
func PointIDs(t Type) ([]string, error) {
	table, ok := pointTables[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCourtType, t)
	}
	ids := make([]string, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
