// Package geo converts roof outlines between WGS 84 degrees and a local
// planar frame measured in meters.
package geo

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/piwi3910/SolarLayout/internal/model"
)

// Meters per degree used by the local frame. The projection is linear
// around the anchor, which is accurate enough for roof-sized extents.
const (
	MetersPerDegreeLng = 111320.0 // at the equator, scaled by cos(anchor lat)
	MetersPerDegreeLat = 110540.0
)

// Projector maps points between degrees and the planar frame anchored at
// a fixed point. x points east, y points north.
type Projector struct {
	Anchor model.GeoPoint
	kx     float64
}

// NewProjector returns a projector anchored at the given point.
func NewProjector(anchor model.GeoPoint) Projector {
	return Projector{
		Anchor: anchor,
		kx:     MetersPerDegreeLng * math.Cos(anchor.Lat*math.Pi/180),
	}
}

// Forward projects a geographic point into the planar frame.
func (p Projector) Forward(g model.GeoPoint) orb.Point {
	return orb.Point{
		(g.Lng - p.Anchor.Lng) * p.kx,
		(g.Lat - p.Anchor.Lat) * MetersPerDegreeLat,
	}
}

// Inverse maps a planar point back to degrees.
func (p Projector) Inverse(pt orb.Point) model.GeoPoint {
	g := model.GeoPoint{Lat: p.Anchor.Lat + pt[1]/MetersPerDegreeLat}
	if p.kx != 0 {
		g.Lng = p.Anchor.Lng + pt[0]/p.kx
	} else {
		g.Lng = p.Anchor.Lng
	}
	return g
}

// Project converts a polygon into the frame anchored at its first vertex.
// The returned ring keeps the input vertex order and is not closed.
// An empty polygon yields an empty ring and a zero anchor.
func Project(polygon []model.GeoPoint) (orb.Ring, model.GeoPoint) {
	if len(polygon) == 0 {
		return orb.Ring{}, model.GeoPoint{}
	}
	proj := NewProjector(polygon[0])
	ring := make(orb.Ring, len(polygon))
	for i, g := range polygon {
		ring[i] = proj.Forward(g)
	}
	return ring, polygon[0]
}

// Unproject maps planar points back to degrees around anchor.
func Unproject(points []orb.Point, anchor model.GeoPoint) []model.GeoPoint {
	proj := NewProjector(anchor)
	out := make([]model.GeoPoint, len(points))
	for i, pt := range points {
		out[i] = proj.Inverse(pt)
	}
	return out
}

// BoundsOf returns the extreme coordinates of the polygon and the mean of
// its vertices.
func BoundsOf(polygon []model.GeoPoint) model.Bounds {
	if len(polygon) == 0 {
		return model.Bounds{}
	}
	b := model.Bounds{
		North: polygon[0].Lat,
		South: polygon[0].Lat,
		East:  polygon[0].Lng,
		West:  polygon[0].Lng,
	}
	var sumLat, sumLng float64
	for _, g := range polygon {
		b.North = math.Max(b.North, g.Lat)
		b.South = math.Min(b.South, g.Lat)
		b.East = math.Max(b.East, g.Lng)
		b.West = math.Min(b.West, g.Lng)
		sumLat += g.Lat
		sumLng += g.Lng
	}
	n := float64(len(polygon))
	b.Center = model.GeoPoint{Lat: sumLat / n, Lng: sumLng / n}
	return b
}
