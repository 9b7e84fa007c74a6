// Package geotest builds roof outlines for tests.
package geotest

import (
	"github.com/paulmach/orb"

	"github.com/piwi3910/SolarLayout/internal/geo"
	"github.com/piwi3910/SolarLayout/internal/model"
)

// Square builds an axis-aligned square of the given side (meters) with its
// south-west corner at sw. Vertices run counter-clockwise.
func Square(sw model.GeoPoint, side float64) []model.GeoPoint {
	return Outline(sw, orb.Ring{{0, 0}, {side, 0}, {side, side}, {0, side}})
}

// Outline maps a planar ring in meters, anchored at sw, to geographic
// vertices.
func Outline(sw model.GeoPoint, ring orb.Ring) []model.GeoPoint {
	return geo.Unproject(ring, sw)
}
