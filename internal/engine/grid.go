package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/piwi3910/SolarLayout/internal/geo"
	"github.com/piwi3910/SolarLayout/internal/model"
)

// MaxGridCells caps the candidate positions one layout may test across
// both passes.
const MaxGridCells = 2_000_000

// ErrGridTooLarge reports a roof and panel size that would need more than
// MaxGridCells candidate positions.
var ErrGridTooLarge = errors.New("layout grid too large")

// GridCells estimates the candidate positions both passes test, measured on
// the roof's bounding box before any offset is applied.
func GridCells(polygon []model.GeoPoint, s model.LayoutSettings) float64 {
	w, h := s.PanelWidthM(), s.PanelHeightM()
	if len(polygon) < 3 || w <= 0 || h <= 0 || s.SpacingM < 0 {
		return 0
	}

	ring, _ := geo.Project(polygon)
	b := ring.Bound()
	dx, dy := b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]
	along := func(extent, size float64) float64 {
		return math.Floor(extent/(size+s.SpacingM)) + 1
	}
	return along(dx, w)*along(dy, h) + along(dx, h)*along(dy, w)
}

// CheckGrid rejects layouts whose grid would exceed MaxGridCells.
func (p *Planner) CheckGrid(polygon []model.GeoPoint) error {
	if n := GridCells(polygon, p.Settings); n > MaxGridCells {
		return fmt.Errorf("%w: %.0f candidate positions, limit %d", ErrGridTooLarge, n, MaxGridCells)
	}
	return nil
}
