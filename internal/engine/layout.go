// Package engine lays out rectangular solar panels inside a roof polygon.
package engine

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/piwi3910/SolarLayout/internal/geo"
	"github.com/piwi3910/SolarLayout/internal/model"
)

// Planner runs the layout pipeline with a fixed set of settings. A Planner
// holds no mutable state and may be shared between goroutines.
type Planner struct {
	Settings model.LayoutSettings
}

func New(settings model.LayoutSettings) *Planner {
	return &Planner{Settings: settings}
}

// Layout projects the roof polygon into a local metric frame, erodes it by
// the edge offset, tiles it with landscape then portrait panels and maps
// every placed panel back to degrees.
//
// Both passes run over the same eroded roof, so a landscape panel and a
// portrait panel may overlap. Each pass is overlap-free on its own. Panel
// ids count from 0 across both passes.
func (p *Planner) Layout(polygon []model.GeoPoint) model.LayoutResult {
	result := model.LayoutResult{
		Status: model.StatusInvalidPolygon,
		Panels: []model.Panel{},
		Bounds: geo.BoundsOf(polygon),
	}
	if len(polygon) < 3 {
		return result
	}

	ring, anchor := geo.Project(polygon)
	roof, ok := Shrink(ring, 0)
	if !ok {
		return result
	}
	result.RoofAreaM2 = ringArea(roof)

	usable, ok := Erode(roof, p.Settings.OffsetM())
	if !ok {
		result.Status = model.StatusOffsetTooLarge
		return result
	}
	for _, part := range usable {
		result.UsableAreaM2 += ringArea(part)
	}

	proj := geo.NewProjector(anchor)
	w, h := p.Settings.PanelWidthM(), p.Settings.PanelHeightM()
	id := 0
	for _, pass := range []struct {
		orientation model.Orientation
		w, h        float64
	}{
		{model.Landscape, w, h},
		{model.Portrait, h, w},
	} {
		for _, rect := range Tile(usable, pass.w, pass.h, p.Settings.SpacingM) {
			result.Panels = append(result.Panels, backproject(rect, proj, pass.orientation, p.Settings, id))
			id++
			if pass.orientation == model.Landscape {
				result.LandscapeCount++
			} else {
				result.PortraitCount++
			}
		}
	}

	if len(result.Panels) == 0 {
		result.Status = model.StatusNoFit
		return result
	}
	result.Status = model.StatusOK
	return result
}

// backproject converts a placed rectangle into a Panel. Portrait panels
// report the configured width and height swapped.
func backproject(rect orb.Bound, proj geo.Projector, o model.Orientation, s model.LayoutSettings, id int) model.Panel {
	corners := [4]orb.Point{
		{rect.Min[0], rect.Min[1]},
		{rect.Max[0], rect.Min[1]},
		{rect.Max[0], rect.Max[1]},
		{rect.Min[0], rect.Max[1]},
	}

	panel := model.Panel{
		ID:          id,
		Center:      proj.Inverse(rect.Center()).LatLng(),
		Orientation: o,
		WidthCm:     s.PanelWidthCm,
		HeightCm:    s.PanelHeightCm,
	}
	for i, c := range corners {
		panel.Corners[i] = proj.Inverse(c).LatLng()
	}
	if o == model.Portrait {
		panel.WidthCm, panel.HeightCm = s.PanelHeightCm, s.PanelWidthCm
	}
	return panel
}

func ringArea(r orb.Ring) float64 {
	closed := append(append(orb.Ring(nil), r...), r[0])
	return math.Abs(planar.Area(closed))
}
