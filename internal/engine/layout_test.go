package engine

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SolarLayout/internal/geo"
	"github.com/piwi3910/SolarLayout/internal/geo/geotest"
	"github.com/piwi3910/SolarLayout/internal/model"
)

var tokyo = model.GeoPoint{Lat: 35, Lng: 139}

// toGeo unprojects a planar ring whose first vertex is the origin.
func toGeo(ring orb.Ring) []model.GeoPoint {
	return geotest.Outline(tokyo, ring)
}

// panelRect maps a panel back to the planar frame anchored at tokyo.
func panelRect(p model.Panel) orb.Bound {
	proj := geo.NewProjector(tokyo)
	b := orb.Bound{Min: proj.Forward(p.Corners[0].Point()), Max: proj.Forward(p.Corners[0].Point())}
	for _, c := range p.Corners[1:] {
		b = b.Extend(proj.Forward(c.Point()))
	}
	return b
}

func TestLayout_TenMeterSquare(t *testing.T) {
	result := New(model.DefaultSettings()).Layout(geotest.Square(tokyo, 10))

	assert.Equal(t, model.StatusOK, result.Status)
	assert.Equal(t, 45, result.LandscapeCount)
	assert.Equal(t, 45, result.PortraitCount)
	require.Len(t, result.Panels, 90)
	assert.InDelta(t, 100.0, result.RoofAreaM2, 1e-6)
	assert.InDelta(t, 9.8*9.8, result.UsableAreaM2, 1e-6)

	for i, p := range result.Panels {
		assert.Equal(t, i, p.ID)
		if i < 45 {
			assert.Equal(t, model.Landscape, p.Orientation)
		} else {
			assert.Equal(t, model.Portrait, p.Orientation)
		}
	}
}

func TestLayout_PortraitLabeling(t *testing.T) {
	result := New(model.DefaultSettings()).Layout(geotest.Square(tokyo, 10))
	require.Equal(t, model.StatusOK, result.Status)

	for _, p := range result.Panels {
		r := panelRect(p)
		switch p.Orientation {
		case model.Landscape:
			assert.Equal(t, 165.0, p.WidthCm)
			assert.Equal(t, 100.0, p.HeightCm)
			assert.InDelta(t, 1.65, r.Max[0]-r.Min[0], 1e-6)
			assert.InDelta(t, 1.0, r.Max[1]-r.Min[1], 1e-6)
		case model.Portrait:
			assert.Equal(t, 100.0, p.WidthCm)
			assert.Equal(t, 165.0, p.HeightCm)
			assert.InDelta(t, 1.0, r.Max[0]-r.Min[0], 1e-6)
			assert.InDelta(t, 1.65, r.Max[1]-r.Min[1], 1e-6)
		}
	}
}

func TestLayout_Containment(t *testing.T) {
	roof := orb.Ring{{0, 0}, {14, 0}, {14, 6}, {6, 6}, {6, 12}, {0, 12}}
	settings := model.DefaultSettings()
	result := New(settings).Layout(toGeo(roof))
	require.Equal(t, model.StatusOK, result.Status)
	require.NotEmpty(t, result.Panels)

	n := len(roof)
	for _, p := range result.Panels {
		for _, c := range p.Corners {
			pt := geo.NewProjector(tokyo).Forward(c.Point())
			assert.True(t, planar.RingContains(roof, pt), "panel %d corner outside roof", p.ID)
			for i := 0; i < n; i++ {
				d := pointSegmentDistance(pt, roof[i], roof[(i+1)%n])
				// Rounded corners are polygonal, so allow the chord sag.
				assert.GreaterOrEqual(t, d, settings.OffsetM()-1e-3, "panel %d too close to edge %d", p.ID, i)
			}
		}
		center := geo.NewProjector(tokyo).Forward(p.Center.Point())
		assert.False(t, center[0] > 6 && center[1] > 6, "panel %d placed in the notch", p.ID)
	}
}

func TestLayout_PassesAreDisjoint(t *testing.T) {
	result := New(model.DefaultSettings()).Layout(geotest.Square(tokyo, 10))
	require.Equal(t, model.StatusOK, result.Status)

	for _, o := range []model.Orientation{model.Landscape, model.Portrait} {
		var rects []orb.Bound
		for _, p := range result.Panels {
			if p.Orientation == o {
				rects = append(rects, panelRect(p))
			}
		}
		for i := range rects {
			for j := i + 1; j < len(rects); j++ {
				a, b := rects[i], rects[j]
				overlap := a.Min[0] < b.Max[0]-1e-6 && b.Min[0] < a.Max[0]-1e-6 &&
					a.Min[1] < b.Max[1]-1e-6 && b.Min[1] < a.Max[1]-1e-6
				assert.False(t, overlap, "%s panels %d and %d overlap", o, i, j)
			}
		}
	}
}

// On a square the grid origin moves inward with the offset without
// creating new columns or rows, so counts never grow. General polygons can
// gain a panel when the origin shifts; see DESIGN.md.
func TestLayout_OffsetMonotonic(t *testing.T) {
	roof := geotest.Square(tokyo, 10)
	prevL, prevP := 1<<30, 1<<30
	for _, offset := range []float64{0, 10, 20, 50, 100, 200} {
		s := model.DefaultSettings()
		s.OffsetCm = offset
		result := New(s).Layout(roof)
		assert.LessOrEqual(t, result.LandscapeCount, prevL, "offset %.0f", offset)
		assert.LessOrEqual(t, result.PortraitCount, prevP, "offset %.0f", offset)
		prevL, prevP = result.LandscapeCount, result.PortraitCount
	}
}

func TestLayout_FewerThanThreePoints(t *testing.T) {
	result := New(model.DefaultSettings()).Layout([]model.GeoPoint{{Lat: 35, Lng: 139}, {Lat: 35.001, Lng: 139}})
	assert.Equal(t, model.StatusInvalidPolygon, result.Status)
	assert.NotNil(t, result.Panels)
	assert.Empty(t, result.Panels)
}

func TestLayout_ZeroArea(t *testing.T) {
	line := []model.GeoPoint{{Lat: 35, Lng: 139}, {Lat: 35.001, Lng: 139}, {Lat: 35.002, Lng: 139}}
	result := New(model.DefaultSettings()).Layout(line)
	assert.Equal(t, model.StatusInvalidPolygon, result.Status)
}

func TestLayout_OffsetTooLarge(t *testing.T) {
	s := model.DefaultSettings()
	s.OffsetCm = 60
	result := New(s).Layout(geotest.Square(tokyo, 1))
	assert.Equal(t, model.StatusOffsetTooLarge, result.Status)
	assert.Empty(t, result.Panels)
}

func TestLayout_NoFit(t *testing.T) {
	s := model.DefaultSettings()
	s.OffsetCm = 45
	result := New(s).Layout(geotest.Square(tokyo, 1))
	assert.Equal(t, model.StatusNoFit, result.Status)
	assert.Empty(t, result.Panels)
	assert.Greater(t, result.UsableAreaM2, 0.0)
}

func TestLayout_TriangleErosion(t *testing.T) {
	tri := orb.Ring{{0, 0}, {12, 0}, {0, 12}}
	s := model.DefaultSettings()
	s.OffsetCm = 50
	result := New(s).Layout(toGeo(tri))
	require.Equal(t, model.StatusOK, result.Status)

	for _, p := range result.Panels {
		for _, c := range p.Corners {
			pt := geo.NewProjector(tokyo).Forward(c.Point())
			// Hypotenuse x + y = 12 must stay at least 0.5 m away.
			assert.GreaterOrEqual(t, (12-pt[0]-pt[1])/1.4142135623730951, 0.5-1e-6)
		}
	}
}

func TestLayout_BoundsFromInput(t *testing.T) {
	roof := geotest.Square(tokyo, 10)
	result := New(model.DefaultSettings()).Layout(roof)
	assert.Equal(t, geo.BoundsOf(roof), result.Bounds)
}

func TestLayout_Deterministic(t *testing.T) {
	planner := New(model.DefaultSettings())
	roof := geotest.Square(tokyo, 10)
	assert.Equal(t, planner.Layout(roof), planner.Layout(roof))
}

func TestLayout_ChamferedCornerKeepsPanels(t *testing.T) {
	sharp := orb.Ring{{0, 0}, {10, 0}, {10, 4}, {4, 4}, {4, 10}, {0, 10}}
	chamfered := orb.Ring{{0, 0}, {9.95, 0}, {10, 0.05}, {10, 4}, {4, 4}, {4, 10}, {0, 10}}

	for _, offset := range []float64{10, 50} {
		s := model.DefaultSettings()
		s.OffsetCm = offset
		want := New(s).Layout(toGeo(sharp))
		got := New(s).Layout(toGeo(chamfered))

		require.Equal(t, model.StatusOK, want.Status, "offset %.0f", offset)
		assert.Equal(t, model.StatusOK, got.Status, "offset %.0f", offset)
		assert.Equal(t, want.PanelCount(), got.PanelCount(), "offset %.0f", offset)
	}
}

func TestLayout_WaistPlacesPanelsOnBothSides(t *testing.T) {
	roof := orb.Ring{
		{0, 0}, {10, 0}, {10, 4.5}, {12, 4.5}, {12, 0}, {22, 0},
		{22, 10}, {12, 10}, {12, 5.5}, {10, 5.5}, {10, 10}, {0, 10},
	}
	s := model.DefaultSettings()
	s.OffsetCm = 60
	result := New(s).Layout(toGeo(roof))
	require.Equal(t, model.StatusOK, result.Status)

	var west, east int
	proj := geo.NewProjector(tokyo)
	for _, p := range result.Panels {
		c := proj.Forward(p.Center.Point())
		assert.False(t, c[0] > 10 && c[0] < 12, "panel %d placed in the corridor", p.ID)
		if c[0] < 11 {
			west++
		} else {
			east++
		}
	}
	assert.Positive(t, west)
	assert.Positive(t, east)
	assert.Greater(t, result.UsableAreaM2, 2*8.8*8.8)
}
