package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/table"

	"github.com/piwi3910/SolarLayout/internal/geo"
	"github.com/piwi3910/SolarLayout/internal/model"
)

// DXF layer names.
const (
	LayerRoof   = "ROOF"
	LayerPanels = "PANELS"
)

// ExportDXF writes the roof outline and every panel as closed LWPOLYLINEs
// in the local metric frame anchored at the first roof vertex. Units are
// meters, x east and y north.
func ExportDXF(path string, polygon []model.GeoPoint, result model.LayoutResult) error {
	if len(polygon) < 3 {
		return fmt.Errorf("roof outline needs at least 3 points, got %d", len(polygon))
	}

	ring, anchor := geo.Project(polygon)
	proj := geo.NewProjector(anchor)

	d := dxf.NewDrawing()
	if _, err := d.AddLayer(LayerRoof, color.Red, table.LT_CONTINUOUS, true); err != nil {
		return fmt.Errorf("failed to add layer %s: %w", LayerRoof, err)
	}

	roof := make([][]float64, len(ring))
	for i, p := range ring {
		roof[i] = []float64{p[0], p[1]}
	}
	if _, err := d.LwPolyline(true, roof...); err != nil {
		return fmt.Errorf("failed to draw roof outline: %w", err)
	}

	if _, err := d.AddLayer(LayerPanels, color.Cyan, table.LT_CONTINUOUS, true); err != nil {
		return fmt.Errorf("failed to add layer %s: %w", LayerPanels, err)
	}
	for _, panel := range result.Panels {
		corners := make([][]float64, len(panel.Corners))
		for i, c := range panel.Corners {
			p := proj.Forward(c.Point())
			corners[i] = []float64{p[0], p[1]}
		}
		if _, err := d.LwPolyline(true, corners...); err != nil {
			return fmt.Errorf("failed to draw panel %d: %w", panel.ID, err)
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save DXF: %w", err)
	}
	return nil
}
