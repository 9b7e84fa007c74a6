package model

import "math"

// CoverageEstimate compares a layout against the area it was laid out on.
type CoverageEstimate struct {
	RoofArea        float64 `json:"roof_area_m2"`        // Area of the roof polygon (m²)
	UsableArea      float64 `json:"usable_area_m2"`      // Area left after the edge offset (m²)
	PanelArea       float64 `json:"panel_area_m2"`       // Area of one panel (m²)
	PlacedPanels    int     `json:"placed_panels"`       // Panels placed by the layout
	AreaUpperBound  int     `json:"area_upper_bound"`    // floor(usable / panel area), ignores shape
	CoveragePercent float64 `json:"coverage_percent"`    // Placed panel area / roof area
	FillPercent     float64 `json:"fill_percent"`        // Placed panels / area upper bound
	RatedPowerKW    float64 `json:"rated_power_kw"`      // Placed panels × rated power per panel
	EstimatedCost   float64 `json:"estimated_cost"`      // Rated kW × installed cost per kW
	CostPerKW       float64 `json:"install_cost_per_kw"` // Cost used for the estimate
}

// CalculateCoverage summarizes how much of a roof a layout uses. The area
// upper bound is a quick sanity figure; the real count also depends on shape.
func CalculateCoverage(roofArea, usableArea float64, placed int, settings LayoutSettings, ratedWPerPanel, costPerKW float64) CoverageEstimate {
	panelArea := settings.PanelAreaM2()
	est := CoverageEstimate{
		RoofArea:     roofArea,
		UsableArea:   usableArea,
		PanelArea:    panelArea,
		PlacedPanels: placed,
		CostPerKW:    costPerKW,
	}

	if panelArea <= 0 {
		return est
	}

	est.AreaUpperBound = int(math.Floor(usableArea / panelArea))
	if roofArea > 0 {
		est.CoveragePercent = float64(placed) * panelArea / roofArea * 100.0
	}
	if est.AreaUpperBound > 0 {
		est.FillPercent = float64(placed) / float64(est.AreaUpperBound) * 100.0
	}

	est.RatedPowerKW = float64(placed) * ratedWPerPanel / 1000
	est.EstimatedCost = est.RatedPowerKW * costPerKW
	return est
}
