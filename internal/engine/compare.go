package engine

import (
	"fmt"

	"github.com/piwi3910/SolarLayout/internal/model"
)

// Scenario defines a named set of settings to compare.
type Scenario struct {
	Name     string               `json:"name"`
	Settings model.LayoutSettings `json:"settings"`
}

// ScenarioResult holds the layout and summary figures for one scenario.
type ScenarioResult struct {
	Scenario        Scenario           `json:"scenario"`
	Result          model.LayoutResult `json:"-"`
	Status          model.LayoutStatus `json:"status"`
	PanelCount      int                `json:"panel_count"`
	LandscapeCount  int                `json:"landscape_count"`
	PortraitCount   int                `json:"portrait_count"`
	PanelAreaM2     float64            `json:"panel_area_m2"`
	UsableAreaM2    float64            `json:"usable_area_m2"`
	CoveragePercent float64            `json:"coverage_percent"`
}

// CompareScenarios lays out the same roof once per scenario and returns the
// results in scenario order.
func CompareScenarios(polygon []model.GeoPoint, scenarios []Scenario) []ScenarioResult {
	results := make([]ScenarioResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		result := New(scenario.Settings).Layout(polygon)

		sr := ScenarioResult{
			Scenario:       scenario,
			Result:         result,
			Status:         result.Status,
			PanelCount:     result.PanelCount(),
			LandscapeCount: result.LandscapeCount,
			PortraitCount:  result.PortraitCount,
			PanelAreaM2:    result.TotalPanelAreaM2(),
			UsableAreaM2:   result.UsableAreaM2,
		}
		if result.RoofAreaM2 > 0 {
			sr.CoveragePercent = sr.PanelAreaM2 / result.RoofAreaM2 * 100
		}
		results = append(results, sr)
	}

	return results
}

// Best returns the index of the scenario with the most panels, preferring
// the earlier scenario on ties. It returns -1 for an empty slice.
func Best(results []ScenarioResult) int {
	best := -1
	for i, r := range results {
		if best < 0 || r.PanelCount > results[best].PanelCount {
			best = i
		}
	}
	return best
}

// BuildDefaultScenarios generates what-if alternatives around the current
// settings.
func BuildDefaultScenarios(base model.LayoutSettings) []Scenario {
	scenarios := []Scenario{
		{Name: "Current Settings", Settings: base},
	}

	// Scenario: No edge offset
	if base.OffsetCm > 0 {
		noOffset := base
		noOffset.OffsetCm = 0
		scenarios = append(scenarios, Scenario{
			Name:     "No Edge Offset",
			Settings: noOffset,
		})
	}

	// Scenario: Fire-code setback
	if base.OffsetCm < 50 {
		setback := base
		setback.OffsetCm = 50
		scenarios = append(scenarios, Scenario{
			Name:     "Offset 50cm (setback)",
			Settings: setback,
		})
	}

	// Scenario: Tighter spacing
	if base.SpacingM > 0.01 {
		tight := base
		tight.SpacingM = base.SpacingM * 0.5
		scenarios = append(scenarios, Scenario{
			Name:     fmt.Sprintf("Spacing %.1fcm (half)", tight.SpacingM*100),
			Settings: tight,
		})
	}

	return scenarios
}
