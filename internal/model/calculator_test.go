package model

import (
	"math"
	"testing"
)

func TestCalculateCoverageBasic(t *testing.T) {
	s := DefaultSettings() // 165 x 100 cm = 1.65 m²
	est := CalculateCoverage(100, 96.04, 45, s, 330, 250000)

	if math.Abs(est.PanelArea-1.65) > 1e-9 {
		t.Errorf("expected panel area 1.65, got %f", est.PanelArea)
	}
	if est.AreaUpperBound != 58 {
		t.Errorf("expected area upper bound 58, got %d", est.AreaUpperBound)
	}
	if math.Abs(est.CoveragePercent-74.25) > 1e-6 {
		t.Errorf("expected coverage 74.25%%, got %f", est.CoveragePercent)
	}
	if math.Abs(est.RatedPowerKW-14.85) > 1e-9 {
		t.Errorf("expected 14.85 kW, got %f", est.RatedPowerKW)
	}
	if math.Abs(est.EstimatedCost-14.85*250000) > 1e-6 {
		t.Errorf("unexpected cost %f", est.EstimatedCost)
	}
}

func TestCalculateCoverageZeroRoof(t *testing.T) {
	est := CalculateCoverage(0, 0, 0, DefaultSettings(), 330, 0)
	if est.AreaUpperBound != 0 {
		t.Errorf("expected 0 upper bound, got %d", est.AreaUpperBound)
	}
	if est.CoveragePercent != 0 || est.FillPercent != 0 {
		t.Errorf("expected zero percentages, got %f / %f", est.CoveragePercent, est.FillPercent)
	}
}

func TestCalculateCoverageZeroPanelArea(t *testing.T) {
	s := LayoutSettings{}
	est := CalculateCoverage(50, 40, 0, s, 0, 0)
	if est.AreaUpperBound != 0 {
		t.Errorf("expected 0 upper bound for zero panel area, got %d", est.AreaUpperBound)
	}
	if est.RoofArea != 50 {
		t.Errorf("roof area should still be reported, got %f", est.RoofArea)
	}
}
