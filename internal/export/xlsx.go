package export

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/SolarLayout/internal/model"
	"github.com/piwi3910/SolarLayout/internal/solar"
)

// Sheet names of the exported workbook.
const (
	SheetPanels  = "Panels"
	SheetMonthly = "Monthly"
	SheetSummary = "Summary"
)

var panelHeaders = []interface{}{
	"ID", "Orientation", "Width (cm)", "Height (cm)",
	"Center Lat", "Center Lng", "SW Lat", "SW Lng", "NE Lat", "NE Lng",
}

var monthlyHeaders = []interface{}{"Month", "Name", "Daily Irradiance (Wh/m2)", "Generation (kWh)"}

// ExportXLSX writes the layout and power estimate to an Excel workbook at
// path.
func ExportXLSX(path string, result model.LayoutResult, power solar.PowerEstimate) error {
	f, err := buildWorkbook(result, power)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// WriteXLSX streams the workbook to w.
func WriteXLSX(w io.Writer, result model.LayoutResult, power solar.PowerEstimate) error {
	f, err := buildWorkbook(result, power)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func buildWorkbook(result model.LayoutResult, power solar.PowerEstimate) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetPanels); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetMonthly, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6E6E6"}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	steps := []func(*excelize.File, int) error{
		func(f *excelize.File, style int) error { return writePanelsSheet(f, style, result) },
		func(f *excelize.File, style int) error { return writeMonthlySheet(f, style, power) },
		func(f *excelize.File, style int) error { return writeSummarySheet(f, style, result, power) },
	}
	for _, step := range steps {
		if err := step(f, header); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writePanelsSheet(f *excelize.File, style int, result model.LayoutResult) error {
	if err := writeHeader(f, SheetPanels, style, panelHeaders); err != nil {
		return err
	}
	for i, p := range result.Panels {
		row := []interface{}{
			p.ID, string(p.Orientation), p.WidthCm, p.HeightCm,
			p.Center[0], p.Center[1],
			p.Corners[0][0], p.Corners[0][1],
			p.Corners[2][0], p.Corners[2][1],
		}
		if err := setRow(f, SheetPanels, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetPanels, "E", "J", 14)
}

func writeMonthlySheet(f *excelize.File, style int, power solar.PowerEstimate) error {
	if err := writeHeader(f, SheetMonthly, style, monthlyHeaders); err != nil {
		return err
	}
	for i, m := range power.MonthlyData {
		row := []interface{}{m.Month, solar.MonthName(m.Month), m.DailyIrradiance, m.GenerationKWh}
		if err := setRow(f, SheetMonthly, i+2, row); err != nil {
			return err
		}
	}

	totalRow := len(power.MonthlyData) + 2
	if err := setRow(f, SheetMonthly, totalRow, []interface{}{"Total"}); err != nil {
		return err
	}
	cell, _ := excelize.CoordinatesToCellName(4, totalRow)
	formula := fmt.Sprintf("SUM(D2:D%d)", totalRow-1)
	if err := f.SetCellFormula(SheetMonthly, cell, formula); err != nil {
		return fmt.Errorf("failed to set total formula: %w", err)
	}
	return f.SetColWidth(SheetMonthly, "C", "D", 22)
}

func writeSummarySheet(f *excelize.File, style int, result model.LayoutResult, power solar.PowerEstimate) error {
	if err := writeHeader(f, SheetSummary, style, []interface{}{"Item", "Value"}); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Status", string(result.Status)},
		{"Panel Count", result.PanelCount()},
		{"Landscape Panels", result.LandscapeCount},
		{"Portrait Panels", result.PortraitCount},
		{"Roof Area (m2)", round2(result.RoofAreaM2)},
		{"Usable Area (m2)", round2(result.UsableAreaM2)},
		{"Panel Area (m2)", round2(result.TotalPanelAreaM2())},
		{"Yearly Generation (kWh)", power.YearlyTotalKWh},
		{"System Capacity (kW)", power.PanelInfo.TotalRatedPowerKW},
		{"System Efficiency", power.Assumptions.SystemEfficiency},
		{"Panel Efficiency", power.Assumptions.PanelEfficiency},
	}
	for i, row := range rows {
		if err := setRow(f, SheetSummary, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetSummary, "A", "A", 26)
}

func writeHeader(f *excelize.File, sheet string, style int, headers []interface{}) error {
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
