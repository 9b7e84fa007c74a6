// Package export renders layout results to PDF reports, QR panel labels,
// spreadsheets and CAD drawings.
package export

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/SolarLayout/internal/geo"
	"github.com/piwi3910/SolarLayout/internal/model"
	"github.com/piwi3910/SolarLayout/internal/solar"
)

// rgb is a fill or stroke color.
type rgb struct {
	R, G, B int
}

var (
	roofColor      = rgb{R: 255, G: 120, B: 120}
	landscapeColor = rgb{R: 33, G: 150, B: 243}
	portraitColor  = rgb{R: 0, G: 188, B: 212}
	barColor       = rgb{R: 76, G: 175, B: 80}
	forecastColor  = rgb{R: 0, G: 128, B: 0}
)

// Page layout constants (A4 portrait in mm).
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginLeft   = 18.0
	marginRight  = 18.0
	marginTop    = 18.0
	marginBottom = 15.0
	contentWidth = pageWidth - marginLeft - marginRight
	reportQRSize = 32.0
)

// PanelSpecs echoes the panel configuration shown on the report.
type PanelSpecs struct {
	Width  float64 `json:"width"`  // cm
	Height float64 `json:"height"` // cm
	Offset float64 `json:"offset"` // cm
}

// ReportInput is everything needed to render a simulation report.
type ReportInput struct {
	Polygon     []model.GeoPoint
	Panels      []model.Panel
	Power       solar.PowerEstimate
	MapImage    string // base64, optionally with a data URL prefix
	Location    model.Location
	Specs       PanelSpecs
	GeneratedAt time.Time
	ReportID    string
}

// reportSummary is encoded into the QR code on the layout page.
type reportSummary struct {
	ReportID   string  `json:"report_id"`
	Panels     int     `json:"panels"`
	YearlyKWh  float64 `json:"yearly_kwh"`
	CapacityKW float64 `json:"capacity_kw"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
}

// ExportPDF writes the simulation report to path.
func ExportPDF(path string, in ReportInput) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := WriteReport(f, in); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteReport renders a two page A4 report: the layout plan with roof and
// panel diagram, then the monthly generation forecast.
func WriteReport(w io.Writer, in ReportInput) error {
	if in.GeneratedAt.IsZero() {
		in.GeneratedAt = time.Now()
	}
	if in.ReportID == "" {
		in.ReportID = uuid.New().String()
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.SetTitle("Solar Panel Layout Plan", false)
	pdf.SetCreator("SolarLayout", false)
	pdf.SetCreationDate(in.GeneratedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	if err := renderLayoutPage(pdf, tr, in); err != nil {
		return err
	}

	pdf.AddPage()
	renderSimulationPage(pdf, tr, in)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// renderLayoutPage draws the title block, optional map image, the vector
// layout diagram, the configuration block and the legend.
func renderLayoutPage(pdf *fpdf.Fpdf, tr func(string) string, in ReportInput) error {
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(contentWidth, 10, "Solar Panel Layout Plan", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+12)
	pdf.CellFormat(contentWidth, 5, "Date: "+in.GeneratedAt.Format("2006-01-02"), "", 0, "L", false, 0, "")
	if in.Location.Address != "" {
		pdf.SetXY(marginLeft, marginTop+17)
		pdf.CellFormat(contentWidth, 5, tr("Location: "+in.Location.Address), "", 0, "L", false, 0, "")
	}

	top := marginTop + 26
	diagramHeight := 150.0
	if in.MapImage != "" {
		drawMapImage(pdf, in.MapImage, marginLeft, top, contentWidth, 80)
		top += 84
		diagramHeight = 70
	}
	drawLayoutDiagram(pdf, in.Polygon, in.Panels, marginLeft, top, contentWidth, diagramHeight)

	y := top + diagramHeight + 8
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Panel Configuration", "", 0, "L", false, 0, "")

	items := []string{
		fmt.Sprintf("Total Panels: %d", len(in.Panels)),
		fmt.Sprintf("Panel Size: %scm x %scm", formatSpec(in.Specs.Width), formatSpec(in.Specs.Height)),
		fmt.Sprintf("Offset: %scm", formatSpec(in.Specs.Offset)),
		fmt.Sprintf("Total Area: %.2f m²", in.Power.PanelInfo.TotalAreaM2),
	}
	pdf.SetFont("Helvetica", "", 11)
	for i, item := range items {
		pdf.SetXY(marginLeft+6, y+9+float64(i)*7)
		pdf.CellFormat(100, 6, tr(item), "", 0, "L", false, 0, "")
	}

	drawLegend(pdf, marginLeft+110, y)

	return drawSummaryQR(pdf, in, pageWidth-marginRight-reportQRSize, pageHeight-marginBottom-reportQRSize)
}

// drawMapImage embeds a base64 encoded PNG or JPEG. A bad image is reported
// on the page instead of failing the report.
func drawMapImage(pdf *fpdf.Fpdf, encoded string, x, y, w, h float64) {
	data, imgType, err := decodeMapImage(encoded)
	if err == nil {
		info := pdf.RegisterImageOptionsReader("map", fpdf.ImageOptions{ImageType: imgType}, bytes.NewReader(data))
		if pdf.Err() {
			err = pdf.Error()
			pdf.ClearError()
		} else if info != nil {
			iw, ih := fitInside(info.Width(), info.Height(), w, h)
			pdf.ImageOptions("map", x+(w-iw)/2, y+(h-ih)/2, iw, ih, false, fpdf.ImageOptions{ImageType: imgType}, 0, "")
			return
		}
	}

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(200, 0, 0)
	pdf.SetXY(x, y+h/2)
	pdf.CellFormat(w, 5, fmt.Sprintf("Map image could not be loaded: %v", err), "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// decodeMapImage strips an optional data URL prefix and sniffs the format.
func decodeMapImage(encoded string) ([]byte, string, error) {
	if i := strings.Index(encoded, ","); i >= 0 {
		encoded = encoded[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64: %w", err)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("unsupported image: %w", err)
	}
	switch format {
	case "png":
		return data, "PNG", nil
	case "jpeg":
		return data, "JPG", nil
	}
	return nil, "", fmt.Errorf("unsupported image format %q", format)
}

func fitInside(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	s := math.Min(maxW/w, maxH/h)
	return w * s, h * s
}

// drawLayoutDiagram draws the roof outline and every panel in the local
// metric frame, north up, scaled to fit the box.
func drawLayoutDiagram(pdf *fpdf.Fpdf, polygon []model.GeoPoint, panels []model.Panel, x, y, w, h float64) {
	pdf.SetDrawColor(180, 180, 180)
	pdf.SetLineWidth(0.2)
	pdf.Rect(x, y, w, h, "D")

	if len(polygon) < 3 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetXY(x, y+h/2-3)
		pdf.CellFormat(w, 6, "No roof outline", "", 0, "C", false, 0, "")
		return
	}

	ring, anchor := geo.Project(polygon)
	proj := geo.NewProjector(anchor)
	bound := ring.Bound()

	pad := 6.0
	spanX := math.Max(bound.Max[0]-bound.Min[0], 1e-6)
	spanY := math.Max(bound.Max[1]-bound.Min[1], 1e-6)
	scale := math.Min((w-2*pad)/spanX, (h-2*pad)/spanY)
	ox := x + (w-spanX*scale)/2
	oy := y + (h+spanY*scale)/2

	toPage := func(p orb.Point) fpdf.PointType {
		return fpdf.PointType{
			X: ox + (p[0]-bound.Min[0])*scale,
			Y: oy - (p[1]-bound.Min[1])*scale,
		}
	}

	pts := make([]fpdf.PointType, len(ring))
	for i, p := range ring {
		pts[i] = toPage(p)
	}
	pdf.SetAlpha(0.3, "Normal")
	pdf.SetFillColor(roofColor.R, roofColor.G, roofColor.B)
	pdf.Polygon(pts, "F")
	pdf.SetAlpha(1, "Normal")
	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Polygon(pts, "D")

	pdf.SetLineWidth(0.15)
	pdf.SetDrawColor(20, 20, 80)
	for _, p := range panels {
		col := landscapeColor
		if p.Orientation == model.Portrait {
			col = portraitColor
		}
		corners := make([]fpdf.PointType, len(p.Corners))
		for i, c := range p.Corners {
			corners[i] = toPage(proj.Forward(c.Point()))
		}
		pdf.SetAlpha(0.45, "Normal")
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Polygon(corners, "F")
		pdf.SetAlpha(1, "Normal")
		pdf.Polygon(corners, "D")
	}

	// Scale bar
	barMeters := niceLength(spanX / 4)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.4)
	bx, by := x+3, y+h-3
	pdf.Line(bx, by, bx+barMeters*scale, by)
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(bx, by-4)
	pdf.CellFormat(20, 3, fmt.Sprintf("%g m", barMeters), "", 0, "L", false, 0, "")

	// North arrow
	nx, ny := x+w-6, y+4
	pdf.Line(nx, ny+8, nx, ny)
	pdf.Line(nx, ny, nx-1.5, ny+2.5)
	pdf.Line(nx, ny, nx+1.5, ny+2.5)
	pdf.SetXY(nx-2, ny+8)
	pdf.CellFormat(4, 3, "N", "", 0, "C", false, 0, "")
}

// niceLength rounds v down to 1, 2 or 5 times a power of ten.
func niceLength(v float64) float64 {
	if v <= 0 {
		return 1
	}
	p := math.Pow(10, math.Floor(math.Log10(v)))
	switch m := v / p; {
	case m >= 5:
		return 5 * p
	case m >= 2:
		return 2 * p
	}
	return p
}

func drawLegend(pdf *fpdf.Fpdf, x, y float64) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(x, y)
	pdf.CellFormat(40, 7, "Legend", "", 0, "L", false, 0, "")

	entries := []struct {
		col   rgb
		label string
	}{
		{roofColor, "Roof Area"},
		{landscapeColor, "Solar Panels (landscape)"},
		{portraitColor, "Solar Panels (portrait)"},
	}
	pdf.SetFont("Helvetica", "", 10)
	for i, e := range entries {
		ey := y + 9 + float64(i)*7
		pdf.SetFillColor(e.col.R, e.col.G, e.col.B)
		pdf.Rect(x+2, ey+1, 7, 3.5, "F")
		pdf.SetXY(x+11, ey)
		pdf.CellFormat(60, 5.5, e.label, "", 0, "L", false, 0, "")
	}
}

// drawSummaryQR places a QR code carrying the report summary as JSON.
func drawSummaryQR(pdf *fpdf.Fpdf, in ReportInput, x, y float64) error {
	data, err := json.Marshal(reportSummary{
		ReportID:   in.ReportID,
		Panels:     len(in.Panels),
		YearlyKWh:  in.Power.YearlyTotalKWh,
		CapacityKW: in.Power.PanelInfo.TotalRatedPowerKW,
		Lat:        in.Location.Lat,
		Lng:        in.Location.Lng,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal report summary: %w", err)
	}

	png, err := qrcode.Encode(string(data), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	pdf.RegisterImageOptionsReader("summary_qr", fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	pdf.ImageOptions("summary_qr", x, y, reportQRSize, reportQRSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(x, y+reportQRSize)
	pdf.CellFormat(reportQRSize, 3, "Report "+shortID(in.ReportID), "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	return nil
}

// renderSimulationPage draws the annual forecast, system specification and
// the monthly generation bar chart.
func renderSimulationPage(pdf *fpdf.Fpdf, tr func(string) string, in ReportInput) {
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(contentWidth, 10, "Power Generation Simulation", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop+16)
	pdf.CellFormat(contentWidth, 8, "Annual Generation Forecast", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(forecastColor.R, forecastColor.G, forecastColor.B)
	pdf.SetXY(marginLeft+6, marginTop+27)
	pdf.CellFormat(contentWidth, 12, formatThousands(in.Power.YearlyTotalKWh)+" kWh/year", "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	y := marginTop + 48
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(contentWidth, 7, "System Specifications", "", 0, "L", false, 0, "")

	info := in.Power.PanelInfo
	specs := []string{
		fmt.Sprintf("Number of Panels: %d", info.Count),
		fmt.Sprintf("Total Panel Area: %.2f m²", info.TotalAreaM2),
		fmt.Sprintf("System Capacity: %.2f kW", info.TotalRatedPowerKW),
		"Panel Efficiency: " + orNA(in.Power.Assumptions.PanelEfficiency),
		"System Efficiency: " + orNA(in.Power.Assumptions.SystemEfficiency),
	}
	pdf.SetFont("Helvetica", "", 11)
	for i, s := range specs {
		pdf.SetXY(marginLeft+6, y+9+float64(i)*7)
		pdf.CellFormat(contentWidth, 6, tr(s), "", 0, "L", false, 0, "")
	}

	y += 52
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(contentWidth, 7, "Monthly Generation Forecast", "", 0, "L", false, 0, "")
	drawMonthlyChart(pdf, in.Power.MonthlyData, marginLeft+12, y+12, contentWidth-16, 70)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, pageHeight-55)
	pdf.CellFormat(contentWidth, 5, fmt.Sprintf("Location: Lat %.4f, Lng %.4f", in.Location.Lat, in.Location.Lng), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(marginLeft, pageHeight-40)
	pdf.CellFormat(contentWidth, 4, "Note: This is a simulation based on average solar irradiance data.", "", 0, "L", false, 0, "")
	pdf.SetXY(marginLeft, pageHeight-35)
	pdf.CellFormat(contentWidth, 4, "Actual generation may vary depending on weather conditions and system maintenance.", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(contentWidth, 4, "Generated by SolarLayout - Solar Panel Layout Planner", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// drawMonthlyChart draws one bar per month scaled to the largest month.
// The box origin is its top-left corner.
func drawMonthlyChart(pdf *fpdf.Fpdf, months []solar.MonthlyGeneration, x, y, w, h float64) {
	baseY := y + h
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.3)
	pdf.Line(x, baseY, x+w, baseY)
	pdf.Line(x, baseY, x, y)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(x-14, y+h/2-2)
	pdf.CellFormat(12, 4, "kWh", "", 0, "R", false, 0, "")

	if len(months) == 0 {
		return
	}

	maxGen := 0.0
	for _, m := range months {
		maxGen = math.Max(maxGen, m.GenerationKWh)
	}

	barW := w / float64(len(months))
	pdf.SetFont("Helvetica", "", 7)
	for i, m := range months {
		barH := 0.0
		if maxGen > 0 {
			barH = m.GenerationKWh / maxGen * (h - 6)
		}
		bx := x + float64(i)*barW

		pdf.SetFillColor(barColor.R, barColor.G, barColor.B)
		pdf.Rect(bx+1.5, baseY-barH, barW-3, barH, "F")

		pdf.SetXY(bx, baseY+1)
		pdf.CellFormat(barW, 4, fmt.Sprintf("%d", m.Month), "", 0, "C", false, 0, "")
		pdf.SetXY(bx, baseY-barH-4)
		pdf.CellFormat(barW, 4, fmt.Sprintf("%.0f", m.GenerationKWh), "", 0, "C", false, 0, "")
	}
}

// formatSpec prints a dimension without trailing zeros, or N/A when unset.
func formatSpec(v float64) string {
	if v == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%g", v)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// formatThousands formats v rounded to an integer with comma separators.
func formatThousands(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
