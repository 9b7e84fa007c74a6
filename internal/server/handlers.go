package server

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/piwi3910/SolarLayout/internal/engine"
	"github.com/piwi3910/SolarLayout/internal/export"
	"github.com/piwi3910/SolarLayout/internal/metrics"
	"github.com/piwi3910/SolarLayout/internal/model"
	"github.com/piwi3910/SolarLayout/internal/solar"
)

// locationRequest is the optional site block of a layout request.
type locationRequest struct {
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Address string   `json:"address"`
}

// layoutRequest is the body of calculate-panels and compare-scenarios.
// Omitted numeric fields take the configured defaults.
type layoutRequest struct {
	Polygon     []model.LatLng   `json:"polygon"`
	PanelWidth  *float64         `json:"panel_width"`
	PanelHeight *float64         `json:"panel_height"`
	Offset      *float64         `json:"offset"`
	SpacingM    *float64         `json:"spacing_m"`
	Location    *locationRequest `json:"location"`
}

func (r layoutRequest) settings(defaults model.LayoutSettings) model.LayoutSettings {
	s := defaults
	if r.PanelWidth != nil {
		s.PanelWidthCm = *r.PanelWidth
	}
	if r.PanelHeight != nil {
		s.PanelHeightCm = *r.PanelHeight
	}
	if r.Offset != nil {
		s.OffsetCm = *r.Offset
	}
	if r.SpacingM != nil {
		s.SpacingM = *r.SpacingM
	}
	return s
}

func (r layoutRequest) location(def model.Location) model.Location {
	loc := def
	if r.Location == nil {
		return loc
	}
	if r.Location.Lat != nil {
		loc.Lat = *r.Location.Lat
	}
	if r.Location.Lng != nil {
		loc.Lng = *r.Location.Lng
	}
	loc.Address = r.Location.Address
	return loc
}

// parseLayoutRequest decodes and checks the polygon of a layout request.
func parseLayoutRequest(c *fiber.Ctx) (layoutRequest, error) {
	var req layoutRequest
	if err := c.BodyParser(&req); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}
	if len(req.Polygon) < 3 {
		return req, fmt.Errorf("invalid polygon: at least 3 points required, got %d", len(req.Polygon))
	}
	return req, nil
}

// CalculatePanelsResponse is returned by POST /api/calculate-panels.
type CalculatePanelsResponse struct {
	Status          model.LayoutStatus  `json:"status"`
	Panels          []model.Panel       `json:"panels"`
	PanelCount      int                 `json:"panel_count"`
	LandscapeCount  int                 `json:"landscape_count"`
	PortraitCount   int                 `json:"portrait_count"`
	TotalArea       float64             `json:"total_area"`
	RoofAreaM2      float64             `json:"roof_area_m2"`
	UsableAreaM2    float64             `json:"usable_area_m2"`
	PowerEstimation solar.PowerEstimate `json:"power_estimation"`
	LayoutBounds    model.Bounds        `json:"layout_bounds"`
}

// checkLayout rejects settings the engine must not run with: invalid
// panel sizes, negative offsets or spacing, and grids too large to search
// inside a request.
func checkLayout(polygon []model.GeoPoint, s model.LayoutSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return engine.New(s).CheckGrid(polygon)
}

// runLayout computes one layout and records its outcome.
func runLayout(ctx context.Context, polygon []model.GeoPoint, s model.LayoutSettings) model.LayoutResult {
	start := time.Now()
	result := engine.New(s).Layout(polygon)
	elapsed := time.Since(start)

	metrics.ObserveLayout(result, elapsed)
	LoggerFromCtx(ctx).Info("layout computed",
		"status", result.Status,
		"landscape", result.LandscapeCount,
		"portrait", result.PortraitCount,
		"elapsed", elapsed.String(),
	)
	return result
}

// CalculatePanelsHandler lays out panels on the requested roof and
// estimates the yearly generation at its location.
func CalculatePanelsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := parseLayoutRequest(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		settings := req.settings(deps.Defaults)
		polygon := model.ToGeoPoints(req.Polygon)
		if err := checkLayout(polygon, settings); err != nil {
			return errBadRequest(c, err.Error())
		}
		loc := req.location(deps.Location)
		result := runLayout(c.UserContext(), polygon, settings)

		count := result.PanelCount()
		return c.JSON(CalculatePanelsResponse{
			Status:          result.Status,
			Panels:          result.Panels,
			PanelCount:      count,
			LandscapeCount:  result.LandscapeCount,
			PortraitCount:   result.PortraitCount,
			TotalArea:       float64(count) * settings.PanelAreaM2(),
			RoofAreaM2:      result.RoofAreaM2,
			UsableAreaM2:    result.UsableAreaM2,
			PowerEstimation: solar.CalculatePower(loc.Lat, loc.Lng, count, settings.PanelAreaM2()),
			LayoutBounds:    result.Bounds,
		})
	}
}

// generatePDFRequest is the body of POST /api/generate-pdf.
type generatePDFRequest struct {
	Polygon    []model.LatLng      `json:"polygon"`
	Panels     []model.Panel       `json:"panels"`
	PowerData  solar.PowerEstimate `json:"power_data"`
	MapImage   string              `json:"map_image"`
	Location   model.Location      `json:"location"`
	PanelSpecs export.PanelSpecs   `json:"panel_specs"`
}

// GeneratePDFHandler renders the simulation report and returns it as a
// PDF attachment.
func GeneratePDFHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req generatePDFRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, fmt.Sprintf("invalid request body: %v", err))
		}

		now := deps.now()
		var buf bytes.Buffer
		err := export.WriteReport(&buf, export.ReportInput{
			Polygon:     model.ToGeoPoints(req.Polygon),
			Panels:      req.Panels,
			Power:       req.PowerData,
			MapImage:    req.MapImage,
			Location:    req.Location,
			Specs:       req.PanelSpecs,
			GeneratedAt: now,
		})
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("report generation failed", "error", err)
			return errInternal(c, err.Error())
		}
		metrics.ReportsGenerated.WithLabelValues("pdf").Inc()

		c.Attachment(fmt.Sprintf("solar_simulation_%s.pdf", now.Format("20060102_150405")))
		return c.Send(buf.Bytes())
	}
}

// solarDataRequest is the body of POST /api/get-solar-data.
type solarDataRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// SolarDataHandler returns monthly irradiance figures for a site.
func SolarDataHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req solarDataRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, fmt.Sprintf("invalid request body: %v", err))
		}
		if req.Lat == nil || req.Lng == nil {
			return errBadRequest(c, "latitude and longitude required")
		}
		return c.JSON(solar.IrradianceData(*req.Lat, *req.Lng))
	}
}

// roiRequest is the body of POST /api/calculate-roi.
type roiRequest struct {
	InstallationCost    *float64 `json:"installation_cost"`
	YearlyGenerationKWh *float64 `json:"yearly_generation_kwh"`
	ElectricityPrice    *float64 `json:"electricity_price"`
}

// ROIHandler amortizes an installation cost against yearly savings.
func ROIHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req roiRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, fmt.Sprintf("invalid request body: %v", err))
		}
		if req.InstallationCost == nil || req.YearlyGenerationKWh == nil {
			return errBadRequest(c, "installation_cost and yearly_generation_kwh required")
		}
		if *req.InstallationCost < 0 || *req.YearlyGenerationKWh < 0 {
			return errBadRequest(c, "installation_cost and yearly_generation_kwh must not be negative")
		}
		price := deps.ElectricityPrice
		if req.ElectricityPrice != nil {
			price = *req.ElectricityPrice
		}
		return c.JSON(solar.CalculateROI(*req.InstallationCost, *req.YearlyGenerationKWh, price))
	}
}

// CompareScenariosResponse is returned by POST /api/compare-scenarios.
type CompareScenariosResponse struct {
	Scenarios []engine.ScenarioResult `json:"scenarios"`
	Best      int                     `json:"best"`
	BestName  string                  `json:"best_name,omitempty"`
}

// CompareScenariosHandler lays out the roof under the request settings and
// a set of derived variants.
func CompareScenariosHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := parseLayoutRequest(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		polygon := model.ToGeoPoints(req.Polygon)
		scenarios := engine.BuildDefaultScenarios(req.settings(deps.Defaults))
		for _, sc := range scenarios {
			if err := checkLayout(polygon, sc.Settings); err != nil {
				return errBadRequest(c, fmt.Sprintf("%s: %v", sc.Name, err))
			}
		}
		results := engine.CompareScenarios(polygon, scenarios)
		for _, r := range results {
			metrics.LayoutsTotal.WithLabelValues(string(r.Status)).Inc()
		}

		resp := CompareScenariosResponse{Scenarios: results, Best: engine.Best(results)}
		if resp.Best >= 0 {
			resp.BestName = results[resp.Best].Scenario.Name
		}
		LoggerFromCtx(c.UserContext()).Info("scenarios compared", "count", len(results), "best", resp.BestName)
		return c.JSON(resp)
	}
}
