package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SolarLayout/internal/config"
	"github.com/piwi3910/SolarLayout/internal/geo/geotest"
	"github.com/piwi3910/SolarLayout/internal/model"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := config.Default()
	deps := NewDependencies(cfg)
	deps.Now = func() time.Time { return fixedNow }
	return NewApp(cfg, deps)
}

// squareRoof returns a 10 m square roof in wire form.
func squareRoof() []model.LatLng {
	pts := geotest.Square(model.GeoPoint{Lat: 35.6762, Lng: 139.6503}, 10)
	out := make([]model.LatLng, len(pts))
	for i, p := range pts {
		out[i] = p.LatLng()
	}
	return out
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// ─── Health ────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "2026-03-14T09:26:53Z", body["timestamp"])
}

// ─── Calculate panels ──────────────────────────────────────

func TestCalculatePanels_SquareRoofDefaults(t *testing.T) {
	app := newTestApp(t)
	resp := postJSON(t, app, "/api/calculate-panels", fiber.Map{"polygon": squareRoof()})
	assert.Equal(t, 200, resp.StatusCode)

	var body CalculatePanelsResponse
	decode(t, resp, &body)
	assert.Equal(t, model.StatusOK, body.Status)
	assert.Equal(t, 90, body.PanelCount)
	assert.Equal(t, 45, body.LandscapeCount)
	assert.Equal(t, 45, body.PortraitCount)
	assert.Len(t, body.Panels, 90)
	assert.InDelta(t, 90*1.65, body.TotalArea, 1e-9)
	assert.Equal(t, 90, body.PowerEstimation.PanelInfo.Count)
	assert.Len(t, body.PowerEstimation.MonthlyData, 12)
	assert.InDelta(t, 35.6762, body.PowerEstimation.Assumptions.Location.Latitude, 1e-9)
	assert.Greater(t, body.LayoutBounds.North, body.LayoutBounds.South)
}

func TestCalculatePanels_CustomSettingsAndLocation(t *testing.T) {
	app := newTestApp(t)
	resp := postJSON(t, app, "/api/calculate-panels", fiber.Map{
		"polygon":      squareRoof(),
		"panel_width":  200,
		"panel_height": 100,
		"offset":       0,
		"location":     fiber.Map{"lat": 43.06, "lng": 141.35},
	})
	assert.Equal(t, 200, resp.StatusCode)

	var body CalculatePanelsResponse
	decode(t, resp, &body)
	assert.Equal(t, model.StatusOK, body.Status)
	assert.InDelta(t, float64(body.PanelCount)*2.0, body.TotalArea, 1e-9)
	assert.InDelta(t, 43.06, body.PowerEstimation.Assumptions.Location.Latitude, 1e-9)
}

func TestCalculatePanels_OffsetTooLarge(t *testing.T) {
	app := newTestApp(t)
	resp := postJSON(t, app, "/api/calculate-panels", fiber.Map{
		"polygon": squareRoof(),
		"offset":  600,
	})
	assert.Equal(t, 200, resp.StatusCode)

	var body CalculatePanelsResponse
	decode(t, resp, &body)
	assert.Equal(t, model.StatusOffsetTooLarge, body.Status)
	assert.Equal(t, 0, body.PanelCount)
	assert.NotNil(t, body.Panels)
}

func TestCalculatePanels_TooFewPoints(t *testing.T) {
	app := newTestApp(t)
	resp := postJSON(t, app, "/api/calculate-panels", fiber.Map{
		"polygon": []model.LatLng{{35, 139}, {35, 139.001}},
	})
	assert.Equal(t, 400, resp.StatusCode)

	var body APIError
	decode(t, resp, &body)
	assert.Equal(t, "bad_request", body.Code)
	assert.Contains(t, body.Message, "at least 3 points")
	assert.NotEmpty(t, body.RequestID)
}

func TestCalculatePanels_InvalidJSON(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest("POST", "/api/calculate-panels", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestCalculatePanels_RejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   float64
		message string
	}{
		{"negative width", "panel_width", -165, "must be positive"},
		{"zero height", "panel_height", 0, "must be positive"},
		{"tiny panel", "panel_width", 0.05, "at least"},
		{"negative offset", "offset", -10, "offset"},
		{"negative spacing", "spacing_m", -0.05, "spacing"},
	}

	app := newTestApp(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, app, "/api/calculate-panels", fiber.Map{
				"polygon": squareRoof(),
				tt.field:  tt.value,
			})
			assert.Equal(t, 400, resp.StatusCode)

			var body APIError
			decode(t, resp, &body)
			assert.Equal(t, "bad_request", body.Code)
			assert.Contains(t, body.Message, tt.message)
		})
	}
}

func TestCalculatePanels_RejectsOversizedGrid(t *testing.T) {
	pts := geotest.Square(model.GeoPoint{Lat: 35.6762, Lng: 139.6503}, 1000)
	roof := make([]model.LatLng, len(pts))
	for i, p := range pts {
		roof[i] = p.LatLng()
	}

	app := newTestApp(t)
	resp := postJSON(t, app, "/api/calculate-panels", fiber.Map{
		"polygon":      roof,
		"panel_width":  model.MinPanelCm,
		"panel_height": model.MinPanelCm,
		"spacing_m":    0,
	})
	assert.Equal(t, 400, resp.StatusCode)

	var body APIError
	decode(t, resp, &body)
	assert.Contains(t, body.Message, "grid too large")
}

// ─── Generate PDF ──────────────────────────────────────────

func TestGeneratePDF_ReturnsAttachment(t *testing.T) {
	app := newTestApp(t)

	calc := postJSON(t, app, "/api/calculate-panels", fiber.Map{"polygon": squareRoof()})
	var layout CalculatePanelsResponse
	decode(t, calc, &layout)

	resp := postJSON(t, app, "/api/generate-pdf", fiber.Map{
		"polygon":     squareRoof(),
		"panels":      layout.Panels,
		"power_data":  layout.PowerEstimation,
		"location":    fiber.Map{"lat": 35.6762, "lng": 139.6503, "address": "Tokyo"},
		"panel_specs": fiber.Map{"width": 165, "height": 100, "offset": 10},
	})
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "solar_simulation_20260314_092653.pdf")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

// ─── Solar data ────────────────────────────────────────────

func TestSolarData(t *testing.T) {
	app := newTestApp(t)
	resp := postJSON(t, app, "/api/get-solar-data", fiber.Map{"lat": 35.6762, "lng": 139.6503})
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Len(t, body["monthly_data"], 12)
	assert.Contains(t, body, "annual_total_kwh_m2")
}

func TestSolarData_MissingCoordinate(t *testing.T) {
	app := newTestApp(t)
	resp := postJSON(t, app, "/api/get-solar-data", fiber.Map{"lat": 35.0})
	assert.Equal(t, 400, resp.StatusCode)
}

// ─── ROI ───────────────────────────────────────────────────

func TestROI_DefaultPrice(t *testing.T) {
	app := newTestApp(t)
	resp := postJSON(t, app, "/api/calculate-roi", fiber.Map{
		"installation_cost":     1000000,
		"yearly_generation_kwh": 4000,
	})
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]interface{}
	decode(t, resp, &body)
	assert.InDelta(t, 8.3, body["payback_period_years"], 1e-9)
	assert.InDelta(t, 120000.0, body["yearly_savings_yen"], 1e-9)
	assert.Len(t, body["yearly_data"], 10)
}

func TestROI_MissingFields(t *testing.T) {
	app := newTestApp(t)
	resp := postJSON(t, app, "/api/calculate-roi", fiber.Map{"installation_cost": 1000})
	assert.Equal(t, 400, resp.StatusCode)
}

// ─── Compare scenarios ─────────────────────────────────────

func TestCompareScenarios(t *testing.T) {
	app := newTestApp(t)
	resp := postJSON(t, app, "/api/compare-scenarios", fiber.Map{"polygon": squareRoof()})
	assert.Equal(t, 200, resp.StatusCode)

	var body struct {
		Scenarios []struct {
			Scenario struct {
				Name string `json:"name"`
			} `json:"scenario"`
			PanelCount int `json:"panel_count"`
		} `json:"scenarios"`
		Best     int    `json:"best"`
		BestName string `json:"best_name"`
	}
	decode(t, resp, &body)
	require.Len(t, body.Scenarios, 4)
	assert.Equal(t, "Current Settings", body.Scenarios[0].Scenario.Name)
	assert.Equal(t, 90, body.Scenarios[0].PanelCount)
	require.GreaterOrEqual(t, body.Best, 0)
	assert.Equal(t, body.Scenarios[body.Best].Scenario.Name, body.BestName)
	for _, s := range body.Scenarios {
		assert.LessOrEqual(t, s.PanelCount, body.Scenarios[body.Best].PanelCount)
	}
}

func TestCompareScenarios_RejectsInvalidSettings(t *testing.T) {
	app := newTestApp(t)
	resp := postJSON(t, app, "/api/compare-scenarios", fiber.Map{
		"polygon":     squareRoof(),
		"panel_width": -165,
	})
	assert.Equal(t, 400, resp.StatusCode)

	var body APIError
	decode(t, resp, &body)
	assert.Equal(t, "bad_request", body.Code)
	assert.Contains(t, body.Message, "Current Settings")
}

// ─── Routing ───────────────────────────────────────────────

func TestUnknownRouteReturnsAPIError(t *testing.T) {
	app := newTestApp(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/api/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	var body APIError
	decode(t, resp, &body)
	assert.Equal(t, "not_found", body.Code)
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "https://example.bubbleapps.io")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	postJSON(t, app, "/api/calculate-panels", fiber.Map{"polygon": squareRoof()})

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "solarlayout_layout_computed_total")
}
