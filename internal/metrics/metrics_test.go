package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SolarLayout/internal/model"
)

func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/metrics", Handler())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	ObserveLayout(model.LayoutResult{Status: model.StatusOK, Panels: make([]model.Panel, 4)}, time.Millisecond)
	ObserveLayout(model.LayoutResult{Status: model.StatusNoFit}, 2*time.Millisecond)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "solarlayout_http_requests_total")
	assert.Contains(t, string(body), `solarlayout_layout_computed_total{status="ok"}`)
	assert.Contains(t, string(body), `solarlayout_layout_computed_total{status="no_fit"}`)
	assert.Contains(t, string(body), "solarlayout_layout_panels_placed_bucket")
}
