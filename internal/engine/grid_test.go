package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SolarLayout/internal/geo/geotest"
	"github.com/piwi3910/SolarLayout/internal/model"
)

func TestGridCells_TenMeterSquare(t *testing.T) {
	s := model.DefaultSettings()
	s.SpacingM = 0
	s.PanelWidthCm, s.PanelHeightCm = 300, 150

	// 4 x 7 landscape and 7 x 4 portrait positions.
	assert.InDelta(t, 56.0, GridCells(geotest.Square(tokyo, 10), s), 1e-9)
}

func TestGridCells_Degenerate(t *testing.T) {
	assert.Zero(t, GridCells(nil, model.DefaultSettings()))

	s := model.DefaultSettings()
	s.PanelWidthCm = 0
	assert.Zero(t, GridCells(geotest.Square(tokyo, 10), s))
}

func TestCheckGrid(t *testing.T) {
	require.NoError(t, New(model.DefaultSettings()).CheckGrid(geotest.Square(tokyo, 10)))

	s := model.DefaultSettings()
	s.PanelWidthCm, s.PanelHeightCm, s.SpacingM = model.MinPanelCm, model.MinPanelCm, 0
	err := New(s).CheckGrid(geotest.Square(tokyo, 1000))
	assert.ErrorIs(t, err, ErrGridTooLarge)
}
