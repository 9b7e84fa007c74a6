package server

import (
	"time"

	"github.com/piwi3910/SolarLayout/internal/config"
	"github.com/piwi3910/SolarLayout/internal/model"
)

// Dependencies carries the defaults handlers fall back to when a request
// omits a field.
type Dependencies struct {
	Defaults         model.LayoutSettings
	Location         model.Location
	ElectricityPrice float64
	Now              func() time.Time
}

// NewDependencies derives handler defaults from the service configuration.
func NewDependencies(cfg *config.Config) *Dependencies {
	return &Dependencies{
		Defaults:         cfg.Layout.Settings(),
		Location:         cfg.Solar.Location(),
		ElectricityPrice: cfg.Solar.ElectricityPrice,
		Now:              time.Now,
	}
}

func (d *Dependencies) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}
