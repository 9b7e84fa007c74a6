package model

// AppConfig holds user-wide preferences and the defaults applied to new projects.
type AppConfig struct {
	// Default layout settings applied to new projects
	DefaultPanelWidthCm  float64 `json:"default_panel_width_cm"`
	DefaultPanelHeightCm float64 `json:"default_panel_height_cm"`
	DefaultOffsetCm      float64 `json:"default_offset_cm"`
	DefaultSpacingM      float64 `json:"default_spacing_m"`
	DefaultPanelPreset   string  `json:"default_panel_preset"`

	// Site and economics
	DefaultLocation        Location `json:"default_location"`
	ElectricityPricePerKWh float64  `json:"electricity_price_per_kwh"`
	InstallCostPerKW       float64  `json:"install_cost_per_kw"`

	// Application preferences
	RecentProjects []string `json:"recent_projects"`
	ReportAuthor   string   `json:"report_author"`
}

// DefaultAppConfig returns an AppConfig populated with defaults
// matching the values from DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultPanelWidthCm:    defaults.PanelWidthCm,
		DefaultPanelHeightCm:   defaults.PanelHeightCm,
		DefaultOffsetCm:        defaults.OffsetCm,
		DefaultSpacingM:        defaults.SpacingM,
		DefaultPanelPreset:     "",
		DefaultLocation:        DefaultLocation(),
		ElectricityPricePerKWh: 30,
		InstallCostPerKW:       250000,
		RecentProjects:         []string{},
	}
}

// ApplyToSettings copies the default values from AppConfig into a LayoutSettings struct.
// This is used when creating a new project so it inherits the user's saved defaults.
func (c AppConfig) ApplyToSettings(s *LayoutSettings) {
	s.PanelWidthCm = c.DefaultPanelWidthCm
	s.PanelHeightCm = c.DefaultPanelHeightCm
	s.OffsetCm = c.DefaultOffsetCm
	s.SpacingM = c.DefaultSpacingM
}

// AddRecentProject moves path to the front of the recent list, keeping at most limit entries.
func (c *AppConfig) AddRecentProject(path string, limit int) {
	recent := []string{path}
	for _, p := range c.RecentProjects {
		if p != path {
			recent = append(recent, p)
		}
	}
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	c.RecentProjects = recent
}

// Normalize resets values a hand-edited or older config file may carry that
// the layout and cost estimates cannot use. It returns the JSON names of the
// fields it reset.
func (c *AppConfig) Normalize() []string {
	d := DefaultAppConfig()
	var reset []string
	fix := func(name string, bad bool, restore func()) {
		if bad {
			restore()
			reset = append(reset, name)
		}
	}

	fix("default_panel_width_cm", !(c.DefaultPanelWidthCm >= MinPanelCm), func() { c.DefaultPanelWidthCm = d.DefaultPanelWidthCm })
	fix("default_panel_height_cm", !(c.DefaultPanelHeightCm >= MinPanelCm), func() { c.DefaultPanelHeightCm = d.DefaultPanelHeightCm })
	fix("default_offset_cm", !(c.DefaultOffsetCm >= 0), func() { c.DefaultOffsetCm = d.DefaultOffsetCm })
	fix("default_spacing_m", !(c.DefaultSpacingM >= 0), func() { c.DefaultSpacingM = d.DefaultSpacingM })
	fix("default_location", !validCoordinate(c.DefaultLocation), func() { c.DefaultLocation = d.DefaultLocation })

	// A zero price or install cost would turn every payback into "never".
	fix("electricity_price_per_kwh", !(c.ElectricityPricePerKWh > 0), func() { c.ElectricityPricePerKWh = d.ElectricityPricePerKWh })
	fix("install_cost_per_kw", !(c.InstallCostPerKW > 0), func() { c.InstallCostPerKW = d.InstallCostPerKW })

	if c.RecentProjects == nil {
		c.RecentProjects = []string{}
	}
	return reset
}

func validCoordinate(l Location) bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}
