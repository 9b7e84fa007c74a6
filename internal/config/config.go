// Package config loads service configuration from defaults, an optional
// config.yaml and SOLARLAYOUT_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/piwi3910/SolarLayout/internal/model"
)

// EnvPrefix is prepended to every environment override, e.g.
// SOLARLAYOUT_SERVER_PORT for server.port.
const EnvPrefix = "SOLARLAYOUT"

// Config holds all application configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Layout LayoutConfig `mapstructure:"layout"`
	Solar  SolarConfig  `mapstructure:"solar"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	BodyLimitMB  int    `mapstructure:"body_limit_mb"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LayoutConfig holds the defaults applied to requests that omit a field.
type LayoutConfig struct {
	PanelWidthCm  float64 `mapstructure:"panel_width_cm"`
	PanelHeightCm float64 `mapstructure:"panel_height_cm"`
	OffsetCm      float64 `mapstructure:"offset_cm"`
	SpacingM      float64 `mapstructure:"spacing_m"`
}

// Settings converts the layout defaults into engine settings.
func (l LayoutConfig) Settings() model.LayoutSettings {
	return model.LayoutSettings{
		PanelWidthCm:  l.PanelWidthCm,
		PanelHeightCm: l.PanelHeightCm,
		OffsetCm:      l.OffsetCm,
		SpacingM:      l.SpacingM,
	}
}

type SolarConfig struct {
	DefaultLat       float64 `mapstructure:"default_lat"`
	DefaultLng       float64 `mapstructure:"default_lng"`
	ElectricityPrice float64 `mapstructure:"electricity_price"`
}

// Location returns the default site.
func (s SolarConfig) Location() model.Location {
	return model.Location{Lat: s.DefaultLat, Lng: s.DefaultLng}
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: SOLARLAYOUT_LAYOUT_OFFSET_CM → layout.offset_cm
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration Load produces with no file and no
// environment overrides.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	defaults := model.DefaultSettings()
	home := model.DefaultLocation()

	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.body_limit_mb", 16)
	v.SetDefault("server.allow_origins", "*")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("layout.panel_width_cm", defaults.PanelWidthCm)
	v.SetDefault("layout.panel_height_cm", defaults.PanelHeightCm)
	v.SetDefault("layout.offset_cm", defaults.OffsetCm)
	v.SetDefault("layout.spacing_m", defaults.SpacingM)
	v.SetDefault("solar.default_lat", home.Lat)
	v.SetDefault("solar.default_lng", home.Lng)
	v.SetDefault("solar.electricity_price", 30.0)
}

// Validate checks that configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.BodyLimitMB <= 0 {
		errs = append(errs, "server.body_limit_mb must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}
	if err := c.Layout.Settings().Validate(); err != nil {
		errs = append(errs, "layout: "+err.Error())
	}
	if c.Solar.DefaultLat < -90 || c.Solar.DefaultLat > 90 {
		errs = append(errs, fmt.Sprintf("solar.default_lat must be -90..90, got %g", c.Solar.DefaultLat))
	}
	if c.Solar.DefaultLng < -180 || c.Solar.DefaultLng > 180 {
		errs = append(errs, fmt.Sprintf("solar.default_lng must be -180..180, got %g", c.Solar.DefaultLng))
	}
	if c.Solar.ElectricityPrice < 0 {
		errs = append(errs, "solar.electricity_price must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
