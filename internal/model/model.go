package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GeoPoint is a WGS 84 coordinate in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LatLng returns the point in the [lat, lng] pair form used by the HTTP API.
func (g GeoPoint) LatLng() LatLng {
	return LatLng{g.Lat, g.Lng}
}

// LatLng is a [latitude, longitude] pair. It is the wire form of a vertex or
// corner in API requests and responses.
type LatLng [2]float64

// Point converts the pair to a GeoPoint.
func (l LatLng) Point() GeoPoint {
	return GeoPoint{Lat: l[0], Lng: l[1]}
}

// ToGeoPoints converts wire pairs into GeoPoints.
func ToGeoPoints(pairs []LatLng) []GeoPoint {
	out := make([]GeoPoint, len(pairs))
	for i, p := range pairs {
		out[i] = p.Point()
	}
	return out
}

// Orientation is the panel orientation used during tiling.
type Orientation string

const (
	Landscape Orientation = "landscape" // Configured width along the x (east) axis
	Portrait  Orientation = "portrait"  // Configured width along the y (north) axis
)

// Panel is one placed solar panel. Corners run counter-clockwise starting at
// the south-west corner of the rectangle in the local frame.
type Panel struct {
	ID          int         `json:"id"`
	Center      LatLng      `json:"center"`
	Corners     [4]LatLng   `json:"corners"`
	Orientation Orientation `json:"orientation"`
	WidthCm     float64     `json:"width_cm"`
	HeightCm    float64     `json:"height_cm"`
}

// AreaM2 returns the panel area in square meters.
func (p Panel) AreaM2() float64 {
	return p.WidthCm * p.HeightCm / 10000
}

// Bounds summarizes the extent of the roof polygon.
type Bounds struct {
	North  float64  `json:"north"`
	South  float64  `json:"south"`
	East   float64  `json:"east"`
	West   float64  `json:"west"`
	Center GeoPoint `json:"center"`
}

// LayoutStatus tells a caller why a layout holds the panels it holds.
type LayoutStatus string

const (
	StatusOK             LayoutStatus = "ok"
	StatusInvalidPolygon LayoutStatus = "invalid_polygon"  // Fewer than 3 distinct vertices, or zero area
	StatusOffsetTooLarge LayoutStatus = "offset_too_large" // Shrunk roof is empty or ill-defined
	StatusNoFit          LayoutStatus = "no_fit"           // Shrunk roof is valid but no panel fits
)

// LayoutResult holds the output of one layout run.
type LayoutResult struct {
	Status         LayoutStatus `json:"status"`
	Panels         []Panel      `json:"panels"`
	Bounds         Bounds       `json:"layout_bounds"`
	LandscapeCount int          `json:"landscape_count"`
	PortraitCount  int          `json:"portrait_count"`
	RoofAreaM2     float64      `json:"roof_area_m2"`
	UsableAreaM2   float64      `json:"usable_area_m2"`
}

// PanelCount returns the number of placed panels.
func (r LayoutResult) PanelCount() int {
	return len(r.Panels)
}

// TotalPanelAreaM2 returns the summed area of all placed panels.
func (r LayoutResult) TotalPanelAreaM2() float64 {
	var total float64
	for _, p := range r.Panels {
		total += p.AreaM2()
	}
	return total
}

// LayoutSettings holds the panel and clearance configuration for a layout.
type LayoutSettings struct {
	PanelWidthCm  float64 `json:"panel_width"`  // Landscape width (cm)
	PanelHeightCm float64 `json:"panel_height"` // Landscape height (cm)
	OffsetCm      float64 `json:"offset"`       // Clearance from the roof edge (cm)
	SpacingM      float64 `json:"spacing_m"`    // Gap between neighbouring panels (m)
}

// PanelWidthM returns the configured panel width in meters.
func (s LayoutSettings) PanelWidthM() float64 { return s.PanelWidthCm / 100 }

// PanelHeightM returns the configured panel height in meters.
func (s LayoutSettings) PanelHeightM() float64 { return s.PanelHeightCm / 100 }

// OffsetM returns the edge clearance in meters.
func (s LayoutSettings) OffsetM() float64 { return s.OffsetCm / 100 }

// PanelAreaM2 returns the area of a single panel in square meters.
func (s LayoutSettings) PanelAreaM2() float64 {
	return s.PanelWidthCm * s.PanelHeightCm / 10000
}

// MinPanelCm is the smallest panel side accepted for a layout.
const MinPanelCm = 10

// Validate reports settings a caller must reject before laying out panels.
func (s LayoutSettings) Validate() error {
	if s.PanelWidthCm <= 0 || s.PanelHeightCm <= 0 {
		return fmt.Errorf("panel dimensions must be positive, got %.1f x %.1f cm", s.PanelWidthCm, s.PanelHeightCm)
	}
	if s.PanelWidthCm < MinPanelCm || s.PanelHeightCm < MinPanelCm {
		return fmt.Errorf("panel sides must be at least %d cm, got %.1f x %.1f cm", MinPanelCm, s.PanelWidthCm, s.PanelHeightCm)
	}
	if s.OffsetCm < 0 {
		return fmt.Errorf("offset must not be negative, got %.1f cm", s.OffsetCm)
	}
	if s.SpacingM < 0 {
		return fmt.Errorf("spacing must not be negative, got %.3f m", s.SpacingM)
	}
	return nil
}

// DefaultSpacingM is the gap left between neighbouring panels.
const DefaultSpacingM = 0.05

func DefaultSettings() LayoutSettings {
	return LayoutSettings{
		PanelWidthCm:  165,
		PanelHeightCm: 100,
		OffsetCm:      10,
		SpacingM:      DefaultSpacingM,
	}
}

// Location is the installation site used for irradiance lookups.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// DefaultLocation is central Tokyo.
func DefaultLocation() Location {
	return Location{Lat: 35.6762, Lng: 139.6503}
}

// Project ties a roof, its settings and the last layout together for save/load.
type Project struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	CreatedAt string         `json:"created_at"`
	Roof      []GeoPoint     `json:"roof"`
	Location  Location       `json:"location"`
	Settings  LayoutSettings `json:"settings"`
	Result    *LayoutResult  `json:"result,omitempty"`
}

func NewProject() Project {
	return Project{
		ID:        uuid.New().String()[:8],
		Name:      "Untitled",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Roof:      []GeoPoint{},
		Location:  DefaultLocation(),
		Settings:  DefaultSettings(),
	}
}
