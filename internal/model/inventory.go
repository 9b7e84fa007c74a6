package model

import "github.com/google/uuid"

// PanelPreset represents a reusable solar module definition.
type PanelPreset struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	WidthCm      float64 `json:"width_cm"`
	HeightCm     float64 `json:"height_cm"`
	RatedPowerW  float64 `json:"rated_power_w"`
	PricePerUnit float64 `json:"price_per_unit"` // 0 if not set
}

// NewPanelPreset creates a new PanelPreset with a generated ID.
func NewPanelPreset(name string, widthCm, heightCm, ratedW float64) PanelPreset {
	return PanelPreset{
		ID:          uuid.New().String()[:8],
		Name:        name,
		WidthCm:     widthCm,
		HeightCm:    heightCm,
		RatedPowerW: ratedW,
	}
}

// ApplyToSettings copies this preset's dimensions into the given LayoutSettings.
func (pp PanelPreset) ApplyToSettings(s *LayoutSettings) {
	s.PanelWidthCm = pp.WidthCm
	s.PanelHeightCm = pp.HeightCm
}

// AreaM2 returns the module area in square meters.
func (pp PanelPreset) AreaM2() float64 {
	return pp.WidthCm * pp.HeightCm / 10000
}

// Inventory holds the user's saved panel presets.
type Inventory struct {
	Panels []PanelPreset `json:"panels"`
}

// DefaultInventory returns an inventory populated with common module sizes.
// The built-in presets carry fixed IDs so backups and imports from another
// machine merge without duplicating them.
func DefaultInventory() Inventory {
	builtin := func(id, name string, widthCm, heightCm, ratedW float64) PanelPreset {
		pp := NewPanelPreset(name, widthCm, heightCm, ratedW)
		pp.ID = id
		return pp
	}
	return Inventory{
		Panels: []PanelPreset{
			builtin("std-60", "60-cell 165x100", 165, 100, 330),
			builtin("std-72", "72-cell 200x100", 200, 100, 400),
			builtin("hc-108", "108 half-cell 172x113", 172.2, 113.4, 410),
			builtin("hc-144", "144 half-cell 227x113", 227.8, 113.4, 540),
			builtin("compact", "Compact 120x54", 120, 54, 120),
		},
	}
}

// FindPanelByID returns a pointer to the preset with the given ID, or nil.
func (inv *Inventory) FindPanelByID(id string) *PanelPreset {
	for i := range inv.Panels {
		if inv.Panels[i].ID == id {
			return &inv.Panels[i]
		}
	}
	return nil
}

// FindPanelByName returns a pointer to the first preset with the given name, or nil.
func (inv *Inventory) FindPanelByName(name string) *PanelPreset {
	for i := range inv.Panels {
		if inv.Panels[i].Name == name {
			return &inv.Panels[i]
		}
	}
	return nil
}

// PanelNames returns the preset names in inventory order.
func (inv *Inventory) PanelNames() []string {
	names := make([]string, len(inv.Panels))
	for i, p := range inv.Panels {
		names[i] = p.Name
	}
	return names
}
