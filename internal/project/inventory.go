package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/SolarLayout/internal/model"
)

// DefaultInventoryPath returns the default file path for the panel preset
// inventory, ~/.solarlayout/inventory.json.
func DefaultInventoryPath() string {
	return filepath.Join(DefaultConfigDir(), "inventory.json")
}

// SaveInventory writes the inventory to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveInventory(path string, inv model.Inventory) error {
	return writeJSON(path, inv)
}

// LoadInventory reads the inventory from the specified JSON file.
// If the file does not exist, it returns the default inventory and saves it.
func LoadInventory(path string) (model.Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			inv := model.DefaultInventory()
			if saveErr := SaveInventory(path, inv); saveErr != nil {
				return inv, saveErr
			}
			return inv, nil
		}
		return model.Inventory{}, err
	}
	var inv model.Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return model.Inventory{}, err
	}
	if inv.Panels == nil {
		inv.Panels = []model.PanelPreset{}
	}
	return inv, nil
}

// ImportInventory imports panel presets from a user-specified JSON file,
// merging them into the existing inventory. Duplicate IDs are skipped.
func ImportInventory(path string, existing model.Inventory) (model.Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return existing, err
	}
	var imported model.Inventory
	if err := json.Unmarshal(data, &imported); err != nil {
		return existing, err
	}
	return mergeInventory(existing, imported), nil
}

// mergeInventory appends presets from src whose IDs are not yet in dst.
func mergeInventory(dst, src model.Inventory) model.Inventory {
	ids := make(map[string]bool, len(dst.Panels))
	for _, p := range dst.Panels {
		ids[p.ID] = true
	}
	for _, p := range src.Panels {
		if !ids[p.ID] {
			dst.Panels = append(dst.Panels, p)
			ids[p.ID] = true
		}
	}
	return dst
}
