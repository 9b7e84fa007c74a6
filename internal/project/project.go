// Package project persists roof projects, user preferences and panel
// presets as JSON files.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/piwi3910/SolarLayout/internal/model"
)

// FileExtension is appended to project paths that lack one.
const FileExtension = ".solar.json"

// SaveProject writes p to path as indented JSON.
func SaveProject(path string, p model.Project) error {
	if err := writeJSON(path, p); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

// LoadProject reads a project file. Settings missing from the file fall
// back to DefaultSettings.
func LoadProject(path string) (model.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to read project: %w", err)
	}
	p := model.Project{Settings: model.DefaultSettings(), Location: model.DefaultLocation()}
	if err := json.Unmarshal(data, &p); err != nil {
		return model.Project{}, fmt.Errorf("failed to parse project: %w", err)
	}
	if p.Roof == nil {
		p.Roof = []model.GeoPoint{}
	}
	return p, nil
}

// EnsureExtension appends FileExtension unless path already ends in .json.
func EnsureExtension(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return path
	}
	return path + FileExtension
}
