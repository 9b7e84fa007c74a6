package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SolarLayout/internal/geo/geotest"
	"github.com/piwi3910/SolarLayout/internal/model"
	"github.com/piwi3910/SolarLayout/internal/project"
)

// writeSquareCSV writes a 10 m square roof as a lat,lng CSV file.
func writeSquareCSV(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("lat,lng\n")
	for _, p := range geotest.Square(model.GeoPoint{Lat: 35.6762, Lng: 139.6503}, 10) {
		b.WriteString(strconv.FormatFloat(p.Lat, 'f', -1, 64))
		b.WriteString(",")
		b.WriteString(strconv.FormatFloat(p.Lng, 'f', -1, 64))
		b.WriteString("\n")
	}
	path := filepath.Join(dir, "roof.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func TestRun_AllOutputs(t *testing.T) {
	dir := t.TempDir()
	roof := writeSquareCSV(t, dir)
	cfgPath := filepath.Join(dir, "config.json")

	var out bytes.Buffer
	err := run([]string{
		"--roof", roof,
		"--config", cfgPath,
		"--pdf", filepath.Join(dir, "plan.pdf"),
		"--xlsx", filepath.Join(dir, "plan.xlsx"),
		"--dxf", filepath.Join(dir, "plan.dxf"),
		"--labels", filepath.Join(dir, "labels.pdf"),
		"--save", filepath.Join(dir, "house"),
		"--compare",
	}, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Status:          ok")
	assert.Contains(t, text, "Panels:          90 (landscape 45, portrait 45)")
	assert.Contains(t, text, "Current Settings")

	for _, name := range []string{"plan.pdf", "plan.xlsx", "plan.dxf", "labels.pdf", "house.solar.json"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	cfg, err := project.LoadAppConfig(cfgPath)
	require.NoError(t, err)
	require.Len(t, cfg.RecentProjects, 1)
	assert.Equal(t, filepath.Join(dir, "house.solar.json"), cfg.RecentProjects[0])
}

func TestRun_ProjectFileWithOverride(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")

	p := model.NewProject()
	p.Roof = geotest.Square(model.GeoPoint{Lat: 35.6762, Lng: 139.6503}, 10)
	projPath := filepath.Join(dir, "house.json")
	require.NoError(t, project.SaveProject(projPath, p))

	var out bytes.Buffer
	require.NoError(t, run([]string{"--roof", projPath, "--config", cfgPath, "--offset", "600"}, &out))
	assert.Contains(t, out.String(), "Status:          offset_too_large")
}

func TestRun_Preset(t *testing.T) {
	dir := t.TempDir()
	roof := writeSquareCSV(t, dir)

	var out bytes.Buffer
	err := run([]string{
		"--roof", roof,
		"--config", filepath.Join(dir, "config.json"),
		"--inventory", filepath.Join(dir, "inventory.json"),
		"--preset", "72-cell 200x100",
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Status:          ok")

	err = run([]string{
		"--roof", roof,
		"--config", filepath.Join(dir, "config.json"),
		"--inventory", filepath.Join(dir, "inventory.json"),
		"--preset", "missing",
	}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown panel preset")
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")

	err := run([]string{"--config", cfgPath}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--roof is required")

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("lat,lng\n35,139\n"), 0644))
	err = run([]string{"--roof", bad, "--config", cfgPath}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 3 vertices")

	roof := writeSquareCSV(t, dir)
	err = run([]string{"--roof", roof, "--config", cfgPath, "--panel-width", "0"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panel dimensions must be positive")
}

func TestConfigPathFromArgs(t *testing.T) {
	assert.Equal(t, "a.json", configPathFromArgs([]string{"--roof", "x", "--config", "a.json"}))
	assert.Equal(t, "b.json", configPathFromArgs([]string{"--config=b.json"}))
	assert.Equal(t, project.DefaultConfigPath(), configPathFromArgs(nil))
}

func TestRun_BackupAndRestore(t *testing.T) {
	src := t.TempDir()
	cfgPath := filepath.Join(src, "config.json")
	invPath := filepath.Join(src, "inventory.json")

	cfg := model.DefaultAppConfig()
	cfg.ReportAuthor = "Sato Roofing"
	cfg.ElectricityPricePerKWh = 42
	require.NoError(t, project.SaveAppConfig(cfgPath, cfg))

	inv := model.DefaultInventory()
	custom := model.NewPanelPreset("Custom 175x105", 175, 105, 390)
	inv.Panels = append(inv.Panels, custom)
	require.NoError(t, project.SaveInventory(invPath, inv))

	backupPath := filepath.Join(src, "backup.json")
	var out bytes.Buffer
	require.NoError(t, run([]string{"--config", cfgPath, "--inventory", invPath, "--backup", backupPath}, &out))
	assert.Contains(t, out.String(), "Backed up settings and 6 presets")

	dst := t.TempDir()
	dstCfg := filepath.Join(dst, "config.json")
	dstInv := filepath.Join(dst, "inventory.json")
	out.Reset()
	require.NoError(t, run([]string{"--config", dstCfg, "--inventory", dstInv, "--restore", backupPath}, &out))
	assert.Contains(t, out.String(), "Added 1 panel presets, 6 in inventory")

	restored, err := project.LoadAppConfig(dstCfg)
	require.NoError(t, err)
	assert.Equal(t, "Sato Roofing", restored.ReportAuthor)
	assert.Equal(t, 42.0, restored.ElectricityPricePerKWh)

	restoredInv, err := project.LoadInventory(dstInv)
	require.NoError(t, err)
	require.NotNil(t, restoredInv.FindPanelByID(custom.ID))
}

func TestRun_ImportPresetsAndSelectByID(t *testing.T) {
	dir := t.TempDir()
	roof := writeSquareCSV(t, dir)
	invPath := filepath.Join(dir, "inventory.json")

	vendor := model.NewPanelPreset("Vendor 180x100", 180, 100, 400)
	vendorPath := filepath.Join(dir, "vendor.json")
	require.NoError(t, project.SaveInventory(vendorPath, model.Inventory{Panels: []model.PanelPreset{vendor}}))

	var out bytes.Buffer
	err := run([]string{
		"--roof", roof,
		"--config", filepath.Join(dir, "config.json"),
		"--inventory", invPath,
		"--import-presets", vendorPath,
		"--preset", vendor.ID,
		"--save", filepath.Join(dir, "house"),
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Added 1 panel presets, 6 in inventory")
	assert.Contains(t, out.String(), "Status:          ok")

	saved, err := project.LoadProject(filepath.Join(dir, "house.solar.json"))
	require.NoError(t, err)
	assert.Equal(t, 180.0, saved.Settings.PanelWidthCm)
	assert.Equal(t, 100.0, saved.Settings.PanelHeightCm)

	inv, err := project.LoadInventory(invPath)
	require.NoError(t, err)
	assert.NotNil(t, inv.FindPanelByID(vendor.ID))
}

func TestRun_PeakOutputAtCellTemperature(t *testing.T) {
	dir := t.TempDir()
	roof := writeSquareCSV(t, dir)

	var out bytes.Buffer
	require.NoError(t, run([]string{"--roof", roof, "--config", filepath.Join(dir, "config.json"), "--cell-temp", "45"}, &out))
	assert.Contains(t, out.String(), "Peak at 45°C:")
}

func TestRun_RejectsTinyPanels(t *testing.T) {
	dir := t.TempDir()
	roof := writeSquareCSV(t, dir)

	err := run([]string{"--roof", roof, "--config", filepath.Join(dir, "config.json"), "--panel-width", "0.05"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least")
}
