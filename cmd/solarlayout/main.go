// SolarLayout lays out solar panels on a roof outline from the command line.
//
// The roof comes from a CSV/Excel vertex list, a DXF drawing in meters, or
// a saved project. Results can be written as a PDF report, an XLSX
// workbook, a DXF drawing, panel labels and a project file.
//
// Build:
//   go build -o solarlayout ./cmd/solarlayout
//
// Example:
//   solarlayout --roof roof.csv --offset 30 --pdf plan.pdf --save house
//   solarlayout --backup settings-backup.json
//   solarlayout --import-presets vendor-presets.json --preset "72-cell 200x100" --roof roof.csv

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/piwi3910/SolarLayout/internal/engine"
	"github.com/piwi3910/SolarLayout/internal/export"
	"github.com/piwi3910/SolarLayout/internal/importer"
	"github.com/piwi3910/SolarLayout/internal/logging"
	"github.com/piwi3910/SolarLayout/internal/model"
	"github.com/piwi3910/SolarLayout/internal/project"
	"github.com/piwi3910/SolarLayout/internal/solar"
)

// recentLimit is how many saved projects the app config remembers.
const recentLimit = 10

type options struct {
	roof        string
	anchorLat   float64
	anchorLng   float64
	lat         float64
	lng         float64
	address     string
	preset      string
	panelWidth  float64
	panelHeight float64
	offset      float64
	spacing     float64
	pdf         string
	xlsx        string
	dxf         string
	labels      string
	save        string
	compare     bool
	cellTemp    float64
	configPath  string
	inventory   string
	backup      string
	restore     string
	importPath  string
	logLevel    string
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, appCfg model.AppConfig) (options, *pflag.FlagSet, error) {
	var o options
	fs := pflag.NewFlagSet("solarlayout", pflag.ContinueOnError)
	fs.StringVarP(&o.roof, "roof", "r", "", "roof outline: .csv, .xlsx, .dxf or project .json")
	fs.Float64Var(&o.anchorLat, "anchor-lat", appCfg.DefaultLocation.Lat, "latitude of the DXF origin")
	fs.Float64Var(&o.anchorLng, "anchor-lng", appCfg.DefaultLocation.Lng, "longitude of the DXF origin")
	fs.Float64Var(&o.lat, "lat", appCfg.DefaultLocation.Lat, "site latitude for the generation forecast")
	fs.Float64Var(&o.lng, "lng", appCfg.DefaultLocation.Lng, "site longitude for the generation forecast")
	fs.StringVar(&o.address, "address", appCfg.DefaultLocation.Address, "site address printed on the report")
	fs.StringVar(&o.preset, "preset", appCfg.DefaultPanelPreset, "panel preset name or id from the inventory")
	fs.Float64Var(&o.panelWidth, "panel-width", appCfg.DefaultPanelWidthCm, "panel width (cm)")
	fs.Float64Var(&o.panelHeight, "panel-height", appCfg.DefaultPanelHeightCm, "panel height (cm)")
	fs.Float64Var(&o.offset, "offset", appCfg.DefaultOffsetCm, "clearance from the roof edge (cm)")
	fs.Float64Var(&o.spacing, "spacing", appCfg.DefaultSpacingM, "gap between panels (m)")
	fs.StringVar(&o.pdf, "pdf", "", "write the PDF report to this path")
	fs.StringVar(&o.xlsx, "xlsx", "", "write the XLSX workbook to this path")
	fs.StringVar(&o.dxf, "dxf", "", "write the DXF drawing to this path")
	fs.StringVar(&o.labels, "labels", "", "write panel position labels to this path")
	fs.StringVar(&o.save, "save", "", "save the project to this path")
	fs.BoolVar(&o.compare, "compare", false, "compare offset and spacing variants")
	fs.Float64Var(&o.cellTemp, "cell-temp", solar.StandardTemperature, "cell temperature (°C) for the peak output line")
	fs.StringVar(&o.configPath, "config", project.DefaultConfigPath(), "user config file")
	fs.StringVar(&o.inventory, "inventory", project.DefaultInventoryPath(), "panel preset inventory file")
	fs.StringVar(&o.backup, "backup", "", "write config and presets to this backup file")
	fs.StringVar(&o.restore, "restore", "", "restore config and merge presets from this backup file")
	fs.StringVar(&o.importPath, "import-presets", "", "merge panel presets from this inventory file")
	fs.StringVar(&o.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	err := fs.Parse(args)
	return o, fs, err
}

// configPathFromArgs finds --config before the full parse, since the config
// supplies the other flag defaults.
func configPathFromArgs(args []string) string {
	for i, a := range args {
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(a, "--config="); ok {
			return v
		}
	}
	return project.DefaultConfigPath()
}

func run(args []string, stdout io.Writer) error {
	appCfg, err := project.LoadAppConfig(configPathFromArgs(args))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	o, fs, err := parseFlags(args, appCfg)
	if err != nil {
		return err
	}
	logging.Setup(o.logLevel, "text")

	maintenance := o.backup != "" || o.restore != "" || o.importPath != ""
	if maintenance {
		if appCfg, err = runMaintenance(o, appCfg, stdout); err != nil {
			return err
		}
	}

	if o.roof == "" {
		if maintenance {
			return nil
		}
		fs.Usage()
		return fmt.Errorf("--roof is required")
	}

	proj, err := loadRoof(o, fs)
	if err != nil {
		return err
	}

	settings := proj.Settings
	ratedW := solar.RatedPowerW(settings.PanelAreaM2())
	if o.preset != "" {
		inv, err := project.LoadInventory(o.inventory)
		if err != nil {
			return fmt.Errorf("load inventory: %w", err)
		}
		preset := inv.FindPanelByID(o.preset)
		if preset == nil {
			preset = inv.FindPanelByName(o.preset)
		}
		if preset == nil {
			return fmt.Errorf("unknown panel preset %q, available: %s", o.preset, strings.Join(inv.PanelNames(), ", "))
		}
		if !fs.Changed("panel-width") && !fs.Changed("panel-height") {
			preset.ApplyToSettings(&settings)
		}
		ratedW = preset.RatedPowerW
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	proj.Settings = settings

	planner := engine.New(settings)
	if err := planner.CheckGrid(proj.Roof); err != nil {
		return err
	}
	result := planner.Layout(proj.Roof)
	slog.Info("layout computed", "status", result.Status, "panels", result.PanelCount())
	proj.Result = &result

	power := solar.CalculatePower(proj.Location.Lat, proj.Location.Lng, result.PanelCount(), settings.PanelAreaM2())
	coverage := model.CalculateCoverage(result.RoofAreaM2, result.UsableAreaM2, result.PanelCount(), settings, ratedW, appCfg.InstallCostPerKW)
	roi := solar.CalculateROI(coverage.EstimatedCost, power.YearlyTotalKWh, appCfg.ElectricityPricePerKWh)
	printSummary(stdout, result, coverage, power, roi)
	fmt.Fprintf(stdout, "Peak at %.0f°C:   %.2f kW\n", o.cellTemp, coverage.RatedPowerKW*solar.TemperatureDerate(o.cellTemp))

	if o.compare {
		printComparison(stdout, engine.CompareScenarios(proj.Roof, engine.BuildDefaultScenarios(settings)))
	}

	if err := writeOutputs(o, proj, result, power); err != nil {
		return err
	}

	if o.save != "" {
		path := project.EnsureExtension(o.save)
		if err := project.SaveProject(path, proj); err != nil {
			return err
		}
		appCfg.AddRecentProject(path, recentLimit)
		if err := project.SaveAppConfig(o.configPath, appCfg); err != nil {
			slog.Warn("could not update recent projects", "error", err)
		}
		fmt.Fprintf(stdout, "Saved project to %s\n", path)
	}
	return nil
}

// runMaintenance handles the backup, restore and preset import flags, in
// that order, and returns the app config in effect afterwards.
func runMaintenance(o options, appCfg model.AppConfig, stdout io.Writer) (model.AppConfig, error) {
	inv, err := project.LoadInventory(o.inventory)
	if err != nil {
		return appCfg, fmt.Errorf("load inventory: %w", err)
	}

	if o.backup != "" {
		if err := project.ExportAllData(o.backup, appCfg, inv); err != nil {
			return appCfg, err
		}
		fmt.Fprintf(stdout, "Backed up settings and %d presets to %s\n", len(inv.Panels), o.backup)
	}

	before := len(inv.Panels)
	if o.restore != "" {
		backup, err := project.ImportAllData(o.restore)
		if err != nil {
			return appCfg, err
		}
		appCfg = backup.Config
		if err := project.SaveAppConfig(o.configPath, appCfg); err != nil {
			return appCfg, fmt.Errorf("save config: %w", err)
		}
		inv = project.RestoreInventory(backup, inv)
		fmt.Fprintf(stdout, "Restored settings from %s (backup %s)\n", o.restore, backup.CreatedAt)
	}
	if o.importPath != "" {
		if inv, err = project.ImportInventory(o.importPath, inv); err != nil {
			return appCfg, fmt.Errorf("import presets: %w", err)
		}
	}

	if added := len(inv.Panels) - before; o.restore != "" || o.importPath != "" {
		if err := project.SaveInventory(o.inventory, inv); err != nil {
			return appCfg, fmt.Errorf("save inventory: %w", err)
		}
		fmt.Fprintf(stdout, "Added %d panel presets, %d in inventory\n", added, len(inv.Panels))
	}
	return appCfg, nil
}

// loadRoof reads the roof outline into a project. Flags that were set
// explicitly override values stored in a project file.
func loadRoof(o options, fs *pflag.FlagSet) (model.Project, error) {
	proj := model.NewProject()
	proj.Name = strings.TrimSuffix(filepath.Base(o.roof), filepath.Ext(o.roof))
	proj.Settings = model.LayoutSettings{
		PanelWidthCm:  o.panelWidth,
		PanelHeightCm: o.panelHeight,
		OffsetCm:      o.offset,
		SpacingM:      o.spacing,
	}
	proj.Location = model.Location{Lat: o.lat, Lng: o.lng, Address: o.address}

	if strings.EqualFold(filepath.Ext(o.roof), ".json") {
		loaded, err := project.LoadProject(o.roof)
		if err != nil {
			return proj, err
		}
		overrideFromFlags(&loaded, o, fs)
		return loaded, nil
	}

	res := importer.ImportRoof(o.roof, model.GeoPoint{Lat: o.anchorLat, Lng: o.anchorLng})
	for _, w := range res.Warnings {
		slog.Warn("import", "message", w)
	}
	if len(res.Errors) > 0 {
		return proj, fmt.Errorf("import %s: %s", o.roof, strings.Join(res.Errors, "; "))
	}
	proj.Roof = res.Roof
	return proj, nil
}

func overrideFromFlags(p *model.Project, o options, fs *pflag.FlagSet) {
	if fs.Changed("panel-width") {
		p.Settings.PanelWidthCm = o.panelWidth
	}
	if fs.Changed("panel-height") {
		p.Settings.PanelHeightCm = o.panelHeight
	}
	if fs.Changed("offset") {
		p.Settings.OffsetCm = o.offset
	}
	if fs.Changed("spacing") {
		p.Settings.SpacingM = o.spacing
	}
	if fs.Changed("lat") {
		p.Location.Lat = o.lat
	}
	if fs.Changed("lng") {
		p.Location.Lng = o.lng
	}
	if fs.Changed("address") {
		p.Location.Address = o.address
	}
}

func writeOutputs(o options, proj model.Project, result model.LayoutResult, power solar.PowerEstimate) error {
	if o.pdf != "" {
		err := export.ExportPDF(o.pdf, export.ReportInput{
			Polygon:  proj.Roof,
			Panels:   result.Panels,
			Power:    power,
			Location: proj.Location,
			Specs: export.PanelSpecs{
				Width:  proj.Settings.PanelWidthCm,
				Height: proj.Settings.PanelHeightCm,
				Offset: proj.Settings.OffsetCm,
			},
		})
		if err != nil {
			return err
		}
	}
	if o.xlsx != "" {
		if err := export.ExportXLSX(o.xlsx, result, power); err != nil {
			return err
		}
	}
	if o.dxf != "" {
		if err := export.ExportDXF(o.dxf, proj.Roof, result); err != nil {
			return err
		}
	}
	if o.labels != "" {
		if err := export.ExportPanelLabels(o.labels, result); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(w io.Writer, result model.LayoutResult, cov model.CoverageEstimate, power solar.PowerEstimate, roi solar.ROIEstimate) {
	fmt.Fprintf(w, "Status:          %s\n", result.Status)
	fmt.Fprintf(w, "Panels:          %d (landscape %d, portrait %d)\n", result.PanelCount(), result.LandscapeCount, result.PortraitCount)
	fmt.Fprintf(w, "Roof area:       %.2f m² (usable %.2f m²)\n", cov.RoofArea, cov.UsableArea)
	fmt.Fprintf(w, "Coverage:        %.1f%%\n", cov.CoveragePercent)
	fmt.Fprintf(w, "Rated power:     %.2f kW\n", cov.RatedPowerKW)
	fmt.Fprintf(w, "Yearly output:   %.0f kWh\n", power.YearlyTotalKWh)
	if roi.PaybackPeriodYears != nil {
		fmt.Fprintf(w, "Payback:         %.1f years\n", *roi.PaybackPeriodYears)
	}
}

func printComparison(w io.Writer, results []engine.ScenarioResult) {
	best := engine.Best(results)
	fmt.Fprintln(w, "\nScenarios:")
	for i, r := range results {
		marker := " "
		if i == best {
			marker = "*"
		}
		fmt.Fprintf(w, " %s %-24s %4d panels  %5.1f%% coverage  [%s]\n", marker, r.Scenario.Name, r.PanelCount, r.CoveragePercent, r.Status)
	}
}
