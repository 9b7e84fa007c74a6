package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/SolarLayout/internal/engine"
	"github.com/piwi3910/SolarLayout/internal/geo/geotest"
	"github.com/piwi3910/SolarLayout/internal/model"
)

var testAnchor = model.GeoPoint{Lat: 35.6762, Lng: 139.6503}

// buildTestLayout lays out a 10 m square roof with the default settings.
func buildTestLayout(t *testing.T) ([]model.GeoPoint, model.LayoutResult) {
	t.Helper()
	roof := geotest.Square(testAnchor, 10)
	result := engine.New(model.DefaultSettings()).Layout(roof)
	if result.Status != model.StatusOK {
		t.Fatalf("expected ok layout, got %s", result.Status)
	}
	return roof, result
}

func TestExportPanelLabels_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.pdf")

	_, result := buildTestLayout(t)
	if err := ExportPanelLabels(path, result); err != nil {
		t.Fatalf("ExportPanelLabels returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("PDF file was not created: %v", err)
	}
	if info.Size() < 500 {
		t.Errorf("PDF file seems too small: %d bytes", info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read PDF: %v", err)
	}
	if string(data[:5]) != "%PDF-" {
		t.Errorf("expected PDF header, got %q", string(data[:5]))
	}
}

func TestExportPanelLabels_EmptyResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")

	err := ExportPanelLabels(path, model.LayoutResult{Status: model.StatusNoFit})
	if err == nil {
		t.Fatal("expected error for layout without panels, got nil")
	}
}

func TestCollectLabelInfos(t *testing.T) {
	_, result := buildTestLayout(t)
	labels := CollectLabelInfos(result)

	if len(labels) != result.PanelCount() {
		t.Fatalf("expected %d labels, got %d", result.PanelCount(), len(labels))
	}
	if labels[0].PanelID != 0 || labels[0].Orientation != model.Landscape {
		t.Errorf("unexpected first label %+v", labels[0])
	}
	if labels[0].WidthCm != 165 || labels[0].HeightCm != 100 {
		t.Errorf("wrong dimensions: got %.0fx%.0f, want 165x100", labels[0].WidthCm, labels[0].HeightCm)
	}

	last := labels[len(labels)-1]
	if last.Orientation != model.Portrait {
		t.Errorf("expected last label to be portrait, got %s", last.Orientation)
	}
	if last.WidthCm != 100 || last.HeightCm != 165 {
		t.Errorf("portrait label should swap dimensions, got %.0fx%.0f", last.WidthCm, last.HeightCm)
	}
	if last.Lat != result.Panels[len(result.Panels)-1].Center[0] {
		t.Error("label latitude should match the panel center")
	}
}

func TestExportPanelLabels_MultiPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "many.pdf")

	_, result := buildTestLayout(t)
	if len(result.Panels) <= labelsPerPage {
		t.Fatalf("fixture should span several label pages, got %d panels", len(result.Panels))
	}
	if err := ExportPanelLabels(path, result); err != nil {
		t.Fatalf("ExportPanelLabels returned error: %v", err)
	}
}
