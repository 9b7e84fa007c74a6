// Package importer reads roof outlines from CSV, Excel and DXF files.
// Tabular files hold one vertex per row as latitude/longitude with optional
// headers; column names are matched case-insensitively against known aliases.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/SolarLayout/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Roof     []model.GeoPoint
	Errors   []string
	Warnings []string
}

// OK reports whether the import produced a usable roof outline.
func (r ImportResult) OK() bool {
	return len(r.Errors) == 0 && len(r.Roof) >= 3
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	Lat int
	Lng int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"lat": {"lat", "latitude", "緯度", "y"},
	"lng": {"lng", "lon", "long", "longitude", "経度", "x"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or the positional
// mapping (lat, lng) and false if no header was found.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Lat: -1, Lng: -1}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				switch role {
				case "lat":
					if mapping.Lat == -1 {
						mapping.Lat = i
					}
				case "lng":
					if mapping.Lng == -1 {
						mapping.Lng = i
					}
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{Lat: 0, Lng: 1}, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseRow extracts a vertex from a row using the given column mapping.
// Returns the vertex and an error message when the row is unusable.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (model.GeoPoint, string) {
	latStr := getCell(row, mapping.Lat)
	if latStr == "" {
		return model.GeoPoint{}, fmt.Sprintf("%s: Missing latitude value", rowLabel)
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return model.GeoPoint{}, fmt.Sprintf("%s: Invalid latitude '%s'", rowLabel, latStr)
	}

	lngStr := getCell(row, mapping.Lng)
	if lngStr == "" {
		return model.GeoPoint{}, fmt.Sprintf("%s: Missing longitude value", rowLabel)
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return model.GeoPoint{}, fmt.Sprintf("%s: Invalid longitude '%s'", rowLabel, lngStr)
	}

	if math.Abs(lat) > 90 || math.Abs(lng) > 180 {
		return model.GeoPoint{}, fmt.Sprintf("%s: Coordinate %.6f, %.6f is out of range", rowLabel, lat, lng)
	}

	return model.GeoPoint{Lat: lat, Lng: lng}, ""
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportRoof picks an importer from the file extension. anchor is only
// used for DXF files, whose coordinates are meters around it.
func ImportRoof(path string, anchor model.GeoPoint) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", ".tsv":
		return ImportCSV(path)
	case ".xlsx", ".xlsm", ".xls":
		return ImportExcel(path)
	case ".dxf":
		return ImportDXF(path, anchor)
	}
	return ImportResult{Errors: []string{fmt.Sprintf("Unsupported roof file type '%s'", filepath.Ext(path))}}
}

// ImportCSV imports roof vertices from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports roof vertices from a CSV reader with a
// specific delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports roof vertices from the first sheet of an Excel file.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, parses each row into a vertex and
// checks that the vertices form a usable outline.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		if mapping.Lat == -1 {
			missing = append(missing, "Latitude")
		}
		if mapping.Lng == -1 {
			missing = append(missing, "Longitude")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 2 {
		// An unrecognized header row is skipped, positional mapping still applies
		if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][0]), 64); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		pt, errMsg := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		result.Roof = append(result.Roof, pt)
	}

	finishRoof(&result)
	return result
}

// finishRoof drops a repeated closing vertex and checks the vertex count.
func finishRoof(result *ImportResult) {
	n := len(result.Roof)
	if n > 1 && result.Roof[0] == result.Roof[n-1] {
		result.Roof = result.Roof[:n-1]
		result.Warnings = append(result.Warnings, "Dropped closing vertex that repeats the first")
	}
	if len(result.Roof) < 3 {
		result.Errors = append(result.Errors, fmt.Sprintf("Roof outline needs at least 3 vertices, found %d", len(result.Roof)))
	}
}
