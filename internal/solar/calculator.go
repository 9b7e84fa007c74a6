// Package solar estimates energy yield and payback for a panel layout from
// a coarse latitude and season irradiance model.
package solar

import (
	"fmt"
	"math"
)

const (
	SystemEfficiency       = 0.85   // inverter, wiring and soiling losses
	PanelEfficiency        = 0.20   // module conversion efficiency
	TemperatureCoefficient = -0.004 // per °C above StandardTemperature
	StandardTemperature    = 25.0   // °C, standard test conditions

	// BaseIrradiance is the annual mean daily irradiance near 35°N (Wh/m²/day).
	BaseIrradiance = 3800.0
	// ReferenceLatitude is where the latitude correction is neutral.
	ReferenceLatitude = 35.0
	// StandardIrradiance is the rating irradiance (W/m²).
	StandardIrradiance = 1000.0
)

var seasonalFactors = [12]float64{0.7, 0.8, 0.95, 1.1, 1.2, 1.0, 1.1, 1.15, 0.95, 0.85, 0.75, 0.65}

var daysInMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Coordinates is a latitude/longitude pair as echoed in estimates.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// MonthlyGeneration is the estimated output for one calendar month.
type MonthlyGeneration struct {
	Month           int     `json:"month"`
	GenerationKWh   float64 `json:"generation_kwh"`
	DailyIrradiance float64 `json:"daily_irradiance"` // Wh/m²/day
}

// PanelInfo summarizes the installed array.
type PanelInfo struct {
	Count               int     `json:"count"`
	TotalAreaM2         float64 `json:"total_area_m2"`
	RatedPowerPerPanelW float64 `json:"rated_power_per_panel_w"`
	TotalRatedPowerKW   float64 `json:"total_rated_power_kw"`
}

// Assumptions records the model constants behind an estimate.
type Assumptions struct {
	SystemEfficiency string      `json:"system_efficiency"`
	PanelEfficiency  string      `json:"panel_efficiency"`
	Location         Coordinates `json:"location"`
}

// PowerEstimate is the yearly and monthly generation forecast.
type PowerEstimate struct {
	YearlyTotalKWh float64             `json:"yearly_total_kwh"`
	MonthlyData    []MonthlyGeneration `json:"monthly_data"`
	PanelInfo      PanelInfo           `json:"panel_info"`
	Assumptions    Assumptions         `json:"assumptions"`
}

// MonthlyIrradianceData is one month of the irradiance table.
type MonthlyIrradianceData struct {
	Month             int     `json:"month"`
	MonthName         string  `json:"month_name"`
	DailyAverageKWhM2 float64 `json:"daily_average_kwh_m2"`
}

// IrradianceSummary is the yearly irradiance profile of a location.
type IrradianceSummary struct {
	Location                Coordinates             `json:"location"`
	MonthlyData             []MonthlyIrradianceData `json:"monthly_data"`
	YearlyAverageDailyKWhM2 float64                 `json:"yearly_average_daily_kwh_m2"`
	AnnualTotalKWhM2        float64                 `json:"annual_total_kwh_m2"`
}

// LatitudeFactor scales irradiance down away from the reference latitude.
func LatitudeFactor(lat float64) float64 {
	f := 1.0 - math.Abs(lat-ReferenceLatitude)*0.02
	return math.Max(0.7, math.Min(1.3, f))
}

// MonthlyIrradiance returns the mean daily irradiance (Wh/m²/day) for a
// month numbered 1 to 12. Months outside that range return 0.
func MonthlyIrradiance(lat float64, month int) float64 {
	if month < 1 || month > 12 {
		return 0
	}
	return BaseIrradiance * seasonalFactors[month-1] * LatitudeFactor(lat)
}

// DaysInMonth returns the length of a month in a non-leap year.
func DaysInMonth(month int) int {
	if month < 1 || month > 12 {
		return 0
	}
	return daysInMonth[month-1]
}

// MonthName returns the English name of a month numbered 1 to 12.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// RatedPowerW is the nameplate output of one panel of the given area.
func RatedPowerW(panelAreaM2 float64) float64 {
	return panelAreaM2 * StandardIrradiance * PanelEfficiency
}

// CalculatePower estimates monthly and yearly generation for count panels
// of panelAreaM2 each.
func CalculatePower(lat, lng float64, count int, panelAreaM2 float64) PowerEstimate {
	est := PowerEstimate{
		MonthlyData: make([]MonthlyGeneration, 0, 12),
	}

	var yearlyWh float64
	for month := 1; month <= 12; month++ {
		irr := MonthlyIrradiance(lat, month)
		wh := irr * panelAreaM2 * float64(count) * PanelEfficiency * SystemEfficiency * float64(DaysInMonth(month))
		est.MonthlyData = append(est.MonthlyData, MonthlyGeneration{
			Month:           month,
			GenerationKWh:   round(wh/1000, 2),
			DailyIrradiance: round(irr, 2),
		})
		yearlyWh += wh
	}
	est.YearlyTotalKWh = round(yearlyWh/1000, 2)

	rated := RatedPowerW(panelAreaM2)
	est.PanelInfo = PanelInfo{
		Count:               count,
		TotalAreaM2:         round(panelAreaM2*float64(count), 2),
		RatedPowerPerPanelW: round(rated, 0),
		TotalRatedPowerKW:   round(rated*float64(count)/1000, 2),
	}
	est.Assumptions = Assumptions{
		SystemEfficiency: percent(SystemEfficiency),
		PanelEfficiency:  percent(PanelEfficiency),
		Location:         Coordinates{Latitude: lat, Longitude: lng},
	}
	return est
}

// IrradianceData returns the monthly irradiance profile of a location in
// kWh/m²/day.
func IrradianceData(lat, lng float64) IrradianceSummary {
	s := IrradianceSummary{
		Location:    Coordinates{Latitude: lat, Longitude: lng},
		MonthlyData: make([]MonthlyIrradianceData, 0, 12),
	}

	var sum float64
	for month := 1; month <= 12; month++ {
		v := round(MonthlyIrradiance(lat, month)/1000, 3)
		s.MonthlyData = append(s.MonthlyData, MonthlyIrradianceData{
			Month:             month,
			MonthName:         MonthName(month),
			DailyAverageKWhM2: v,
		})
		sum += v
	}
	avg := sum / 12
	s.YearlyAverageDailyKWhM2 = round(avg, 3)
	s.AnnualTotalKWhM2 = round(avg*365, 1)
	return s
}

// TemperatureDerate returns the output multiplier at a cell temperature.
func TemperatureDerate(cellTempC float64) float64 {
	return math.Max(0, 1+TemperatureCoefficient*(cellTempC-StandardTemperature))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}
