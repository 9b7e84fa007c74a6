package solar

import "math"

const (
	// DefaultElectricityPrice is the retail price used when none is given (JPY/kWh).
	DefaultElectricityPrice = 30.0
	// AnnualDegradation is the yearly loss of panel output.
	AnnualDegradation = 0.005
	// ROIYears is the horizon of the cumulative savings table.
	ROIYears = 20
	// ROIReportedYears is how many rows of the table are returned.
	ROIReportedYears = 10
)

// YearlySavings is one row of the amortization table.
type YearlySavings struct {
	Year                 int     `json:"year"`
	GenerationKWh        float64 `json:"generation_kwh"`
	SavingsYen           float64 `json:"savings_yen"`
	CumulativeSavingsYen float64 `json:"cumulative_savings_yen"`
	NetBenefitYen        float64 `json:"net_benefit_yen"`
}

// ROIEstimate is the payback forecast for an installation.
type ROIEstimate struct {
	// PaybackYears is +Inf when the installation saves nothing.
	PaybackYears float64 `json:"-"`
	// PaybackPeriodYears is PaybackYears rounded to 0.1, or nil when infinite.
	PaybackPeriodYears      *float64        `json:"payback_period_years"`
	YearlySavingsYen        float64         `json:"yearly_savings_yen"`
	TwentyYearSavingsYen    float64         `json:"twenty_year_total_savings_yen"`
	TwentyYearNetBenefitYen float64         `json:"twenty_year_net_benefit_yen"`
	YearlyData              []YearlySavings `json:"yearly_data"`
}

// CalculateROI projects savings over ROIYears with AnnualDegradation and
// returns the first ROIReportedYears rows.
func CalculateROI(installationCost, yearlyKWh, pricePerKWh float64) ROIEstimate {
	yearlySavings := yearlyKWh * pricePerKWh

	est := ROIEstimate{
		PaybackYears:     math.Inf(1),
		YearlySavingsYen: round(yearlySavings, 0),
	}
	if yearlySavings > 0 {
		est.PaybackYears = installationCost / yearlySavings
		p := round(est.PaybackYears, 1)
		est.PaybackPeriodYears = &p
	}

	rows := make([]YearlySavings, 0, ROIYears)
	var cumulative float64
	for year := 1; year <= ROIYears; year++ {
		generation := yearlyKWh * math.Pow(1-AnnualDegradation, float64(year-1))
		savings := generation * pricePerKWh
		cumulative += savings
		rows = append(rows, YearlySavings{
			Year:                 year,
			GenerationKWh:        round(generation, 0),
			SavingsYen:           round(savings, 0),
			CumulativeSavingsYen: round(cumulative, 0),
			NetBenefitYen:        round(cumulative-installationCost, 0),
		})
	}

	last := rows[len(rows)-1]
	est.TwentyYearSavingsYen = last.CumulativeSavingsYen
	est.TwentyYearNetBenefitYen = last.NetBenefitYen
	est.YearlyData = rows[:ROIReportedYears]
	return est
}
