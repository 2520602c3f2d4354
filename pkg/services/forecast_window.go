package services

import (
	"fmt"
	"math"

	"merchant-chat-api/pkg/models"

	"github.com/shopspring/decimal"
)

// Deviation labels, from forecast above actual to forecast below actual
const (
	LabelMuchBetter = "Much Better than Expected"
	LabelBetter     = "Better than Expected"
	LabelAsExpected = "As Expected"
	LabelWorse      = "Worse than Expected"
	LabelMuchWorse  = "Much Worse than Expected"
)

// DeviationLabel classifies a deviation percentage
func DeviationLabel(pct float64) string {
	switch {
	case pct >= 10:
		return LabelMuchBetter
	case pct > 0:
		return LabelBetter
	case pct == 0:
		return LabelAsExpected
	case pct > -10:
		return LabelWorse
	default:
		return LabelMuchWorse
	}
}

// Deviation returns (forecast-actual)/actual*100 rounded to 2 decimals and its label.
// The label is taken from the unrounded value. With a zero actual the percentage is undefined and nil is returned; the label
// then follows the sign of the forecast.
func Deviation(forecast, actual float64) (*float64, string) {
	if actual == 0 {
		switch {
		case forecast > 0:
			return nil, LabelMuchBetter
		case forecast < 0:
			return nil, LabelMuchWorse
		default:
			return nil, LabelAsExpected
		}
	}
	raw := (forecast - actual) / actual * 100
	pct := round2(raw)
	return &pct, DeviationLabel(raw)
}

// round2 rounds half away from zero to 2 decimals
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// ForecastedQuantities truncates a quantity forecast to its first days entries
// and totals the units per item
func ForecastedQuantities(f *models.QuantityForecast, days int) (*models.QuantityWindow, error) {
	if len(f.FutureForecastByName) == 0 {
		return nil, fmt.Errorf("%w: No forecasted quantities available", models.ErrNotFound)
	}
	limit := models.ForecastHorizon
	if len(f.FutureForecastByName) < limit {
		limit = len(f.FutureForecastByName)
	}
	if err := models.CheckDays(days, 1, limit); err != nil {
		return nil, err
	}

	window := make([]models.DailyQuantityForecast, days)
	copy(window, f.FutureForecastByName[:days])
	totals := make(map[string]int)
	for _, day := range window {
		for item, qty := range day.Predictions {
			totals[item] += qty
		}
	}
	return &models.QuantityWindow{
		ForecastPeriodDays:     days,
		TotalQuantitiesPerItem: totals,
		DailyBreakdown:         window,
	}, nil
}

// TotalSales truncates a revenue forecast to its first days entries and sums them
func TotalSales(f *models.SalesForecast, days int) (*models.SalesWindow, error) {
	if len(f.FutureForecast) == 0 {
		return nil, fmt.Errorf("%w: No forecasted sales available", models.ErrNotFound)
	}
	limit := models.ForecastHorizon
	if len(f.FutureForecast) < limit {
		limit = len(f.FutureForecast)
	}
	if err := models.CheckDays(days, 1, limit); err != nil {
		return nil, err
	}

	total := decimal.Zero
	breakdown := make([]models.RevenueBreakdownPoint, 0, days)
	for _, p := range f.FutureForecast[:days] {
		total = total.Add(decimal.NewFromFloat(p.ForecastedRevenue))
		breakdown = append(breakdown, models.RevenueBreakdownPoint{
			OrderDate:         p.ForecastDate,
			ForecastedRevenue: p.ForecastedRevenue,
		})
	}
	return &models.SalesWindow{
		ForecastPeriodDays:   days,
		TotalForecastedSales: total.Round(2).InexactFloat64(),
		DailyBreakdown:       breakdown,
	}, nil
}
