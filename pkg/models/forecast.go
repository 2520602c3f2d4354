package models

import (
	"encoding/json"
)

// ForecastHorizon is the number of days every forecast covers
const ForecastHorizon = 30

// DateLayout is the calendar date format used in forecast payloads
const DateLayout = "2006-01-02"

// DailyQuantityForecast holds the predicted units per item for one day.
// Predictions is keyed by the sanitized item name.
type DailyQuantityForecast struct {
	Date        string
	Predictions map[string]int
}

// MarshalJSON flattens the record into {"order_date": ..., "<item>_pred": n}
func (d DailyQuantityForecast) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Predictions)+1)
	for key, qty := range d.Predictions {
		out[key+"_pred"] = qty
	}
	out["order_date"] = d.Date
	return json.Marshal(out)
}

// QuantityEvaluation compares predicted and actual units for one day
type QuantityEvaluation struct {
	Date              string   `json:"order_date"`
	PredictedQuantity int      `json:"predicted_quantity"`
	ActualQuantity    int      `json:"actual_quantity"`
	DeviationPct      *float64 `json:"deviation_pct"`
	Label             string   `json:"label"`
}

// QuantityForecast is the response of GET /api/forecast_quantity
type QuantityForecast struct {
	MerchantID           string                  `json:"merchant_id"`
	ForecastPeriod       string                  `json:"forecast_period"`
	FutureForecastByName []DailyQuantityForecast `json:"future_forecast_by_name"`
	HistoricalEvaluation []QuantityEvaluation    `json:"historical_evaluation"`
}

// QuantityWindow is a truncated quantity forecast with per-item totals
type QuantityWindow struct {
	ForecastPeriodDays     int                     `json:"forecast_period_days"`
	TotalQuantitiesPerItem map[string]int          `json:"total_quantities_per_item"`
	DailyBreakdown         []DailyQuantityForecast `json:"daily_breakdown"`
}

// RevenueForecastPoint is the predicted revenue for one day
type RevenueForecastPoint struct {
	ForecastDate      string  `json:"forecast_date"`
	ForecastedRevenue float64 `json:"forecasted_revenue"`
}

// RevenueEvaluation compares predicted and actual revenue for one held-out day
type RevenueEvaluation struct {
	ForecastDate      string   `json:"forecast_date"`
	ForecastedRevenue float64  `json:"forecasted_revenue"`
	TotalRevenue      float64  `json:"total_revenue"`
	DeviationPct      *float64 `json:"deviation_pct"`
	Label             string   `json:"label"`
}

// SalesForecast is the response of GET /api/forecast_sales
type SalesForecast struct {
	MerchantID           string                 `json:"merchant_id"`
	HistoricalEvaluation []RevenueEvaluation    `json:"historical_evaluation"`
	FutureForecast       []RevenueForecastPoint `json:"future_forecast"`
}

// RevenueBreakdownPoint is one day of a truncated revenue forecast
type RevenueBreakdownPoint struct {
	OrderDate         string  `json:"order_date"`
	ForecastedRevenue float64 `json:"forecasted_revenue"`
}

// SalesWindow is a truncated revenue forecast with its total
type SalesWindow struct {
	ForecastPeriodDays   int                     `json:"forecast_period_days"`
	TotalForecastedSales float64                 `json:"total_forecasted_sales"`
	DailyBreakdown       []RevenueBreakdownPoint `json:"daily_breakdown"`
}
