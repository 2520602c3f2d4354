package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"merchant-chat-api/pkg/models"
)

// SalesForecastService forecasts daily revenue with a weekly seasonal ARIMA model
type SalesForecastService struct {
	orders OrderStore
	order  SARIMAOrder
	logger *logrus.Logger
}

// NewSalesForecastService creates a new SalesForecastService
func NewSalesForecastService(orders OrderStore, logger *logrus.Logger) *SalesForecastService {
	return &SalesForecastService{orders: orders, order: WeeklySARIMA, logger: logger}
}

// Forecast evaluates the model on the last ForecastHorizon days of history, then refits
// on the full series and forecasts the ForecastHorizon days after the last observed day
func (s *SalesForecastService) Forecast(ctx context.Context, merchantID string) (*models.SalesForecast, error) {
	start := time.Now()

	lines, err := s.orders.RevenueOrderLines(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: No order data found for merchant %s", models.ErrNotFound, merchantID)
	}

	daily := FillRevenueGaps(AggregateDailyRevenue(lines))
	series := make([]float64, len(daily))
	for i, d := range daily {
		series[i] = d.TotalRevenue
	}

	h := models.ForecastHorizon
	if len(series) < h+s.order.MinObservations() {
		return nil, fmt.Errorf("%w: need at least %d days of revenue history, have %d",
			models.ErrModel, h+s.order.MinObservations(), len(series))
	}

	trainLen := len(series) - h
	holdout, err := FitSARIMA(series[:trainLen], s.order)
	if err != nil {
		return nil, fmt.Errorf("%w: revenue model training: %v", models.ErrModel, err)
	}
	evaluation := make([]models.RevenueEvaluation, 0, h)
	for i, v := range holdout.Forecast(h) {
		day := daily[trainLen+i]
		forecast := round2(v)
		actual := round2(day.TotalRevenue)
		pct, label := Deviation(forecast, actual)
		evaluation = append(evaluation, models.RevenueEvaluation{
			ForecastDate:      day.Date.Format(models.DateLayout),
			ForecastedRevenue: forecast,
			TotalRevenue:      actual,
			DeviationPct:      pct,
			Label:             label,
		})
	}

	full, err := FitSARIMA(series, s.order)
	if err != nil {
		return nil, fmt.Errorf("%w: revenue model training: %v", models.ErrModel, err)
	}
	last := daily[len(daily)-1].Date
	future := make([]models.RevenueForecastPoint, 0, h)
	for i, v := range full.Forecast(h) {
		future = append(future, models.RevenueForecastPoint{
			ForecastDate:      last.AddDate(0, 0, i+1).Format(models.DateLayout),
			ForecastedRevenue: round2(v),
		})
	}

	s.logger.WithFields(logrus.Fields{
		"merchant_id": merchantID,
		"days":        len(series),
		"sigma2":      full.Sigma2(),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Sales forecast generated")

	return &models.SalesForecast{
		MerchantID:           merchantID,
		HistoricalEvaluation: evaluation,
		FutureForecast:       future,
	}, nil
}
