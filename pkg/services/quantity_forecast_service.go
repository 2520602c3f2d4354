package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"merchant-chat-api/pkg/models"
)

// OrderStore reads order data from combined_order_view
type OrderStore interface {
	ItemOrderLines(ctx context.Context, merchantID string, until time.Time) ([]models.OrderLine, error)
	RevenueOrderLines(ctx context.Context, merchantID string) ([]models.OrderLine, error)
	ItemQuantities(ctx context.Context, merchantID string, start, end time.Time) ([]models.ItemQuantity, error)
	MonthlySales(ctx context.Context, merchantID string) ([]models.MonthlySalesPoint, error)
}

// QuantityForecastService predicts units per item for the days after a cutoff
type QuantityForecastService struct {
	orders OrderStore
	cutoff time.Time
	params BoostingParams
	logger *logrus.Logger
}

// NewQuantityForecastService creates a new QuantityForecastService
func NewQuantityForecastService(orders OrderStore, cutoff time.Time, logger *logrus.Logger) *QuantityForecastService {
	return &QuantityForecastService{
		orders: orders,
		cutoff: truncateDay(cutoff),
		params: DefaultBoostingParams(),
		logger: logger,
	}
}

// Forecast trains on daily item aggregates up to the cutoff and predicts the next
// ForecastHorizon days for every item seen in training
func (s *QuantityForecastService) Forecast(ctx context.Context, merchantID string) (*models.QuantityForecast, error) {
	start := time.Now()
	horizonEnd := s.cutoff.AddDate(0, 0, models.ForecastHorizon)

	lines, err := s.orders.ItemOrderLines(ctx, merchantID, horizonEnd.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: No order data found for merchant %s", models.ErrNotFound, merchantID)
	}

	var train, actual []DailyItemQuantity
	for _, d := range AggregateDailyQuantities(lines) {
		if d.Date.After(s.cutoff) {
			actual = append(actual, d)
			continue
		}
		train = append(train, d)
	}
	if len(train) == 0 {
		return nil, fmt.Errorf("%w: No training data available up to %s", models.ErrNotFound, s.cutoff.Format(models.DateLayout))
	}

	items := itemCatalogue(train)
	X := make([][]float64, len(train))
	y := make([]float64, len(train))
	for i, d := range train {
		X[i] = quantityRow(d.Date, items.code[d.ItemID])
		y[i] = d.Quantity
	}

	model, err := FitGradientBoostedTrees(X, y, quantityCategorical, s.params)
	if err != nil {
		return nil, fmt.Errorf("%w: quantity model training: %v", models.ErrModel, err)
	}

	dates := make([]time.Time, models.ForecastHorizon)
	future := make([][]float64, 0, len(dates)*len(items.ids))
	for i := range dates {
		dates[i] = s.cutoff.AddDate(0, 0, i+1)
		for code := range items.ids {
			future = append(future, quantityRow(dates[i], code))
		}
	}
	preds, err := model.Predict(future)
	if err != nil {
		return nil, fmt.Errorf("%w: quantity prediction: %v", models.ErrModel, err)
	}

	result := &models.QuantityForecast{
		MerchantID:     merchantID,
		ForecastPeriod: fmt.Sprintf("%s to %s", dates[0].Format(models.DateLayout), dates[len(dates)-1].Format(models.DateLayout)),
	}
	predictedTotals := make([]int, len(dates))
	for i, date := range dates {
		day := models.DailyQuantityForecast{Date: date.Format(models.DateLayout), Predictions: make(map[string]int, len(items.ids))}
		for code := range items.ids {
			qty := int(math.Round(math.Max(0, preds[i*len(items.ids)+code])))
			day.Predictions[items.keys[code]] = qty
			predictedTotals[i] += qty
		}
		result.FutureForecastByName = append(result.FutureForecastByName, day)
	}
	result.HistoricalEvaluation = evaluateQuantities(dates, predictedTotals, actual)

	s.logger.WithFields(logrus.Fields{
		"merchant_id": merchantID,
		"items":       len(items.ids),
		"train_rows":  len(train),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Quantity forecast generated")
	return result, nil
}

// quantityCategorical marks item_id as the only categorical column
var quantityCategorical = []bool{false, false, false, false, false, true}

func quantityRow(date time.Time, itemCode int) []float64 {
	return append(NewCalendarFeatures(date).Vector(), float64(itemCode))
}

// catalogue assigns each training item a stable category code and an output key
type catalogue struct {
	ids  []string
	keys []string
	code map[string]int
}

func itemCatalogue(train []DailyItemQuantity) catalogue {
	names := make(map[string]string)
	for _, d := range train {
		if _, ok := names[d.ItemID]; !ok {
			names[d.ItemID] = d.ItemName
		}
	}
	c := catalogue{code: make(map[string]int, len(names))}
	for id := range names {
		c.ids = append(c.ids, id)
	}
	sort.Strings(c.ids)

	used := make(map[string]bool, len(c.ids))
	for i, id := range c.ids {
		c.code[id] = i
		base := SanitizeKeyName(names[id])
		key := base
		if used[key] {
			key = base + "_" + SanitizeKeyName(id)
		}
		for n := 2; used[key]; n++ {
			key = fmt.Sprintf("%s_%s_%d", base, SanitizeKeyName(id), n)
		}
		used[key] = true
		c.keys = append(c.keys, key)
	}
	return c
}

// evaluateQuantities compares daily predicted totals with actuals observed after the cutoff.
// It is empty when no actuals exist yet.
func evaluateQuantities(dates []time.Time, predicted []int, actual []DailyItemQuantity) []models.QuantityEvaluation {
	out := []models.QuantityEvaluation{}
	if len(actual) == 0 {
		return out
	}
	byDay := make(map[time.Time]float64)
	for _, a := range actual {
		byDay[a.Date] += a.Quantity
	}
	for i, date := range dates {
		act := int(math.Round(byDay[date]))
		pct, label := Deviation(float64(predicted[i]), float64(act))
		out = append(out, models.QuantityEvaluation{
			Date:              date.Format(models.DateLayout),
			PredictedQuantity: predicted[i],
			ActualQuantity:    act,
			DeviationPct:      pct,
			Label:             label,
		})
	}
	return out
}
