package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-chat-api/pkg/models"
)

func steadyItemLines(from, to time.Time) []models.OrderLine {
	var lines []models.OrderLine
	n := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		n++
		lines = append(lines,
			models.OrderLine{OrderID: fmt.Sprintf("o%d", n), OrderTime: d.Add(12 * time.Hour), ItemID: "10", ItemName: "Nasi Lemak", Quantity: 3},
			models.OrderLine{OrderID: fmt.Sprintf("o%d", n), OrderTime: d.Add(12 * time.Hour), ItemID: "11", ItemName: "7-Up", Quantity: 1},
		)
	}
	return lines
}

func TestQuantityForecast(t *testing.T) {
	orders := &fakeOrders{itemLines: steadyItemLines(day(2023, 10, 1), day(2023, 12, 10))}
	svc := NewQuantityForecastService(orders, day(2023, 11, 30), testLogger())

	f, err := svc.Forecast(context.Background(), "M1")
	require.NoError(t, err)
	assert.Equal(t, "M1", orders.gotMerchantID)
	assert.Equal(t, day(2023, 12, 31), orders.gotUntil)

	assert.Equal(t, "2023-12-01 to 2023-12-30", f.ForecastPeriod)
	require.Len(t, f.FutureForecastByName, models.ForecastHorizon)
	first := f.FutureForecastByName[0]
	assert.Equal(t, "2023-12-01", first.Date)
	assert.Equal(t, 3, first.Predictions["Nasi_Lemak"])
	assert.Equal(t, 1, first.Predictions["_7_Up"])
	for _, d := range f.FutureForecastByName {
		for _, q := range d.Predictions {
			assert.GreaterOrEqual(t, q, 0)
		}
	}

	payload, err := json.Marshal(first)
	require.NoError(t, err)
	assert.JSONEq(t, `{"order_date":"2023-12-01","Nasi_Lemak_pred":3,"_7_Up_pred":1}`, string(payload))

	require.Len(t, f.HistoricalEvaluation, models.ForecastHorizon)
	assert.Equal(t, 4, f.HistoricalEvaluation[0].ActualQuantity)
	assert.Equal(t, LabelAsExpected, f.HistoricalEvaluation[0].Label)
	assert.Equal(t, 0, f.HistoricalEvaluation[20].ActualQuantity)
	assert.Nil(t, f.HistoricalEvaluation[20].DeviationPct)
}

func TestQuantityForecastNoActuals(t *testing.T) {
	orders := &fakeOrders{itemLines: steadyItemLines(day(2023, 10, 1), day(2023, 11, 30))}
	svc := NewQuantityForecastService(orders, day(2023, 11, 30), testLogger())

	f, err := svc.Forecast(context.Background(), "M1")
	require.NoError(t, err)
	assert.Empty(t, f.HistoricalEvaluation)
}

func TestQuantityForecastErrors(t *testing.T) {
	svc := NewQuantityForecastService(&fakeOrders{}, day(2023, 11, 30), testLogger())
	_, err := svc.Forecast(context.Background(), "M1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	late := &fakeOrders{itemLines: steadyItemLines(day(2023, 12, 5), day(2023, 12, 8))}
	svc = NewQuantityForecastService(late, day(2023, 11, 30), testLogger())
	_, err = svc.Forecast(context.Background(), "M1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	broken := &fakeOrders{err: fmt.Errorf("%w: connection refused", models.ErrDataAccess)}
	svc = NewQuantityForecastService(broken, day(2023, 11, 30), testLogger())
	_, err = svc.Forecast(context.Background(), "M1")
	assert.ErrorIs(t, err, models.ErrDataAccess)
}

func TestItemCatalogueKeyCollision(t *testing.T) {
	c := itemCatalogue([]DailyItemQuantity{
		{ItemID: "1", ItemName: "Teh Tarik"},
		{ItemID: "2", ItemName: "Teh-Tarik"},
	})
	assert.Equal(t, []string{"Teh_Tarik", "Teh_Tarik__2"}, c.keys)

	c = itemCatalogue([]DailyItemQuantity{
		{ItemID: "a", ItemName: "Tea c"},
		{ItemID: "b", ItemName: "Tea"},
		{ItemID: "c", ItemName: "Tea"},
	})
	assert.Equal(t, []string{"Tea_c", "Tea", "Tea_c_2"}, c.keys)

	c = itemCatalogue([]DailyItemQuantity{
		{ItemID: "1", ItemName: "炒饭"},
		{ItemID: "2", ItemName: "叉烧"},
		{ItemID: "3", ItemName: "!!"},
	})
	assert.Equal(t, []string{"炒饭", "叉烧", "unknown_item"}, c.keys)
}

func revenueLines(days int) []models.OrderLine {
	pattern := []float64{120, 80, 90, 100, 150, 220, 260}
	start := day(2023, 9, 1)
	var lines []models.OrderLine
	for i := 0; i < days; i++ {
		value := 1000 + 2.5*float64(i) + pattern[i%7]
		id := fmt.Sprintf("o%d", i)
		at := start.AddDate(0, 0, i).Add(18 * time.Hour)
		// two item lines per order carry the same order value
		lines = append(lines,
			models.OrderLine{OrderID: id, OrderTime: at, Quantity: 1, OrderValue: value},
			models.OrderLine{OrderID: id, OrderTime: at, Quantity: 2, OrderValue: value},
		)
	}
	return lines
}

func TestSalesForecast(t *testing.T) {
	orders := &fakeOrders{revenueLines: revenueLines(91)}
	svc := NewSalesForecastService(orders, testLogger())

	f, err := svc.Forecast(context.Background(), "M1")
	require.NoError(t, err)
	assert.Equal(t, "M1", f.MerchantID)

	require.Len(t, f.HistoricalEvaluation, models.ForecastHorizon)
	first := f.HistoricalEvaluation[0]
	assert.Equal(t, "2023-11-01", first.ForecastDate)
	assert.Equal(t, first.TotalRevenue, first.ForecastedRevenue)
	assert.Equal(t, LabelAsExpected, first.Label)
	require.NotNil(t, first.DeviationPct)
	assert.Equal(t, 0.0, *first.DeviationPct)

	require.Len(t, f.FutureForecast, models.ForecastHorizon)
	assert.Equal(t, "2023-12-01", f.FutureForecast[0].ForecastDate)
	// day 91 continues the trend and weekly pattern
	assert.InDelta(t, 1000+2.5*91+[]float64{120, 80, 90, 100, 150, 220, 260}[91%7], f.FutureForecast[0].ForecastedRevenue, 0.01)

	window, err := TotalSales(f, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, window.ForecastPeriodDays)
}

func TestSalesForecastErrors(t *testing.T) {
	svc := NewSalesForecastService(&fakeOrders{}, testLogger())
	_, err := svc.Forecast(context.Background(), "M1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	svc = NewSalesForecastService(&fakeOrders{revenueLines: revenueLines(35)}, testLogger())
	_, err = svc.Forecast(context.Background(), "M1")
	assert.ErrorIs(t, err, models.ErrModel)

	svc = NewSalesForecastService(&fakeOrders{err: errors.New("boom")}, testLogger())
	_, err = svc.Forecast(context.Background(), "M1")
	assert.EqualError(t, err, "boom")
}
