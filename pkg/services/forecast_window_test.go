package services

import (
	"fmt"
	"testing"

	"merchant-chat-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviationLabel(t *testing.T) {
	cases := map[float64]string{
		25:    LabelMuchBetter,
		10:    LabelMuchBetter,
		9.99:  LabelBetter,
		0.01:  LabelBetter,
		0:     LabelAsExpected,
		-0.01: LabelWorse,
		-9.99: LabelWorse,
		-10:   LabelMuchWorse,
		-80:   LabelMuchWorse,
	}
	for pct, want := range cases {
		assert.Equal(t, want, DeviationLabel(pct), "pct %v", pct)
	}
}

func TestDeviation(t *testing.T) {
	pct, label := Deviation(110, 100)
	require.NotNil(t, pct)
	assert.Equal(t, 10.0, *pct)
	assert.Equal(t, LabelMuchBetter, label)

	pct, label = Deviation(95, 100)
	require.NotNil(t, pct)
	assert.Equal(t, -5.0, *pct)
	assert.Equal(t, LabelWorse, label)

	pct, label = Deviation(1, 3)
	require.NotNil(t, pct)
	assert.Equal(t, -66.67, *pct)
	assert.Equal(t, LabelMuchWorse, label)

	for _, tc := range []struct {
		forecast float64
		pct      float64
		label    string
	}{
		{115, 15, LabelMuchBetter},
		{105, 5, LabelBetter},
		{100, 0, LabelAsExpected},
		{95, -5, LabelWorse},
		{85, -15, LabelMuchWorse},
	} {
		pct, label = Deviation(tc.forecast, 100)
		require.NotNil(t, pct)
		assert.Equal(t, tc.pct, *pct, "forecast %v", tc.forecast)
		assert.Equal(t, tc.label, label, "forecast %v", tc.forecast)
	}

	pct, label = Deviation(12, 0)
	assert.Nil(t, pct)
	assert.Equal(t, LabelMuchBetter, label)

	pct, label = Deviation(0, 0)
	assert.Nil(t, pct)
	assert.Equal(t, LabelAsExpected, label)
}

func TestDeviationLabelsUnroundedValue(t *testing.T) {
	pct, label := Deviation(100.004, 100)
	require.NotNil(t, pct)
	assert.Equal(t, 0.0, *pct)
	assert.Equal(t, LabelBetter, label)

	pct, label = Deviation(109.996, 100)
	require.NotNil(t, pct)
	assert.Equal(t, 10.0, *pct)
	assert.Equal(t, LabelBetter, label)

	pct, label = Deviation(90.004, 100)
	require.NotNil(t, pct)
	assert.Equal(t, -10.0, *pct)
	assert.Equal(t, LabelWorse, label)
}

func quantityForecastFixture() *models.QuantityForecast {
	f := &models.QuantityForecast{MerchantID: "m1"}
	for i := 0; i < models.ForecastHorizon; i++ {
		f.FutureForecastByName = append(f.FutureForecastByName, models.DailyQuantityForecast{
			Date:        fmt.Sprintf("2023-12-%02d", i+1),
			Predictions: map[string]int{"Nasi_Lemak": 2, "Teh_Tarik": i},
		})
	}
	return f
}

func TestForecastedQuantities(t *testing.T) {
	f := quantityForecastFixture()

	got, err := ForecastedQuantities(f, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ForecastPeriodDays)
	assert.Len(t, got.DailyBreakdown, 3)
	assert.Equal(t, "2023-12-01", got.DailyBreakdown[0].Date)
	assert.Equal(t, map[string]int{"Nasi_Lemak": 6, "Teh_Tarik": 3}, got.TotalQuantitiesPerItem)

	got, err = ForecastedQuantities(f, 30)
	require.NoError(t, err)
	assert.Len(t, got.DailyBreakdown, 30)
}

func TestForecastedQuantitiesEveryWindow(t *testing.T) {
	f := quantityForecastFixture()
	for days := 1; days <= models.ForecastHorizon; days++ {
		got, err := ForecastedQuantities(f, days)
		require.NoError(t, err, "days %d", days)
		require.Len(t, got.DailyBreakdown, days)
		assert.Equal(t, f.FutureForecastByName[:days], got.DailyBreakdown, "days %d", days)

		want := map[string]int{}
		for _, d := range f.FutureForecastByName[:days] {
			for item, qty := range d.Predictions {
				want[item] += qty
			}
		}
		assert.Equal(t, want, got.TotalQuantitiesPerItem, "days %d", days)
	}
}

func TestForecastWindowsEmpty(t *testing.T) {
	_, err := ForecastedQuantities(&models.QuantityForecast{}, 7)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.EqualError(t, err, "not found: No forecasted quantities available")

	_, err = TotalSales(&models.SalesForecast{}, 7)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestForecastedQuantitiesRange(t *testing.T) {
	f := quantityForecastFixture()
	for _, days := range []int{0, -1, 31} {
		_, err := ForecastedQuantities(f, days)
		var rangeErr *models.DaysRangeError
		require.ErrorAs(t, err, &rangeErr, "days %d", days)
		assert.ErrorIs(t, err, models.ErrValidation)
		assert.Equal(t, "Days must be between 1 and 30", err.Error())
	}
}

func TestTotalSales(t *testing.T) {
	f := &models.SalesForecast{}
	for i := 0; i < models.ForecastHorizon; i++ {
		f.FutureForecast = append(f.FutureForecast, models.RevenueForecastPoint{
			ForecastDate:      fmt.Sprintf("2024-01-%02d", i+1),
			ForecastedRevenue: 10.1,
		})
	}

	got, err := TotalSales(f, 7)
	require.NoError(t, err)
	assert.Equal(t, 70.7, got.TotalForecastedSales)
	assert.Len(t, got.DailyBreakdown, 7)
	assert.Equal(t, "2024-01-07", got.DailyBreakdown[6].OrderDate)

	_, err = TotalSales(f, 31)
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = TotalSales(f, 0)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestTotalSalesEveryWindow(t *testing.T) {
	f := &models.SalesForecast{}
	for i := 0; i < models.ForecastHorizon; i++ {
		f.FutureForecast = append(f.FutureForecast, models.RevenueForecastPoint{
			ForecastDate:      fmt.Sprintf("2024-01-%02d", i+1),
			ForecastedRevenue: float64(100 + i),
		})
	}
	for days := 1; days <= models.ForecastHorizon; days++ {
		got, err := TotalSales(f, days)
		require.NoError(t, err, "days %d", days)
		require.Len(t, got.DailyBreakdown, days)
		want := 0.0
		for i, p := range got.DailyBreakdown {
			assert.Equal(t, f.FutureForecast[i].ForecastDate, p.OrderDate)
			assert.Equal(t, f.FutureForecast[i].ForecastedRevenue, p.ForecastedRevenue)
			want += p.ForecastedRevenue
		}
		assert.Equal(t, want, got.TotalForecastedSales, "days %d", days)
		assert.Equal(t, days, got.ForecastPeriodDays)
	}
}
