package services

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"merchant-chat-api/pkg/models"
)

// Workbook sheet names
const (
	SheetForecast = "Forecast"
	SheetTotals   = "Totals"
)

// QuantityWorkbook renders a quantity forecast as an xlsx workbook: one row per day with a
// column per item, plus per-item totals over the whole horizon
func QuantityWorkbook(f *models.QuantityForecast) (*bytes.Buffer, error) {
	items := forecastItems(f.FutureForecastByName)

	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName(book.GetSheetName(0), SheetForecast); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	header := make([]any, 0, len(items)+1)
	header = append(header, "order_date")
	for _, item := range items {
		header = append(header, item)
	}
	if err := setRow(book, SheetForecast, 1, header); err != nil {
		return nil, err
	}

	totals := make(map[string]int, len(items))
	for i, day := range f.FutureForecastByName {
		row := make([]any, 0, len(items)+1)
		row = append(row, day.Date)
		for _, item := range items {
			row = append(row, day.Predictions[item])
			totals[item] += day.Predictions[item]
		}
		if err := setRow(book, SheetForecast, i+2, row); err != nil {
			return nil, err
		}
	}

	if _, err := book.NewSheet(SheetTotals); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := setRow(book, SheetTotals, 1, []any{"item", "total_quantity"}); err != nil {
		return nil, err
	}
	for i, item := range items {
		if err := setRow(book, SheetTotals, i+2, []any{item, totals[item]}); err != nil {
			return nil, err
		}
	}
	if err := book.SetPanes(SheetForecast, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	buf, err := book.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func setRow(book *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := book.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func forecastItems(days []models.DailyQuantityForecast) []string {
	seen := make(map[string]bool)
	var items []string
	for _, d := range days {
		for item := range d.Predictions {
			if !seen[item] {
				seen[item] = true
				items = append(items, item)
			}
		}
	}
	sort.Strings(items)
	return items
}
