package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"merchant-chat-api/pkg/models"
)

// CalendarFeatures holds the date parts fed to the quantity model
type CalendarFeatures struct {
	Weekday   int // Monday=1 .. Sunday=7
	Month     int
	Day       int
	Year      int
	DayOfYear int
}

// NewCalendarFeatures derives the calendar features of a date
func NewCalendarFeatures(d time.Time) CalendarFeatures {
	weekday := int(d.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return CalendarFeatures{
		Weekday:   weekday,
		Month:     int(d.Month()),
		Day:       d.Day(),
		Year:      d.Year(),
		DayOfYear: d.YearDay(),
	}
}

// CalendarFeaturesFromString parses a YYYY-MM-DD date and derives its features
func CalendarFeaturesFromString(s string) (CalendarFeatures, error) {
	d, err := time.Parse(models.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return CalendarFeatures{}, fmt.Errorf("%w: invalid date %q", models.ErrValidation, s)
	}
	return NewCalendarFeatures(d), nil
}

// Vector returns the features in model column order
func (f CalendarFeatures) Vector() []float64 {
	return []float64{
		float64(f.Weekday),
		float64(f.Month),
		float64(f.Day),
		float64(f.Year),
		float64(f.DayOfYear),
	}
}

// DailyItemQuantity is the summed quantity of one item on one day
type DailyItemQuantity struct {
	Date     time.Time
	ItemID   string
	ItemName string
	Quantity float64
}

// DailyRevenue is the revenue of one day counted once per order
type DailyRevenue struct {
	Date         time.Time
	TotalOrders  int
	TotalItems   float64
	TotalRevenue float64
}

// truncateDay drops the clock part and keeps the calendar date in UTC
func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AggregateDailyQuantities groups order lines by (date, item), sorted by date then item id
func AggregateDailyQuantities(lines []models.OrderLine) []DailyItemQuantity {
	type key struct {
		date time.Time
		item string
	}
	sums := make(map[key]*DailyItemQuantity)
	names := make(map[string]string)
	for _, line := range lines {
		if _, ok := names[line.ItemID]; !ok {
			names[line.ItemID] = line.ItemName
		}
		k := key{date: truncateDay(line.OrderTime), item: line.ItemID}
		agg, ok := sums[k]
		if !ok {
			agg = &DailyItemQuantity{Date: k.date, ItemID: line.ItemID}
			sums[k] = agg
		}
		agg.Quantity += line.Quantity
	}

	out := make([]DailyItemQuantity, 0, len(sums))
	for _, agg := range sums {
		agg.ItemName = names[agg.ItemID]
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}

// AggregateDailyRevenue sums order values per day, counting each order id once
func AggregateDailyRevenue(lines []models.OrderLine) []DailyRevenue {
	byDay := make(map[time.Time]*DailyRevenue)
	seen := make(map[string]bool)
	for _, line := range lines {
		day := truncateDay(line.OrderTime)
		agg, ok := byDay[day]
		if !ok {
			agg = &DailyRevenue{Date: day}
			byDay[day] = agg
		}
		agg.TotalItems += line.Quantity
		if seen[line.OrderID] {
			continue
		}
		seen[line.OrderID] = true
		agg.TotalOrders++
		agg.TotalRevenue += line.OrderValue
	}

	out := make([]DailyRevenue, 0, len(byDay))
	for _, agg := range byDay {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// FillRevenueGaps returns one entry per calendar day between the first and last day,
// with zero revenue for days without orders
func FillRevenueGaps(days []DailyRevenue) []DailyRevenue {
	if len(days) == 0 {
		return nil
	}
	byDay := make(map[time.Time]DailyRevenue, len(days))
	for _, d := range days {
		byDay[d.Date] = d
	}
	first, last := days[0].Date, days[len(days)-1].Date
	out := make([]DailyRevenue, 0, int(last.Sub(first).Hours()/24)+1)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if v, ok := byDay[d]; ok {
			out = append(out, v)
			continue
		}
		out = append(out, DailyRevenue{Date: d})
	}
	return out
}

// runs of anything but letters, digits and underscore, in any script
var nonWordRun = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// SanitizeKeyName turns an item name into a JSON-safe key fragment
func SanitizeKeyName(name string) string {
	key := strings.Trim(nonWordRun.ReplaceAllString(name, "_"), "_")
	if key == "" {
		return "unknown_item"
	}
	if first, _ := utf8.DecodeRuneInString(key); unicode.IsDigit(first) {
		key = "_" + key
	}
	return key
}
