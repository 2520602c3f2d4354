package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"merchant-chat-api/pkg/models"
)

// Bounds for day based lookups
const (
	MaxActualDays   = 365
	MaxForecastDays = models.ForecastHorizon
	DefaultDays     = 7
)

// CustomerStore reads customer summaries and contacts
type CustomerStore interface {
	Customers(ctx context.Context, merchantID string, since *time.Time) ([]models.Customer, error)
	Contacts(ctx context.Context, merchantID string, customerIDs []string) ([]models.CustomerContact, error)
}

// ExtractionService answers the read-only reporting queries
type ExtractionService struct {
	orders     OrderStore
	customers  CustomerStore
	actualsEnd time.Time
	logger     *logrus.Logger
}

// NewExtractionService creates a new ExtractionService. actualsEnd is the last day for
// which actual sales are reported.
func NewExtractionService(orders OrderStore, customers CustomerStore, actualsEnd time.Time, logger *logrus.Logger) *ExtractionService {
	return &ExtractionService{
		orders:     orders,
		customers:  customers,
		actualsEnd: truncateDay(actualsEnd),
		logger:     logger,
	}
}

// ActualQuantities totals the quantities sold per item over the days ending on the
// actuals end date
func (s *ExtractionService) ActualQuantities(ctx context.Context, merchantID string, days int) (*models.ActualQuantities, error) {
	if err := models.CheckDays(days, 1, MaxActualDays); err != nil {
		return nil, err
	}
	end := s.actualsEnd.Add(24*time.Hour - time.Microsecond)
	start := s.actualsEnd.AddDate(0, 0, -(days - 1))

	items, err := s.orders.ItemQuantities(ctx, merchantID, start, end)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.ItemQuantity{}
	}
	for i := range items {
		items[i].TotalSales = round2(items[i].TotalSales)
	}

	s.logger.WithFields(logrus.Fields{
		"merchant_id": merchantID,
		"days":        days,
		"items":       len(items),
	}).Debug("Actual quantities fetched")

	return &models.ActualQuantities{
		Days:      days,
		StartDate: start.Format(models.DateLayout),
		EndDate:   s.actualsEnd.Format(models.DateLayout),
		Items:     items,
	}, nil
}

// MonthlySales returns revenue per calendar month
func (s *ExtractionService) MonthlySales(ctx context.Context, merchantID string) (*models.MonthlySales, error) {
	points, err := s.orders.MonthlySales(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if points == nil {
		points = []models.MonthlySalesPoint{}
	}
	for i := range points {
		points[i].TotalSales = round2(points[i].TotalSales)
	}
	return &models.MonthlySales{MerchantID: merchantID, MonthlySales: points}, nil
}

// Customers lists a merchant's customers. A non-nil daysAgo keeps only customers who
// ordered within that many days of the actuals end date.
func (s *ExtractionService) Customers(ctx context.Context, merchantID string, daysAgo *int) ([]models.Customer, error) {
	var since *time.Time
	if daysAgo != nil {
		if err := models.CheckDays(*daysAgo, 1, MaxActualDays); err != nil {
			return nil, err
		}
		t := s.actualsEnd.AddDate(0, 0, -(*daysAgo - 1))
		since = &t
	}
	customers, err := s.customers.Customers(ctx, merchantID, since)
	if err != nil {
		return nil, err
	}
	if customers == nil {
		customers = []models.Customer{}
	}
	return customers, nil
}

// Contacts returns email addresses on file for the given customers
func (s *ExtractionService) Contacts(ctx context.Context, merchantID string, customerIDs []string) ([]models.CustomerContact, error) {
	if len(customerIDs) == 0 {
		return []models.CustomerContact{}, nil
	}
	return s.customers.Contacts(ctx, merchantID, customerIDs)
}
