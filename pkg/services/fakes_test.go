package services

import (
	"context"
	"time"

	"merchant-chat-api/pkg/models"
)

type fakeOrders struct {
	itemLines    []models.OrderLine
	revenueLines []models.OrderLine
	quantities   []models.ItemQuantity
	monthly      []models.MonthlySalesPoint
	err          error

	gotUntil      time.Time
	gotStart      time.Time
	gotEnd        time.Time
	gotMerchantID string
}

func (f *fakeOrders) ItemOrderLines(_ context.Context, merchantID string, until time.Time) ([]models.OrderLine, error) {
	f.gotMerchantID, f.gotUntil = merchantID, until
	var out []models.OrderLine
	for _, l := range f.itemLines {
		if l.OrderTime.Before(until) {
			out = append(out, l)
		}
	}
	return out, f.err
}

func (f *fakeOrders) RevenueOrderLines(_ context.Context, merchantID string) ([]models.OrderLine, error) {
	f.gotMerchantID = merchantID
	return f.revenueLines, f.err
}

func (f *fakeOrders) ItemQuantities(_ context.Context, merchantID string, start, end time.Time) ([]models.ItemQuantity, error) {
	f.gotMerchantID, f.gotStart, f.gotEnd = merchantID, start, end
	return f.quantities, f.err
}

func (f *fakeOrders) MonthlySales(_ context.Context, merchantID string) ([]models.MonthlySalesPoint, error) {
	f.gotMerchantID = merchantID
	return f.monthly, f.err
}

type fakeCustomers struct {
	customers []models.Customer
	contacts  []models.CustomerContact
	err       error

	gotSince *time.Time
	gotIDs   []string
}

func (f *fakeCustomers) Customers(_ context.Context, _ string, since *time.Time) ([]models.Customer, error) {
	f.gotSince = since
	if f.err != nil {
		return nil, f.err
	}
	if since == nil {
		return f.customers, nil
	}
	var out []models.Customer
	for _, c := range f.customers {
		if !c.LastOrderDate.Before(*since) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCustomers) Contacts(_ context.Context, _ string, ids []string) ([]models.CustomerContact, error) {
	f.gotIDs = ids
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.CustomerContact
	for _, c := range f.contacts {
		if want[c.CustomerID] {
			out = append(out, c)
		}
	}
	return out, f.err
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
