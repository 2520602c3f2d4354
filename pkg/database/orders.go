package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"merchant-chat-api/pkg/models"
)

const itemOrderLinesQuery = `
SELECT order_time, item_id::text AS item_id, COALESCE(item_name, '') AS item_name, quantity
FROM combined_order_view
WHERE order_merchant_id::text = $1
  AND order_time < $2
  AND order_time IS NOT NULL AND item_id IS NOT NULL AND quantity IS NOT NULL
ORDER BY order_time`

const revenueOrderLinesQuery = `
SELECT order_id::text AS order_id, order_time, COALESCE(quantity, 0) AS quantity, order_value
FROM combined_order_view
WHERE order_merchant_id::text = $1
  AND order_time IS NOT NULL AND order_id IS NOT NULL AND order_value IS NOT NULL
ORDER BY order_time`

const itemQuantitiesQuery = `
SELECT COALESCE(item_name, '') AS item_name,
       SUM(quantity)::INTEGER AS total_quantity,
       COALESCE(SUM(item_price * quantity), 0)::FLOAT AS total_sales
FROM combined_order_view
WHERE order_merchant_id::text = $1
  AND order_time >= $2 AND order_time <= $3
GROUP BY item_id, item_name
HAVING SUM(quantity) > 0
ORDER BY total_quantity DESC`

const monthlySalesQuery = `
WITH monthly_unique_orders AS (
    SELECT DISTINCT order_id, order_value, TO_CHAR(order_time, 'YYYY-MM') AS sale_month
    FROM combined_order_view
    WHERE order_merchant_id::text = $1 AND order_value IS NOT NULL
)
SELECT sale_month AS month, SUM(order_value)::FLOAT AS total_sales
FROM monthly_unique_orders
GROUP BY sale_month
ORDER BY sale_month ASC`

// OrderRepository queries the read-only combined_order_view
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates an OrderRepository
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// ItemOrderLines returns the item lines of a merchant ordered before until
func (r *OrderRepository) ItemOrderLines(ctx context.Context, merchantID string, until time.Time) ([]models.OrderLine, error) {
	lines := []models.OrderLine{}
	if err := r.db.SelectContext(ctx, &lines, itemOrderLinesQuery, merchantID, until); err != nil {
		return nil, fmt.Errorf("%w: item order lines: %v", models.ErrDataAccess, err)
	}
	return lines, nil
}

// RevenueOrderLines returns every order line of a merchant with its order value
func (r *OrderRepository) RevenueOrderLines(ctx context.Context, merchantID string) ([]models.OrderLine, error) {
	lines := []models.OrderLine{}
	if err := r.db.SelectContext(ctx, &lines, revenueOrderLinesQuery, merchantID); err != nil {
		return nil, fmt.Errorf("%w: revenue order lines: %v", models.ErrDataAccess, err)
	}
	return lines, nil
}

// ItemQuantities sums quantity and sales per item over [start, end]
func (r *OrderRepository) ItemQuantities(ctx context.Context, merchantID string, start, end time.Time) ([]models.ItemQuantity, error) {
	items := []models.ItemQuantity{}
	if err := r.db.SelectContext(ctx, &items, itemQuantitiesQuery, merchantID, start, end); err != nil {
		return nil, fmt.Errorf("%w: item quantities: %v", models.ErrDataAccess, err)
	}
	return items, nil
}

// MonthlySales sums distinct order values per calendar month
func (r *OrderRepository) MonthlySales(ctx context.Context, merchantID string) ([]models.MonthlySalesPoint, error) {
	points := []models.MonthlySalesPoint{}
	if err := r.db.SelectContext(ctx, &points, monthlySalesQuery, merchantID); err != nil {
		return nil, fmt.Errorf("%w: monthly sales: %v", models.ErrDataAccess, err)
	}
	return points, nil
}
