package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"merchant-chat-api/pkg/models"
)

// customersQuery returns each customer's last order and most ordered item.
// $2 optionally restricts to customers whose last order is at or after it.
const customersQuery = `
WITH customer_orders AS (
    SELECT td.eater_id::text AS eater_id, td.order_time, i.item_name
    FROM transaction_data td
    JOIN transaction_items ti ON td.order_id = ti.order_id
    JOIN items i ON ti.item_id = i.item_id
    WHERE td.merchant_id::text = $1
),
last_order AS (
    SELECT eater_id, MAX(order_time) AS last_order_date
    FROM customer_orders
    GROUP BY eater_id
),
favorite_food AS (
    SELECT eater_id, item_name,
           ROW_NUMBER() OVER (PARTITION BY eater_id ORDER BY COUNT(*) DESC, item_name) AS rn
    FROM customer_orders
    GROUP BY eater_id, item_name
)
SELECT lo.eater_id AS customer_id, lo.last_order_date, COALESCE(ff.item_name, '') AS favorite_food
FROM last_order lo
JOIN favorite_food ff ON lo.eater_id = ff.eater_id AND ff.rn = 1
WHERE $2::timestamp IS NULL OR lo.last_order_date >= $2::timestamp
ORDER BY lo.last_order_date DESC`

const contactsQuery = `
SELECT customer_id, email
FROM customer_contacts
WHERE merchant_id = $1 AND customer_id = ANY($2)
ORDER BY customer_id`

// CustomerRepository reads customer summaries and their contact details
type CustomerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository creates a CustomerRepository
func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Customers lists a merchant's customers, newest last order first.
// since filters on the last order date when it is non-nil.
func (r *CustomerRepository) Customers(ctx context.Context, merchantID string, since *time.Time) ([]models.Customer, error) {
	var bound sql.NullTime
	if since != nil {
		bound = sql.NullTime{Time: *since, Valid: true}
	}
	customers := []models.Customer{}
	if err := r.db.SelectContext(ctx, &customers, customersQuery, merchantID, bound); err != nil {
		return nil, fmt.Errorf("%w: customers: %v", models.ErrDataAccess, err)
	}
	return customers, nil
}

// Contacts returns the email addresses on file for the given customers
func (r *CustomerRepository) Contacts(ctx context.Context, merchantID string, customerIDs []string) ([]models.CustomerContact, error) {
	contacts := []models.CustomerContact{}
	if len(customerIDs) == 0 {
		return contacts, nil
	}
	if err := r.db.SelectContext(ctx, &contacts, contactsQuery, merchantID, pq.Array(customerIDs)); err != nil {
		return nil, fmt.Errorf("%w: customer contacts: %v", models.ErrDataAccess, err)
	}
	return contacts, nil
}
