package models

import (
	"database/sql"
	"time"
)

// Merchant represents a row of the merchants table
type Merchant struct {
	MerchantID   string         `db:"merchant_id" json:"merchant_id"`
	MerchantName string         `db:"merchant_name" json:"merchant_name"`
	PasswordHash sql.NullString `db:"password_hash" json:"-"`
}

// LoginRequest is the body of POST /api/login
type LoginRequest struct {
	MerchantID string `json:"merchant_id" binding:"required"`
	Password   string `json:"password"`
}

// Token is the issued access token
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// HistoryMessage is one turn of client supplied chat history
type HistoryMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// PromptRequest is the body of POST /api/chat
type PromptRequest struct {
	Message string           `json:"message" binding:"required"`
	History []HistoryMessage `json:"history"`
}

// FunctionCallInfo echoes the function the model asked for
type FunctionCallInfo struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ChatResponse represents the response from the chat API
type ChatResponse struct {
	Response     string            `json:"response"`
	FunctionCall *FunctionCallInfo `json:"function_call,omitempty"`
	Data         any               `json:"data,omitempty"`
}

// OrderLine is one item line of combined_order_view
type OrderLine struct {
	OrderID    string    `db:"order_id"`
	OrderTime  time.Time `db:"order_time"`
	ItemID     string    `db:"item_id"`
	ItemName   string    `db:"item_name"`
	Quantity   float64   `db:"quantity"`
	OrderValue float64   `db:"order_value"`
}

// ItemQuantity is the per-item actual total over a window
type ItemQuantity struct {
	ItemName      string  `db:"item_name" json:"item_name"`
	TotalQuantity int     `db:"total_quantity" json:"total_quantity"`
	TotalSales    float64 `db:"total_sales" json:"total_sales"`
}

// ActualQuantities is the response of GET /api/actual_quantities
type ActualQuantities struct {
	Days      int            `json:"days"`
	StartDate string         `json:"start_date"`
	EndDate   string         `json:"end_date"`
	Items     []ItemQuantity `json:"items"`
}

// MonthlySalesPoint is the revenue of a single calendar month
type MonthlySalesPoint struct {
	Month      string  `db:"month" json:"month"`
	TotalSales float64 `db:"total_sales" json:"total_sales"`
}

// MonthlySales is the response of GET /api/monthly_sales
type MonthlySales struct {
	MerchantID   string              `json:"merchant_id"`
	MonthlySales []MonthlySalesPoint `json:"monthly_sales"`
}

// Customer is a customer of a merchant with their order summary
type Customer struct {
	CustomerID    string    `db:"customer_id" json:"customer_id"`
	LastOrderDate time.Time `db:"last_order_date" json:"last_order_date"`
	FavoriteFood  string    `db:"favorite_food" json:"favorite_food"`
}

// CustomerContact is the email address on file for a customer
type CustomerContact struct {
	CustomerID string `db:"customer_id" json:"customer_id"`
	Email      string `db:"email" json:"email"`
}

// InsightsRequest is the body of POST /api/generate_insights
type InsightsRequest struct {
	ChartTitle string           `json:"chart_title" binding:"required"`
	ChartData  []map[string]any `json:"chart_data" binding:"required"`
}

// InsightsResponse is the generated chart commentary
type InsightsResponse struct {
	Insight string `json:"insight"`
}
