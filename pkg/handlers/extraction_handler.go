package handlers

import (
	"context"
	"net/http"

	"merchant-chat-api/pkg/models"
	"merchant-chat-api/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Reports are the read-only merchant queries
type Reports interface {
	ActualQuantities(ctx context.Context, merchantID string, days int) (*models.ActualQuantities, error)
	MonthlySales(ctx context.Context, merchantID string) (*models.MonthlySales, error)
	Customers(ctx context.Context, merchantID string, daysAgo *int) ([]models.Customer, error)
}

// ExtractionHandler serves reporting endpoints
type ExtractionHandler struct {
	reports Reports
	logger  *logrus.Logger
}

// NewExtractionHandler creates a new ExtractionHandler
func NewExtractionHandler(reports Reports, logger *logrus.Logger) *ExtractionHandler {
	return &ExtractionHandler{reports: reports, logger: logger}
}

// ActualQuantities returns per-item sales over ?days=N (1..365, default 7)
func (h *ExtractionHandler) ActualQuantities(c *gin.Context) {
	days, ok := queryInt(c, "days", services.DefaultDays)
	if !ok {
		badRequest(c, "days must be an integer")
		return
	}
	result, err := h.reports.ActualQuantities(c.Request.Context(), merchantID(c), days)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MonthlySales returns revenue per month
func (h *ExtractionHandler) MonthlySales(c *gin.Context) {
	result, err := h.reports.MonthlySales(c.Request.Context(), merchantID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Customers lists the merchant's customers, optionally only those who ordered within ?daysAgo=N
func (h *ExtractionHandler) Customers(c *gin.Context) {
	var daysAgo *int
	if c.Query("daysAgo") != "" {
		n, ok := queryInt(c, "daysAgo", 0)
		if !ok {
			badRequest(c, "daysAgo must be an integer")
			return
		}
		daysAgo = &n
	}
	customers, err := h.reports.Customers(c.Request.Context(), merchantID(c), daysAgo)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": customers})
}
