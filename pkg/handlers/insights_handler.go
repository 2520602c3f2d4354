package handlers

import (
	"context"
	"net/http"

	"merchant-chat-api/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// InsightGenerator comments on a chart
type InsightGenerator interface {
	Generate(ctx context.Context, req models.InsightsRequest) (*models.InsightsResponse, error)
}

// InsightsHandler serves chart insights
type InsightsHandler struct {
	insights InsightGenerator
	logger   *logrus.Logger
}

// NewInsightsHandler creates a new InsightsHandler
func NewInsightsHandler(insights InsightGenerator, logger *logrus.Logger) *InsightsHandler {
	return &InsightsHandler{insights: insights, logger: logger}
}

// GenerateInsights returns bullet point insights for the posted chart
func (h *InsightsHandler) GenerateInsights(c *gin.Context) {
	var req models.InsightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "chart_title and chart_data are required")
		return
	}
	resp, err := h.insights.Generate(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
