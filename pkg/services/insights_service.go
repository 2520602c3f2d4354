package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"merchant-chat-api/pkg/llm"
	"merchant-chat-api/pkg/models"
)

const insightsInstruction = "You are a business analyst for a restaurant merchant. " +
	"Write 3 to 5 short bullet points with concrete, actionable insights about the chart you are given. " +
	"Refer to the actual numbers. Do not invent data that is not in the chart."

// InsightsService asks the model to comment on dashboard charts
type InsightsService struct {
	client llm.Client
	logger *logrus.Logger
}

// NewInsightsService creates a new InsightsService
func NewInsightsService(client llm.Client, logger *logrus.Logger) *InsightsService {
	return &InsightsService{client: client, logger: logger}
}

// Generate returns bullet point insights for a chart
func (s *InsightsService) Generate(ctx context.Context, req models.InsightsRequest) (*models.InsightsResponse, error) {
	title := strings.TrimSpace(req.ChartTitle)
	if title == "" {
		return nil, fmt.Errorf("%w: chart_title is required", models.ErrValidation)
	}
	if len(req.ChartData) == 0 {
		return nil, fmt.Errorf("%w: chart_data must not be empty", models.ErrValidation)
	}

	data, err := json.MarshalIndent(req.ChartData, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: chart_data is not serializable: %v", models.ErrValidation, err)
	}
	prompt := fmt.Sprintf("Chart title: %s\n\nChart data (JSON):\n%s", title, data)

	text, err := s.client.Generate(ctx, insightsInstruction, prompt)
	if err != nil {
		s.logger.WithError(err).WithField("chart_title", title).Error("Insight generation failed")
		return nil, fmt.Errorf("%w: %s", models.ErrUpstream, MsgUpstreamFailure)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: %s", models.ErrUpstream, MsgUpstreamFailure)
	}
	return &models.InsightsResponse{Insight: text}, nil
}
