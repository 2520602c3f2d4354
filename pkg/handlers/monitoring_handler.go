package handlers

import (
	"net/http"

	"merchant-chat-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// MonitoringHandler serves the request dashboard
type MonitoringHandler struct {
	Service *services.MonitoringService
}

// NewMonitoringHandler creates a new MonitoringHandler
func NewMonitoringHandler(service *services.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{Service: service}
}

// periodHours maps ?period= to hours; unknown periods fall back to a day
var periodHours = map[string]int{
	"1h":  1,
	"24h": 24,
	"7d":  24 * 7,
}

// GetLogs returns aggregated request logs for ?period=1h|24h|7d
func (h *MonitoringHandler) GetLogs(c *gin.Context) {
	hours, ok := periodHours[c.DefaultQuery("period", "24h")]
	if !ok {
		hours = 24
	}
	c.JSON(http.StatusOK, h.Service.GetDashboardData(hours))
}
