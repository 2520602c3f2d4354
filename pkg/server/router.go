// Package server wires configuration, storage, the LLM provider and the HTTP handlers
// into a gin engine shared by the standalone server and the serverless entry point.
package server

import (
	"net/http"
	"time"

	config "merchant-chat-api/configs"
	"merchant-chat-api/pkg/handlers"
	"merchant-chat-api/pkg/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Auth       *handlers.AuthHandler
	Chat       *handlers.ChatHandler
	Forecast   *handlers.ForecastHandler
	Extraction *handlers.ExtractionHandler
	Insights   *handlers.InsightsHandler
	Monitoring *handlers.MonitoringHandler
	Admin      *handlers.AdminHandler
}

// NewRouter builds the gin engine with middleware and all routes
func NewRouter(cfg *config.Config, h Handlers, monitoring *services.MonitoringService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(monitoring.LoggingMiddleware())
	r.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))
	r.Use(h.Admin.MaintenanceMiddleware())

	r.GET("/health", h.Admin.HealthCheck)

	api := r.Group("/api")
	api.POST("/login", h.Auth.Login)

	admin := api.Group("/admin")
	{
		admin.GET("/health-status", h.Admin.GetHealthStatus)
		admin.POST("/maintenance/start", h.Admin.StartMaintenance)
		admin.POST("/maintenance/stop", h.Admin.StopMaintenance)
	}

	protected := api.Group("")
	protected.Use(h.Auth.Middleware())
	{
		protected.GET("/getCustomersByMerchant", h.Extraction.Customers)
		protected.POST("/chat", h.Chat.Chat)
		protected.GET("/forecast_quantity", h.Forecast.ForecastQuantity)
		protected.GET("/forecast_quantity/export", h.Forecast.ExportQuantity)
		protected.GET("/forecast_sales", h.Forecast.ForecastSales)
		protected.GET("/actual_quantities", h.Extraction.ActualQuantities)
		protected.GET("/monthly_sales", h.Extraction.MonthlySales)
		protected.POST("/generate_insights", h.Insights.GenerateInsights)
		protected.GET("/monitoring/logs", h.Monitoring.GetLogs)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})
	return r
}

// corsConfig allows every origin unless an allow list is configured
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", services.RequestIDHeader},
		ExposeHeaders: []string{services.RequestIDHeader, "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
