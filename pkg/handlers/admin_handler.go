package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync/atomic"

	config "merchant-chat-api/configs"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminHandler toggles maintenance mode and reports health
type AdminHandler struct {
	username    string
	password    string
	maintenance atomic.Bool
	logger      *logrus.Logger
}

// NewAdminHandler creates a new AdminHandler. Admin endpoints reject every request when
// no admin credentials are configured.
func NewAdminHandler(cfg *config.Config, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		username: cfg.AdminUsername,
		password: cfg.AdminPassword,
		logger:   logger,
	}
}

// AdminCredentials is the request body of the maintenance endpoints
type AdminCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AdminHandler) authorized(c *gin.Context) bool {
	var input AdminCredentials
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Username and password are required")
		return false
	}
	if h.username == "" || h.password == "" ||
		subtle.ConstantTimeCompare([]byte(input.Username), []byte(h.username)) != 1 ||
		subtle.ConstantTimeCompare([]byte(input.Password), []byte(h.password)) != 1 {
		h.logger.WithField("username", input.Username).Warn("Rejected admin credentials")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid credentials"})
		return false
	}
	return true
}

// StartMaintenance puts the API into maintenance mode
func (h *AdminHandler) StartMaintenance(c *gin.Context) {
	if !h.authorized(c) {
		return
	}
	h.maintenance.Store(true)
	h.logger.Warn("Maintenance mode started")
	c.JSON(http.StatusOK, gin.H{"message": "Maintenance mode started"})
}

// StopMaintenance leaves maintenance mode
func (h *AdminHandler) StopMaintenance(c *gin.Context) {
	if !h.authorized(c) {
		return
	}
	h.maintenance.Store(false)
	h.logger.Info("Maintenance mode stopped")
	c.JSON(http.StatusOK, gin.H{"message": "Maintenance mode stopped"})
}

// GetHealthStatus reports whether maintenance mode is on
func (h *AdminHandler) GetHealthStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"isMaintenanceMode": h.maintenance.Load()})
}

// HealthCheck answers load balancer probes
func (h *AdminHandler) HealthCheck(c *gin.Context) {
	if h.maintenance.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "message": "Server is in maintenance mode"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MaintenanceMiddleware rejects API calls while maintenance mode is on.
// Admin and health routes stay reachable.
func (h *AdminHandler) MaintenanceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if h.maintenance.Load() && !strings.HasPrefix(path, "/api/admin") && path != "/health" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"detail": "Server is in maintenance mode"})
			return
		}
		c.Next()
	}
}
