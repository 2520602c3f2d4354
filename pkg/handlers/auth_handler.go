package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"merchant-chat-api/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Authenticator issues and checks merchant access tokens
type Authenticator interface {
	Login(ctx context.Context, merchantID, password string) (*models.Token, error)
	Authenticate(ctx context.Context, token string) (*models.Merchant, error)
}

// AuthHandler serves login and guards the merchant API
type AuthHandler struct {
	auth   Authenticator
	logger *logrus.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth Authenticator, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// Login exchanges a merchant id (and password when one is set) for a bearer token
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "merchant_id is required")
		return
	}
	token, err := h.auth.Login(c.Request.Context(), strings.TrimSpace(req.MerchantID), req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// Middleware requires a valid "Authorization: Bearer <token>" header and stores the
// merchant in the request context
func (h *AuthHandler) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			respondError(c, h.logger, fmt.Errorf("%w: Not authenticated", models.ErrUnauthorized))
			return
		}

		merchant, err := h.auth.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, models.ErrUnauthorized) {
				err = fmt.Errorf("%w: Could not validate token", models.ErrUnauthorized)
			}
			respondError(c, h.logger, err)
			return
		}
		c.Set(ctxMerchant, merchant)
		c.Set(ctxMerchantID, merchant.MerchantID)
		c.Next()
	}
}
