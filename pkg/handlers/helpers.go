package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"merchant-chat-api/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Context keys set by AuthMiddleware
const (
	ctxMerchant   = "merchant"
	ctxMerchantID = "merchant_id"
)

// errorKinds maps error sentinels to status codes, most specific first
var errorKinds = []struct {
	kind   error
	status int
}{
	{models.ErrValidation, http.StatusBadRequest},
	{models.ErrUnauthorized, http.StatusUnauthorized},
	{models.ErrNotFound, http.StatusNotFound},
	{models.ErrUpstream, http.StatusServiceUnavailable},
	{models.ErrModel, http.StatusInternalServerError},
	{models.ErrDataAccess, http.StatusInternalServerError},
}

// respondError writes {"detail": ...} with the status matching err.
// Server side failures are logged and their cause is not exposed.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	status := http.StatusInternalServerError
	var kind error
	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			status, kind = k.status, k.kind
			break
		}
	}

	detail := "Internal server error"
	switch {
	case status == http.StatusInternalServerError && kind == models.ErrModel:
		detail = "Forecast could not be generated"
	case status == http.StatusInternalServerError && kind == models.ErrDataAccess:
		detail = "Database error"
	case status < http.StatusInternalServerError || status == http.StatusServiceUnavailable:
		detail = strings.TrimPrefix(err.Error(), kind.Error()+": ")
	}

	entry := logger.WithError(err).WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"status": status,
	})
	if id := c.GetString(ctxMerchantID); id != "" {
		entry = entry.WithField(ctxMerchantID, id)
	}
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

// badRequest rejects malformed input that never reached a service
func badRequest(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": detail})
}

// merchantID returns the authenticated merchant's id
func merchantID(c *gin.Context) string {
	return c.GetString(ctxMerchantID)
}

// queryInt parses an optional integer query parameter
func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
