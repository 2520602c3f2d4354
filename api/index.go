package handler

import (
	"context"
	"net/http"
	"sync"

	config "merchant-chat-api/configs"
	"merchant-chat-api/pkg/server"

	"github.com/sirupsen/logrus"
)

var (
	app     http.Handler
	initErr error
	once    sync.Once
)

// setupApp initializes the application once per serverless instance.
// Environment variables come from the platform, so no .env file is read here.
func setupApp() (http.Handler, error) {
	once.Do(func() {
		cfg := config.LoadConfig()
		logger := server.NewLogger(cfg)
		if err := cfg.Validate(); err != nil {
			initErr = err
			logger.WithError(err).Error("Configuration rejected")
			return
		}
		a, err := server.New(context.Background(), cfg, logger)
		if err != nil {
			initErr = err
			logger.WithError(err).Error("Application setup failed")
			return
		}
		app = a.Router
		logger.Info("Serverless application initialized")
	})
	return app, initErr
}

// Handler is the entry point for every serverless request
func Handler(w http.ResponseWriter, r *http.Request) {
	h, err := setupApp()
	if err != nil {
		logrus.WithError(err).Error("Serving without an application")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"detail":"Service unavailable"}`))
		return
	}
	h.ServeHTTP(w, r)
}
