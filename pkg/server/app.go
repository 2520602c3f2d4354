package server

import (
	"context"
	"fmt"
	"os"

	config "merchant-chat-api/configs"
	"merchant-chat-api/pkg/database"
	"merchant-chat-api/pkg/handlers"
	"merchant-chat-api/pkg/llm"
	"merchant-chat-api/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// App is the fully wired application
type App struct {
	Router *gin.Engine
	DB     *sqlx.DB
	logger *logrus.Logger
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT
func NewLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// NewLLMClient creates the configured chat model provider
func NewLLMClient(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "ollama":
		return llm.NewOllamaClient(llm.OllamaConfig{
			BaseURL: cfg.OllamaBaseURL,
			Token:   cfg.OllamaAPIKey,
			Model:   cfg.OllamaModel,
			Timeout: cfg.LLMTimeout,
		}, logger)
	case "gemini", "":
		return llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
			Timeout: cfg.LLMTimeout,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}

// New connects to the database and the LLM provider and builds the router
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	prompt, err := config.LoadSystemPrompt(cfg.SystemPromptPath)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDB(cfg.DatabaseURI, database.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		AutoMigrate:  cfg.DBAutoMigrate,
	}, logger)
	if err != nil {
		return nil, err
	}

	client, err := NewLLMClient(ctx, cfg, logger)
	if err != nil {
		database.CloseDB(db, logger)
		return nil, fmt.Errorf("LLM client: %w", err)
	}
	logger.WithField("provider", cfg.LLMProvider).Info("LLM client ready")

	merchants := database.NewMerchantRepository(db)
	orders := database.NewOrderRepository(db)
	customers := database.NewCustomerRepository(db)

	return &App{
		Router: Wire(cfg, logger, Stores{Merchants: merchants, Orders: orders, Customers: customers}, client, prompt.BuildSystemPrompt()),
		DB:     db,
		logger: logger,
	}, nil
}

// Stores are the data sources the services read from
type Stores struct {
	Merchants services.MerchantStore
	Orders    services.OrderStore
	Customers services.CustomerStore
}

// Wire builds services and handlers over the given stores and model client
func Wire(cfg *config.Config, logger *logrus.Logger, stores Stores, client llm.Client, systemPrompt string) *gin.Engine {
	auth := services.NewAuthService(stores.Merchants, cfg.JWTSecretKey, cfg.AccessTokenExpiry, logger)
	quantities := services.NewQuantityForecastService(stores.Orders, cfg.ForecastCutoff(), logger)
	sales := services.NewSalesForecastService(stores.Orders, logger)
	reports := services.NewExtractionService(stores.Orders, stores.Customers, cfg.ActualsEnd(), logger)
	mailer := services.NewEmailService(services.EmailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPass,
		Sender:   cfg.SMTPSender,
		Enabled:  cfg.EmailSenderEnabled,
	}, logger)
	chat := services.NewChatService(client, systemPrompt, services.ChatDependencies{
		Quantities: quantities,
		Sales:      sales,
		Reports:    reports,
		Mailer:     mailer,
	}, logger)
	insights := services.NewInsightsService(client, logger)
	monitoring := services.NewMonitoringService(services.DefaultLogCapacity, logger)

	return NewRouter(cfg, Handlers{
		Auth:       handlers.NewAuthHandler(auth, logger),
		Chat:       handlers.NewChatHandler(chat, logger),
		Forecast:   handlers.NewForecastHandler(quantities, sales, logger),
		Extraction: handlers.NewExtractionHandler(reports, logger),
		Insights:   handlers.NewInsightsHandler(insights, logger),
		Monitoring: handlers.NewMonitoringHandler(monitoring),
		Admin:      handlers.NewAdminHandler(cfg, logger),
	}, monitoring)
}

// Close releases the database pool
func (a *App) Close() {
	database.CloseDB(a.DB, a.logger)
}
