package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	testCases := map[string]string{
		"PORT":                        "9000",
		"ENVIRONMENT":                 "test",
		"DATABASE_URI":                "postgres://u:p@db:5432/orders?sslmode=disable",
		"JWT_SECRET_KEY":              "secret",
		"ACCESS_TOKEN_EXPIRE_MINUTES": "15",
		"LLM_PROVIDER":                "OLLAMA",
		"LLM_TIMEOUT":                 "45",
		"FORECAST_CUTOFF_DATE":        "2024-01-31",
		"CORS_ALLOWED_ORIGINS":        "http://a.test, http://b.test,",
		"EMAIL_SENDER_ENABLED":        "true",
	}
	for key, value := range testCases {
		t.Setenv(key, value)
	}

	cfg := LoadConfig()

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be '9000', got '%s'", cfg.Port)
	}
	if cfg.Environment != "test" {
		t.Errorf("Expected Environment to be 'test', got '%s'", cfg.Environment)
	}
	if cfg.AccessTokenExpiry != 15*time.Minute {
		t.Errorf("Expected AccessTokenExpiry to be 15m, got %s", cfg.AccessTokenExpiry)
	}
	if cfg.LLMProvider != "ollama" {
		t.Errorf("Expected LLMProvider to be 'ollama', got '%s'", cfg.LLMProvider)
	}
	if cfg.LLMTimeout != 45*time.Second {
		t.Errorf("Expected LLMTimeout to be 45s, got %s", cfg.LLMTimeout)
	}
	if got := cfg.ForecastCutoff(); !got.Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected cutoff 2024-01-31, got %s", got)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://b.test" {
		t.Errorf("Unexpected CORS origins: %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.EmailSenderEnabled {
		t.Error("Expected EmailSenderEnabled to be true")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	vars := []string{
		"PORT", "ENVIRONMENT", "LLM_PROVIDER", "GEMINI_MODEL",
		"ACCESS_TOKEN_EXPIRE_MINUTES", "FORECAST_CUTOFF_DATE", "ACTUALS_END_DATE",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}

	cfg := LoadConfig()

	if cfg.Port != "8000" {
		t.Errorf("Expected default Port to be '8000', got '%s'", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("Expected default Environment to be 'development', got '%s'", cfg.Environment)
	}
	if cfg.LLMProvider != "gemini" {
		t.Errorf("Expected default LLMProvider to be 'gemini', got '%s'", cfg.LLMProvider)
	}
	if cfg.GeminiModel != "gemini-1.5-flash-latest" {
		t.Errorf("Unexpected default GeminiModel '%s'", cfg.GeminiModel)
	}
	if cfg.AccessTokenExpiry != 30*time.Minute {
		t.Errorf("Expected default expiry 30m, got %s", cfg.AccessTokenExpiry)
	}
	if cfg.ForecastCutoffDate != "2023-11-30" || cfg.ActualsEndDate != "2023-12-31" {
		t.Errorf("Unexpected default dates %s / %s", cfg.ForecastCutoffDate, cfg.ActualsEndDate)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("EMAIL_SENDER_ENABLED", "false")

	cfg := LoadConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}

	cfg.GeminiAPIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Expected missing GEMINI_API_KEY to fail validation")
	}

	cfg.GeminiAPIKey = "key"
	cfg.ForecastCutoffDate = "30/11/2023"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected malformed cutoff date to fail validation")
	}

	cfg.ForecastCutoffDate = "2023-11-30"
	cfg.LLMProvider = "azure"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected unknown provider to fail validation")
	}
}
