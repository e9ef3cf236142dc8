package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	TransportREST = "rest"
	TransportSDK  = "sdk"
)

type Config struct {
	Env    string
	Port   string
	// RequestTimeout bounds each request, outbound call included.
	RequestTimeout time.Duration
	LLM    LLMConfig
	CORS   CORSConfig
	OTel   OTelConfig
	Gemini GeminiConfig
	OpenAI OpenAIConfig
}

type LLMConfig struct {
	Provider string // "gemini" or "openai"
}

type GeminiConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	Transport string // "rest" or "sdk"
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type CORSConfig struct {
	AllowedOrigin string
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

// Load reads configuration from the environment. Outside production a .env
// file in the working directory is loaded first when present.
//
// A missing API key is not an error here: the server still starts and the
// gateway reports the misconfiguration per request.
func Load() (Config, error) {
	if getEnv("APP_ENV", "development") != "production" {
		_ = godotenv.Load()
	}

	cfg := Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		LLM: LLMConfig{
			Provider: strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		},
		Gemini: GeminiConfig{
			APIKey:    getEnv("GEMINI_API_KEY", ""),
			Model:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			BaseURL:   getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Transport: strings.ToLower(getEnv("GEMINI_TRANSPORT", TransportREST)),
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			BaseURL: getEnv("OPENAI_BASE_URL", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		CORS: CORSConfig{
			AllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "*"),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "state-analysis-gateway"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
	}

	timeout, err := getEnvDuration("REQUEST_TIMEOUT", 60*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}
	cfg.RequestTimeout = timeout

	switch cfg.LLM.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return Config{}, fmt.Errorf("unsupported LLM_PROVIDER: %s", cfg.LLM.Provider)
	}

	switch cfg.Gemini.Transport {
	case TransportREST, TransportSDK:
	default:
		return Config{}, fmt.Errorf("unsupported GEMINI_TRANSPORT: %s", cfg.Gemini.Transport)
	}

	return cfg, nil
}

// Credential returns the API key of the selected provider.
func (c Config) Credential() string {
	if c.LLM.Provider == ProviderOpenAI {
		return c.OpenAI.APIKey
	}
	return c.Gemini.APIKey
}

// CredentialEnv names the environment variable Credential reads.
func (c Config) CredentialEnv() string {
	if c.LLM.Provider == ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
