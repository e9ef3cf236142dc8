package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BerylCAtieno/state-analysis-gateway/internal/config"
	"github.com/BerylCAtieno/state-analysis-gateway/internal/gateway"
	"github.com/BerylCAtieno/state-analysis-gateway/internal/llm"
	"github.com/BerylCAtieno/state-analysis-gateway/internal/logger"
	"github.com/BerylCAtieno/state-analysis-gateway/internal/middleware"
	"github.com/BerylCAtieno/state-analysis-gateway/internal/router"
	"github.com/BerylCAtieno/state-analysis-gateway/internal/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// Telemetry first: the production logger exports through its provider.
	tel, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if tel != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	}

	// A missing key keeps the server up; the gateways answer 500 until it is set.
	var generator llm.Generator
	if cfg.Credential() == "" {
		slog.ErrorContext(ctx, "api key not configured, analysis requests will fail",
			"env", cfg.CredentialEnv())
	} else {
		generator, err = llm.New(ctx, cfg)
		if err != nil {
			slog.ErrorContext(ctx, "failed to create text-generation client", "error", err)
			os.Exit(1)
		}
		if closer, ok := generator.(io.Closer); ok {
			defer closer.Close()
		}
		slog.InfoContext(ctx, "text-generation client ready",
			"provider", cfg.LLM.Provider,
			"transport", cfg.Gemini.Transport)
	}

	analysis := gateway.New(gateway.Config{
		Mode:          gateway.ModeProfile,
		Credential:    cfg.Credential(),
		CORS:          true,
		AllowedOrigin: cfg.CORS.AllowedOrigin,
	}, generator)

	prompt := gateway.New(gateway.Config{
		Mode:       gateway.ModeFreeText,
		Credential: cfg.Credential(),
	}, generator)

	card, err := gateway.NewCardHandler(gateway.Card{
		Name:        cfg.OTel.ServiceName,
		Description: "Generates internship-oriented analyses of U.S. states from their economic and academic profile.",
		Version:     cfg.OTel.ServiceVersion,
		Model:       modelName(cfg),
		Endpoints: []gateway.CardEndpoint{
			analysis.Endpoint(router.AnalysisPath),
			prompt.Endpoint(router.PromptPath),
		},
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to build agent card", "error", err)
		os.Exit(1)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if cfg.OTel.Enabled() {
		engine.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())
	engine.Use(middleware.Deadline(cfg.RequestTimeout))

	router.SetupRoutes(engine, router.Handlers{
		Analysis: analysis,
		Prompt:   prompt,
		Card:     card,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout(cfg.RequestTimeout),
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting",
			"port", cfg.Port,
			"analysis", router.AnalysisPath,
			"prompt", router.PromptPath,
			"card", router.CardPath,
			"request_timeout", cfg.RequestTimeout.String())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if tel != nil {
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func modelName(cfg config.Config) string {
	if cfg.LLM.Provider == config.ProviderOpenAI {
		return cfg.OpenAI.Model
	}
	return cfg.Gemini.Model
}

// writeTimeout leaves room to write the error response after the request
// deadline fires.
func writeTimeout(requestTimeout time.Duration) time.Duration {
	if requestTimeout <= 0 {
		return 90 * time.Second
	}
	return requestTimeout + 10*time.Second
}
