package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BerylCAtieno/state-analysis-gateway/internal/llm"
	"github.com/BerylCAtieno/state-analysis-gateway/internal/logger"
	"github.com/BerylCAtieno/state-analysis-gateway/internal/models"
	"github.com/BerylCAtieno/state-analysis-gateway/internal/profiler"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/BerylCAtieno/state-analysis-gateway/internal/gateway"

// FallbackAnalysis is returned when the service answers without any text.
const FallbackAnalysis = "No response available"

// Mode selects how the request body becomes a prompt.
type Mode int

const (
	// ModeProfile reads {"state": {...}} and renders the state analysis prompt.
	ModeProfile Mode = iota
	// ModeFreeText reads {"prompt": "..."} and forwards it as is.
	ModeFreeText
)

func (m Mode) String() string {
	if m == ModeFreeText {
		return "free_text"
	}
	return "profile"
}

type Config struct {
	Mode Mode
	// Credential is the server-held API key of the text-generation service.
	// Empty means the deployment is misconfigured.
	Credential string
	// CORS enables preflight handling and cross-origin headers.
	CORS bool
	// AllowedOrigin defaults to "*".
	AllowedOrigin string
}

// Gateway is the analysis endpoint: validate, build a prompt, make one
// generation call and relay the text.
type Gateway struct {
	cfg       Config
	generator llm.Generator
}

// New builds a gateway. generator may be nil when the credential is missing.
func New(cfg Config, generator llm.Generator) *Gateway {
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = "*"
	}
	return &Gateway{
		cfg:       cfg,
		generator: generator,
	}
}

// Handle serves every method on the gateway route.
func (g *Gateway) Handle(c *gin.Context) {
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
		Mode:      g.cfg.Mode.String(),
		Component: "gateway.analysis",
	})
	c.Request = c.Request.WithContext(ctx)

	if g.cfg.CORS {
		setCORSHeaders(c.Writer.Header(), g.cfg.AllowedOrigin)
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusOK)
			return
		}
	}

	if c.Request.Method != http.MethodPost {
		g.fail(c, errMethodNotAllowed())
		return
	}

	if g.cfg.Credential == "" || g.generator == nil {
		slog.ErrorContext(ctx, "text-generation credential is not configured")
		g.fail(c, errServerMisconfigured())
		return
	}

	prompt, gerr := g.buildPrompt(c)
	if gerr != nil {
		g.fail(c, gerr)
		return
	}

	text, gerr := g.generate(ctx, prompt)
	if gerr != nil {
		g.fail(c, gerr)
		return
	}

	if strings.TrimSpace(text) == "" {
		slog.WarnContext(ctx, "generation returned no text, using fallback")
		text = FallbackAnalysis
	}

	c.JSON(http.StatusOK, models.AnalysisResponse{Analysis: text})
}

// generate makes the single outbound call inside a "gateway.generate" span.
func (g *Gateway) generate(ctx context.Context, prompt models.Prompt) (string, *Error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "gateway.generate",
		trace.WithAttributes(
			attribute.String("gateway.mode", g.cfg.Mode.String()),
			attribute.Bool("gateway.system_instruction", prompt.System != ""),
		))
	defer span.End()

	text, err := g.generator.Generate(ctx, prompt)
	if err != nil {
		gerr := classifyGenerateError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, gerr.Kind.String())
		span.SetAttributes(attribute.Int("http.response.status_code", gerr.Status))
		return "", gerr
	}

	span.SetAttributes(attribute.Bool("gateway.fallback", strings.TrimSpace(text) == ""))
	return text, nil
}

func (g *Gateway) buildPrompt(c *gin.Context) (models.Prompt, *Error) {
	if g.cfg.Mode == ModeFreeText {
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			return models.Prompt{}, errInvalidInput(msgInvalidPrompt, err)
		}
		if req.Prompt == "" {
			return models.Prompt{}, errInvalidInput(msgInvalidPrompt, nil)
		}
		return profiler.FreeTextPrompt(req.Prompt), nil
	}

	var req struct {
		State *models.Profile `json:"state"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		return models.Prompt{}, errInvalidInput(msgInvalidState, err)
	}
	if !req.State.Valid() {
		return models.Prompt{}, errInvalidInput(msgInvalidState, nil)
	}
	return profiler.BuildPrompt(*req.State), nil
}

func (g *Gateway) fail(c *gin.Context, e *Error) {
	ctx := c.Request.Context()
	switch e.Kind {
	case KindUpstream:
		slog.ErrorContext(ctx, "text-generation service returned an error",
			"status", e.Status,
			"details", logger.Truncate(e.Details, 500))
	case KindInternal:
		slog.ErrorContext(ctx, "internal error processing request", "error", e.Err)
	case KindInvalidInput:
		if e.Err != nil {
			slog.DebugContext(ctx, "invalid request body", "error", e.Err)
		}
	}

	c.AbortWithStatusJSON(e.Status, e.Response())
}
