package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/BerylCAtieno/state-analysis-gateway/internal/config"
	"github.com/BerylCAtieno/state-analysis-gateway/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// UnknownErrorMessage is reported when an upstream failure carries no message.
const UnknownErrorMessage = "Unknown error"

// Generator sends one prompt to a text-generation service and returns the
// first generated text. An empty string with a nil error means the service
// answered but produced no text.
type Generator interface {
	Generate(ctx context.Context, prompt models.Prompt) (string, error)
}

// UpstreamError is a non-success answer from the text-generation service.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d: %s", e.StatusCode, e.Message)
}

func newUpstreamError(status int, message string) *UpstreamError {
	if message == "" {
		message = UnknownErrorMessage
	}
	return &UpstreamError{StatusCode: status, Message: message}
}

// New builds the Generator selected by cfg. The caller must check that the
// provider credential is present first.
func New(ctx context.Context, cfg config.Config) (Generator, error) {
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAI, tracedHTTPClient()), nil
	case config.ProviderGemini:
		if cfg.Gemini.Transport == config.TransportSDK {
			client, err := NewGeminiSDKClient(ctx, cfg.Gemini, tracedHTTPClient())
			if err != nil {
				return nil, err
			}
			return client, nil
		}
		return NewGeminiClient(cfg.Gemini, tracedHTTPClient()), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
	}
}

// No client timeout: the inbound request context bounds the call.
func tracedHTTPClient() *http.Client {
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
}
