package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/BerylCAtieno/state-analysis-gateway/internal/config"
	"github.com/BerylCAtieno/state-analysis-gateway/internal/models"
	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const apiKeyHeader = "x-goog-api-key"

// errRetrySuppressed is returned when the SDK tries a second attempt within
// one Generate call.
var errRetrySuppressed = errors.New("gemini sdk: retry suppressed after first attempt")

// GeminiSDKClient generates through the generative-ai-go SDK. Every Generate
// call makes exactly one HTTP attempt; see singleAttemptTransport.
type GeminiSDKClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiSDKClient builds the SDK client over httpClient's transport
// (http.DefaultTransport when nil). Extra options such as option.WithEndpoint
// are applied last.
func NewGeminiSDKClient(ctx context.Context, cfg config.GeminiConfig, httpClient *http.Client, opts ...option.ClientOption) (*GeminiSDKClient, error) {
	base := http.DefaultTransport
	if httpClient != nil && httpClient.Transport != nil {
		base = httpClient.Transport
	}

	// WithHTTPClient bypasses the SDK's own auth, so the transport sends the key.
	hc := &http.Client{Transport: &singleAttemptTransport{base: base, apiKey: cfg.APIKey}}
	opts = append([]option.ClientOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(hc),
	}, opts...)

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiSDKClient{
		client:    client,
		modelName: cfg.Model,
	}, nil
}

func (g *GeminiSDKClient) Close() error {
	return g.client.Close()
}

func (g *GeminiSDKClient) Generate(ctx context.Context, prompt models.Prompt) (string, error) {
	// SystemInstruction is per-model state; keep it request scoped.
	model := g.client.GenerativeModel(g.modelName)
	if prompt.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(prompt.System)},
		}
	}

	start := time.Now()
	resp, err := model.GenerateContent(withSingleAttempt(ctx), genai.Text(prompt.User))
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			slog.WarnContext(ctx, "gemini blocked the prompt", "error", err)
			return "", nil
		}
		return "", mapSDKError(err)
	}

	slog.DebugContext(ctx, "gemini sdk call completed",
		"model", g.modelName,
		"duration_ms", time.Since(start).Milliseconds())

	text, _ := FirstSDKText(resp)
	return text, nil
}

// FirstSDKText returns the first candidate's first text part.
func FirstSDKText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil || len(c.Content.Parts) == 0 {
		return "", false
	}
	text, ok := c.Content.Parts[0].(genai.Text)
	if !ok || text == "" {
		return "", false
	}
	return string(text), true
}

type attemptsKey struct{}

func withSingleAttempt(ctx context.Context) context.Context {
	return context.WithValue(ctx, attemptsKey{}, new(atomic.Int32))
}

// singleAttemptTransport sits under the SDK. It authenticates with the key
// header, answers a non-2xx response with an *UpstreamError instead of the
// response, and fails any second attempt made under a withSingleAttempt
// context. The SDK retryer only retries *googleapi.Error, so it stops after
// the first attempt and the upstream status survives.
type singleAttemptTransport struct {
	base   http.RoundTripper
	apiKey string
}

func (t *singleAttemptTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if n, ok := req.Context().Value(attemptsKey{}).(*atomic.Int32); ok && n.Add(1) > 1 {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, errRetrySuppressed
	}

	req = req.Clone(req.Context())
	if t.apiKey != "" {
		req.Header.Set(apiKeyHeader, t.apiKey)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return resp, nil
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gemini error body: %w", err)
	}
	return nil, upstreamErrorFromBody(resp.StatusCode, body)
}

// mapSDKError turns SDK API failures into an UpstreamError; other errors
// (transport, context) are returned wrapped.
func mapSDKError(err error) error {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return newUpstreamError(gerr.Code, gerr.Message)
	}

	if aerr, ok := apierror.FromError(err); ok {
		status := aerr.HTTPCode()
		if status <= 0 {
			status = http.StatusBadGateway
		}
		var message string
		if s := aerr.GRPCStatus(); s != nil {
			message = s.Message()
		}
		return newUpstreamError(status, message)
	}

	return fmt.Errorf("failed to generate content: %w", err)
}
