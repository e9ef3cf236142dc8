package gateway_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/BerylCAtieno/state-analysis-gateway/internal/config"
	"github.com/BerylCAtieno/state-analysis-gateway/internal/gateway"
	"github.com/BerylCAtieno/state-analysis-gateway/internal/llm"
	"github.com/BerylCAtieno/state-analysis-gateway/internal/middleware"
	"github.com/BerylCAtieno/state-analysis-gateway/internal/models"
)

const texasBody = `{"state": {"Estado": "Texas", "Sigla do Estado": "TX", "Salário Mínimo por Hora (USD)": 7.25}}`

func serve(router *gin.Engine, method, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/analyze", nil)
	} else {
		req = httptest.NewRequest(method, "/analyze", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var out T
	ExpectWithOffset(1, json.Unmarshal(w.Body.Bytes(), &out)).To(Succeed())
	return out
}

var _ = Describe("Gateway", func() {
	var (
		router *gin.Engine
		gen    *mockGenerator
		cfg    gateway.Config
	)

	mount := func() {
		router = gin.New()
		router.Any("/analyze", gateway.New(cfg, gen).Handle)
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		gen = &mockGenerator{}
		cfg = gateway.Config{
			Mode:       gateway.ModeProfile,
			Credential: "test-key",
			CORS:       true,
		}
		mount()
	})

	Describe("profile mode", func() {
		It("returns 200 with the generated analysis", func() {
			w := serve(router, http.MethodPost, texasBody)

			Expect(w.Code).To(Equal(http.StatusOK))
			resp := decode[models.AnalysisResponse](w)
			Expect(resp.Analysis).To(Equal("## Prós\n* Mercado aquecido"))
			Expect(gen.Calls()).To(Equal(1))
		})

		It("renders the wage into the user query", func() {
			serve(router, http.MethodPost, texasBody)

			prompt := gen.LastPrompt()
			Expect(prompt.User).To(ContainSubstring("$7.25/hora"))
			Expect(prompt.User).To(ContainSubstring("Texas (TX)"))
			Expect(prompt.System).To(ContainSubstring("## Oportunidades"))
		})

		It("sends identical prompts for identical profiles", func() {
			serve(router, http.MethodPost, texasBody)
			first := gen.LastPrompt()
			serve(router, http.MethodPost, texasBody)

			Expect(gen.LastPrompt()).To(Equal(first))
		})

		It("accepts a whitespace-only state name", func() {
			w := serve(router, http.MethodPost, `{"state": {"Estado": "  "}}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gen.Calls()).To(Equal(1))
		})

		DescribeTable("rejects bodies without a state name",
			func(body string) {
				w := serve(router, http.MethodPost, body)

				Expect(w.Code).To(Equal(http.StatusBadRequest))
				resp := decode[models.ErrorResponse](w)
				Expect(resp.Error).To(Equal("Invalid state data"))
				Expect(gen.Calls()).To(BeZero())
			},
			Entry("empty object", `{}`),
			Entry("empty body", ""),
			Entry("malformed json", `{"state":`),
			Entry("state without name", `{"state": {"Sigla do Estado": "TX"}}`),
			Entry("empty name", `{"state": {"Estado": ""}}`),
			Entry("state not an object", `{"state": "Texas"}`),
			Entry("free-text body", `{"prompt": "hello"}`),
		)
	})

	Describe("method handling", func() {
		DescribeTable("returns 405 for non-POST methods",
			func(method string) {
				w := serve(router, method, texasBody)

				Expect(w.Code).To(Equal(http.StatusMethodNotAllowed))
				resp := decode[models.ErrorResponse](w)
				Expect(resp.Error).To(Equal("Method not allowed"))
				Expect(gen.Calls()).To(BeZero())
			},
			Entry("GET", http.MethodGet),
			Entry("PUT", http.MethodPut),
			Entry("PATCH", http.MethodPatch),
			Entry("DELETE", http.MethodDelete),
		)

		It("answers preflight with an empty 200 and CORS headers", func() {
			w := serve(router, http.MethodOptions, "")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.Len()).To(BeZero())
			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
			Expect(w.Header().Get("Access-Control-Allow-Methods")).To(ContainSubstring("POST"))
			Expect(gen.Calls()).To(BeZero())
		})

		It("sets CORS headers on error responses too", func() {
			w := serve(router, http.MethodGet, "")

			Expect(w.Header().Get("Access-Control-Allow-Credentials")).To(Equal("true"))
		})

		It("uses the configured origin", func() {
			cfg.AllowedOrigin = "https://example.org"
			mount()

			w := serve(router, http.MethodPost, texasBody)

			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://example.org"))
		})

		It("treats OPTIONS as any other method when CORS is off", func() {
			cfg.CORS = false
			mount()

			w := serve(router, http.MethodOptions, "")

			Expect(w.Code).To(Equal(http.StatusMethodNotAllowed))
			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
		})
	})

	Describe("missing credential", func() {
		BeforeEach(func() {
			cfg.Credential = ""
			mount()
		})

		DescribeTable("returns 500 regardless of body validity",
			func(body string) {
				w := serve(router, http.MethodPost, body)

				Expect(w.Code).To(Equal(http.StatusInternalServerError))
				resp := decode[models.ErrorResponse](w)
				Expect(resp.Error).To(Equal("Server configuration incomplete"))
				Expect(resp.Details).To(BeEmpty())
				Expect(gen.Calls()).To(BeZero())
			},
			Entry("valid body", texasBody),
			Entry("invalid body", `{}`),
		)

		It("still rejects other methods with 405 first", func() {
			w := serve(router, http.MethodGet, "")

			Expect(w.Code).To(Equal(http.StatusMethodNotAllowed))
		})

		It("returns 500 when no generator was built", func() {
			cfg.Credential = "test-key"
			router = gin.New()
			router.Any("/analyze", gateway.New(cfg, nil).Handle)

			w := serve(router, http.MethodPost, texasBody)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("upstream handling", func() {
		It("passes through the upstream status and message", func() {
			gen.generateFn = func(_ context.Context, _ models.Prompt) (string, error) {
				return "", &llm.UpstreamError{StatusCode: http.StatusTooManyRequests, Message: "Resource has been exhausted"}
			}

			w := serve(router, http.MethodPost, texasBody)

			Expect(w.Code).To(Equal(http.StatusTooManyRequests))
			resp := decode[models.ErrorResponse](w)
			Expect(resp.Error).To(Equal("AI error"))
			Expect(resp.Details).To(Equal("Resource has been exhausted"))
		})

		It("falls back to 502 for a non-error upstream status", func() {
			gen.generateFn = func(_ context.Context, _ models.Prompt) (string, error) {
				return "", &llm.UpstreamError{StatusCode: 0}
			}

			w := serve(router, http.MethodPost, texasBody)

			Expect(w.Code).To(Equal(http.StatusBadGateway))
			resp := decode[models.ErrorResponse](w)
			Expect(resp.Details).To(Equal(llm.UnknownErrorMessage))
		})

		It("returns the fallback analysis when no text was generated", func() {
			gen.generateFn = func(_ context.Context, _ models.Prompt) (string, error) {
				return "", nil
			}

			w := serve(router, http.MethodPost, texasBody)

			Expect(w.Code).To(Equal(http.StatusOK))
			resp := decode[models.AnalysisResponse](w)
			Expect(resp.Analysis).To(Equal(gateway.FallbackAnalysis))
		})

		It("returns a generic 500 for other failures", func() {
			gen.generateFn = func(_ context.Context, _ models.Prompt) (string, error) {
				return "", errors.New("dial tcp: connection refused")
			}

			w := serve(router, http.MethodPost, texasBody)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			resp := decode[models.ErrorResponse](w)
			Expect(resp.Error).To(Equal(models.InternalErrorMessage))
			Expect(w.Body.String()).NotTo(ContainSubstring("connection refused"))
		})
	})

	Describe("tracing", func() {
		var recorder *tracetest.SpanRecorder

		BeforeEach(func() {
			recorder = tracetest.NewSpanRecorder()
			otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
			DeferCleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })
		})

		It("records one generation span per request", func() {
			serve(router, http.MethodPost, texasBody)

			spans := recorder.Ended()
			Expect(spans).To(HaveLen(1))
			Expect(spans[0].Name()).To(Equal("gateway.generate"))
			Expect(spans[0].Attributes()).To(ContainElements(
				attribute.String("gateway.mode", "profile"),
				attribute.Bool("gateway.system_instruction", true),
				attribute.Bool("gateway.fallback", false),
			))
		})

		It("marks the span failed with the upstream status", func() {
			gen.generateFn = func(_ context.Context, _ models.Prompt) (string, error) {
				return "", &llm.UpstreamError{StatusCode: http.StatusServiceUnavailable, Message: "overloaded"}
			}

			serve(router, http.MethodPost, texasBody)

			spans := recorder.Ended()
			Expect(spans).To(HaveLen(1))
			Expect(spans[0].Status().Code).To(Equal(codes.Error))
			Expect(spans[0].Attributes()).To(ContainElement(
				attribute.Int("http.response.status_code", http.StatusServiceUnavailable)))
		})

		It("opens no span when validation fails", func() {
			serve(router, http.MethodPost, `{}`)

			Expect(recorder.Ended()).To(BeEmpty())
		})
	})

	Describe("request deadline", func() {
		It("aborts a hung upstream call and answers 500", func() {
			release := make(chan struct{})
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-release:
				}
			}))
			DeferCleanup(upstream.Close)
			DeferCleanup(func() { close(release) })

			generator := llm.NewGeminiClient(config.GeminiConfig{
				APIKey:  "test-key",
				Model:   "gemini-2.5-flash",
				BaseURL: upstream.URL,
			}, upstream.Client())

			router = gin.New()
			router.Use(middleware.Deadline(200 * time.Millisecond))
			router.Any("/analyze", gateway.New(cfg, generator).Handle)

			start := time.Now()
			w := serve(router, http.MethodPost, texasBody)

			Expect(time.Since(start)).To(BeNumerically("<", 2*time.Second))
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(decode[models.ErrorResponse](w).Error).To(Equal(models.InternalErrorMessage))
			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})

	Describe("free-text mode", func() {
		BeforeEach(func() {
			cfg.Mode = gateway.ModeFreeText
			cfg.CORS = false
			mount()
		})

		It("accepts a whitespace-only prompt", func() {
			w := serve(router, http.MethodPost, `{"prompt": "  "}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gen.LastPrompt()).To(Equal(models.Prompt{User: "  "}))
		})

		It("forwards the prompt unmodified without a system instruction", func() {
			w := serve(router, http.MethodPost, `{"prompt": "Liste 3 universidades em Ohio"}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gen.LastPrompt()).To(Equal(models.Prompt{User: "Liste 3 universidades em Ohio"}))
			resp := decode[models.AnalysisResponse](w)
			Expect(resp.Analysis).NotTo(BeEmpty())
		})

		DescribeTable("rejects bodies without a prompt",
			func(body string) {
				w := serve(router, http.MethodPost, body)

				Expect(w.Code).To(Equal(http.StatusBadRequest))
				resp := decode[models.ErrorResponse](w)
				Expect(resp.Error).To(Equal("Prompt is required"))
				Expect(gen.Calls()).To(BeZero())
			},
			Entry("empty object", `{}`),
			Entry("empty prompt", `{"prompt": ""}`),
			Entry("non-string prompt", `{"prompt": 42}`),
			Entry("profile body", texasBody),
		)
	})
})
