package gateway_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/BerylCAtieno/state-analysis-gateway/internal/gateway"
)

var _ = Describe("CardHandler", func() {
	It("serves the card with the request schema", func() {
		gin.SetMode(gin.TestMode)
		analysis := gateway.New(gateway.Config{Mode: gateway.ModeProfile, CORS: true}, nil)

		h, err := gateway.NewCardHandler(gateway.Card{
			Name:      "state-analysis-gateway",
			Version:   "test",
			Endpoints: []gateway.CardEndpoint{analysis.Endpoint("/api/gemini-analysis")},
		})
		Expect(err).NotTo(HaveOccurred())

		router := gin.New()
		router.GET("/card", h.ServeCard)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/card", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(Equal("application/json"))

		card := decode[map[string]any](w)
		for _, field := range []string{"name", "description", "version", "capabilities", "endpoints", "inputSchema"} {
			Expect(card).To(HaveKey(field))
		}

		endpoints := card["endpoints"].([]any)
		Expect(endpoints).To(HaveLen(1))
		Expect(endpoints[0]).To(HaveKeyWithValue("mode", "profile"))
		Expect(endpoints[0]).To(HaveKeyWithValue("cors", true))

		Expect(w.Body.String()).To(ContainSubstring(`"Estado"`))
		Expect(w.Body.String()).To(ContainSubstring(`"prompt"`))
	})
})
