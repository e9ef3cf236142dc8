package router

import (
	"net/http"

	"github.com/BerylCAtieno/state-analysis-gateway/internal/gateway"
	"github.com/gin-gonic/gin"
)

const (
	AnalysisPath = "/api/gemini-analysis"
	PromptPath   = "/api/gemini"
	CardPath     = "/.well-known/agent.json"
	HealthPath   = "/health"
)

type Handlers struct {
	Analysis *gateway.Gateway
	Prompt   *gateway.Gateway
	Card     *gateway.CardHandler
}

// SetupRoutes mounts the gateways on every method so method validation and
// preflight stay inside the gateway.
func SetupRoutes(router *gin.Engine, h Handlers) {
	router.GET(HealthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if h.Card != nil {
		router.GET(CardPath, h.Card.ServeCard)
	}

	router.Any(AnalysisPath, h.Analysis.Handle)
	router.Any(PromptPath, h.Prompt.Handle)
}
