package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/BerylCAtieno/state-analysis-gateway/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/invopop/jsonschema"
)

// Card describes the service at /.well-known/agent.json.
type Card struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Version      string             `json:"version"`
	Model        string             `json:"model"`
	Capabilities CardCapabilities   `json:"capabilities"`
	Endpoints    []CardEndpoint     `json:"endpoints"`
	InputSchema  *jsonschema.Schema `json:"inputSchema"`
}

type CardCapabilities struct {
	Streaming bool `json:"streaming"`
	History   bool `json:"history"`
}

type CardEndpoint struct {
	Path   string `json:"path"`
	Method string `json:"method"`
	Mode   string `json:"mode"`
	CORS   bool   `json:"cors"`
}

// CardHandler serves a pre-rendered card.
type CardHandler struct {
	data []byte
}

// NewCardHandler renders the card once, including the JSON schema of the
// request body.
func NewCardHandler(card Card) (*CardHandler, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	card.InputSchema = reflector.Reflect(&models.AnalysisRequest{})

	data, err := json.Marshal(card)
	if err != nil {
		return nil, fmt.Errorf("marshal agent card: %w", err)
	}
	return &CardHandler{data: data}, nil
}

func (h *CardHandler) ServeCard(c *gin.Context) {
	slog.DebugContext(c.Request.Context(), "serving agent card")
	c.Data(http.StatusOK, "application/json", h.data)
}

// Endpoint describes a gateway mounted at path.
func (g *Gateway) Endpoint(path string) CardEndpoint {
	return CardEndpoint{
		Path:   path,
		Method: http.MethodPost,
		Mode:   g.cfg.Mode.String(),
		CORS:   g.cfg.CORS,
	}
}
