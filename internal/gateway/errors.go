package gateway

import (
	"errors"
	"net/http"

	"github.com/BerylCAtieno/state-analysis-gateway/internal/llm"
	"github.com/BerylCAtieno/state-analysis-gateway/internal/models"
)

// Kind classifies why a request failed. Every kind is terminal for the request.
type Kind int

const (
	KindMethodNotAllowed Kind = iota + 1
	KindServerMisconfigured
	KindInvalidInput
	KindUpstream
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindMethodNotAllowed:
		return "method_not_allowed"
	case KindServerMisconfigured:
		return "server_misconfigured"
	case KindInvalidInput:
		return "invalid_input"
	case KindUpstream:
		return "upstream_error"
	case KindInternal:
		return "internal_fault"
	default:
		return "unknown"
	}
}

const (
	msgMethodNotAllowed    = "Method not allowed"
	msgServerMisconfigured = "Server configuration incomplete"
	msgInvalidState        = "Invalid state data"
	msgInvalidPrompt       = "Prompt is required"
	msgUpstream            = "AI error"
)

// Error is a request failure with its caller-facing rendering.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Response() models.ErrorResponse {
	return models.ErrorResponse{Error: e.Message, Details: e.Details}
}

func errMethodNotAllowed() *Error {
	return &Error{Kind: KindMethodNotAllowed, Status: http.StatusMethodNotAllowed, Message: msgMethodNotAllowed}
}

func errServerMisconfigured() *Error {
	return &Error{Kind: KindServerMisconfigured, Status: http.StatusInternalServerError, Message: msgServerMisconfigured}
}

func errInvalidInput(message string, cause error) *Error {
	return &Error{Kind: KindInvalidInput, Status: http.StatusBadRequest, Message: message, Err: cause}
}

// classifyGenerateError maps a Generator failure to an upstream error when the
// service answered with a failure status, and to an internal fault otherwise.
func classifyGenerateError(err error) *Error {
	var upstream *llm.UpstreamError
	if errors.As(err, &upstream) {
		status := upstream.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		details := upstream.Message
		if details == "" {
			details = llm.UnknownErrorMessage
		}
		return &Error{Kind: KindUpstream, Status: status, Message: msgUpstream, Details: details, Err: err}
	}
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: models.InternalErrorMessage, Err: err}
}
