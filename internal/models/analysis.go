package models

// Prompt is the instruction pair sent to the text-generation service. System
// may be empty.
type Prompt struct {
	System string
	User   string
}

// AnalysisRequest is the inbound body. Profile-mode endpoints read State,
// free-text endpoints read Prompt.
type AnalysisRequest struct {
	State  *Profile `json:"state,omitempty" jsonschema:"description=State profile (profile mode)"`
	Prompt string   `json:"prompt,omitempty" jsonschema:"description=Raw prompt (free-text mode)"`
}

type AnalysisResponse struct {
	Analysis string `json:"analysis"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// InternalErrorMessage is the caller-facing message for unexpected faults.
const InternalErrorMessage = "Internal error processing request"
