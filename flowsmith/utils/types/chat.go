package types

import "encoding/json"

// ChatRequest is the body of POST /api/chat. An empty message is still
// sent to the model.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id" validate:"required,max=255"`
}

type ChatResponse struct {
	Response     string     `json:"response"`
	WorkflowJSON Definition `json:"workflow_json"`
	SessionID    string     `json:"session_id"`
	HasWorkflow  bool       `json:"has_workflow"`
}

// GenerateWorkflowRequest is the body of POST /api/generate-workflow.
// A repeated IdempotencyKey within a session returns the stored workflow
// instead of generating again.
type GenerateWorkflowRequest struct {
	Description    string `json:"description" validate:"required"`
	SessionID      string `json:"session_id" validate:"required,max=255"`
	IdempotencyKey string `json:"idempotency_key,omitempty" validate:"omitempty,max=255"`
}

type GenerateWorkflowResponse struct {
	WorkflowJSON json.RawMessage `json:"workflow_json"`
	Explanation  string          `json:"explanation"`
	WorkflowID   string          `json:"workflow_id"`
	SessionID    string          `json:"session_id"`
}

// SaveWorkflowRequest is the body of POST /api/workflows.
type SaveWorkflowRequest struct {
	SessionID    string     `json:"session_id" validate:"required,max=255"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	WorkflowJSON Definition `json:"workflow_json" validate:"required"`
}

// StatusCheckCreate is the body of POST /api/status.
type StatusCheckCreate struct {
	ClientName string `json:"client_name" validate:"required,max=255"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorType string `json:"error_type,omitempty"`
}

// WSFrame is one websocket message in either direction.
type WSFrame struct {
	Type           string         `json:"type"`
	SessionID      string         `json:"session_id,omitempty"`
	Message        string         `json:"message,omitempty"`
	Description    string         `json:"description,omitempty"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
	Data           any            `json:"data,omitempty"`
	Error          *ErrorResponse `json:"error,omitempty"`
}

const (
	WSFrameChat     = "chat"
	WSFrameGenerate = "generate"
	WSFrameError    = "error"
)
