package llm

import (
	"context"
	"fmt"

	httputils "flowsmith/flowsmith/utils/http"
	"flowsmith/flowsmith/utils/logging"
)

// Provider is an external text generation capability.
type Provider interface {
	// Name labels the provider in logs and metrics.
	Name() string
	Run(ctx context.Context, req ChatRequest) (string, error)
}

type ChatRequest struct {
	Model    string      `json:"model"`
	Messages []Message   `json:"messages"`
	Stream   bool        `json:"stream"`
	User     string      `json:"user,omitempty"`
	Options  interface{} `json:"options,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

type OllamaClient struct {
	baseURL string
}

func NewOllamaClient(baseURL string) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434/api"
	}
	return &OllamaClient{baseURL: baseURL}
}

func (c *OllamaClient) Name() string { return "ollama" }

func (c *OllamaClient) Run(ctx context.Context, req ChatRequest) (string, error) {
	defer logging.LogDuration(ctx, "ollama_service_run")()
	req.Stream = false
	var resp ChatResponse
	if err := httputils.PostJSON(ctx, c.baseURL+"/chat", req, &resp); err != nil {
		return "", err
	}
	if resp.Message.Content == "" {
		return "", fmt.Errorf("ollama returned empty content")
	}
	return resp.Message.Content, nil
}
