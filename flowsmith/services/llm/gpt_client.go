package llm

import (
	"context"
	"fmt"

	httputils "flowsmith/flowsmith/utils/http"
	"flowsmith/flowsmith/utils/logging"
)

// GPTClient talks to any OpenAI compatible chat completions endpoint.
type GPTClient struct {
	name    string
	apiKey  string
	baseURL string
}

func NewGPTClient(apiKey, baseURL string) *GPTClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &GPTClient{
		name:    "openai",
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

type gptResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *GPTClient) Name() string { return c.name }

// Run executes a single completion request (non-streaming)
func (c *GPTClient) Run(ctx context.Context, req ChatRequest) (string, error) {
	defer logging.LogDuration(ctx, c.name+"_service_run")()

	req.Stream = false
	var parsed gptResponse
	if err := httputils.PostJSONWithAuth(ctx, c.baseURL+"/chat/completions", c.apiKey, req, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) > 0 && parsed.Choices[0].Message.Content != "" {
		return parsed.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("no content in %s response", c.name)
}
