package llm

import (
	"context"
	"fmt"
	"strings"
)

// MockClient answers without any network access. Generation requests get a
// small fenced workflow, anything else gets plain prose.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Name() string { return "mock" }

func (c *MockClient) Run(ctx context.Context, req ChatRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var system, last string
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = m.Content
		case RoleUser:
			last = m.Content
		}
	}

	if !strings.Contains(system, "```json") {
		return fmt.Sprintf("I can help with that. Tell me which trigger you want for: %s", last), nil
	}

	return "This workflow receives a webhook call and forwards the payload.\n\n```json\n" + mockWorkflow + "\n```\n\nImport it from the n8n editor and activate it.", nil
}

const mockWorkflow = `{
  "name": "Webhook Relay",
  "nodes": [
    {
      "parameters": {"httpMethod": "POST", "path": "relay", "responseMode": "onReceived"},
      "name": "Webhook",
      "type": "n8n-nodes-base.webhook",
      "typeVersion": 1,
      "position": [240, 300]
    },
    {
      "parameters": {"url": "https://example.com/hook", "requestMethod": "POST"},
      "name": "HTTP Request",
      "type": "n8n-nodes-base.httpRequest",
      "typeVersion": 1,
      "position": [460, 300]
    }
  ],
  "connections": {
    "Webhook": {"main": [[{"node": "HTTP Request", "type": "main", "index": 0}]]}
  },
  "active": false,
  "settings": {}
}`
