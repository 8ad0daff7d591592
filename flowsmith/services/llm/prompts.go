package llm

import (
	"fmt"

	"flowsmith/flowsmith/utils/logging"

	"github.com/magiconair/properties"
	"go.uber.org/zap"
)

// PromptKind selects the standing instruction sent with a call.
type PromptKind int

const (
	PromptConversational PromptKind = iota
	PromptGeneration
)

func (k PromptKind) String() string {
	if k == PromptGeneration {
		return "generation"
	}
	return "conversational"
}

const conversationalPrompt = `You are an expert n8n workflow builder assistant. Your job is to convert natural language descriptions into complete n8n workflow JSON configurations.

When a user describes an automation workflow, you should:
1. Analyze the user's requirements
2. Generate a complete n8n workflow JSON structure
3. Include all necessary nodes (triggers, actions, conditions)
4. Provide proper node connections and configurations
5. Use realistic service integrations

Always respond with:
1. A brief explanation of what the workflow does
2. The complete n8n workflow JSON structure
3. Setup instructions for the user

Focus on creating practical, working n8n workflows that can be imported directly into n8n.`

const generationPrompt = `You are an expert n8n workflow automation specialist. Generate complete, functional n8n workflow JSON configurations from natural language descriptions.

IMPORTANT: Always return a valid JSON structure that can be imported directly into n8n. Include:

1. Complete workflow structure with nodes and connections
2. Proper node configurations with realistic parameters
3. Trigger nodes (webhook, schedule, email, etc.)
4. Action nodes (HTTP requests, database operations, etc.)
5. Proper node positioning for visual layout

Example n8n workflow structure:
{
  "name": "Workflow Name",
  "nodes": [
    {
      "parameters": {},
      "name": "Start",
      "type": "n8n-nodes-base.start",
      "typeVersion": 1,
      "position": [240, 300]
    },
    {
      "parameters": {
        "httpMethod": "GET",
        "path": "webhook-path",
        "responseMode": "onReceived"
      },
      "name": "Webhook",
      "type": "n8n-nodes-base.webhook",
      "typeVersion": 1,
      "position": [460, 300]
    }
  ],
  "connections": {
    "Start": {
      "main": [
        [
          {
            "node": "Webhook",
            "type": "main",
            "index": 0
          }
        ]
      ]
    }
  },
  "active": false,
  "settings": {},
  "id": "workflow-id"
}

Always wrap your JSON response in ` + "```json" + ` code blocks.`

const generationInstruction = `Generate a complete n8n workflow for: %s

Please provide:
1. A brief explanation of what this workflow does
2. The complete n8n workflow JSON structure (wrapped in ` + "```json" + ` code blocks)
3. Setup instructions for the user

Make sure the workflow is practical and can be imported directly into n8n.`

// Prompts holds the standing instructions for both prompt kinds.
type Prompts struct {
	Conversational string
	Generation     string
}

// DefaultPrompts returns the compiled in prompts.
func DefaultPrompts() Prompts {
	return Prompts{Conversational: conversationalPrompt, Generation: generationPrompt}
}

// LoadPrompts reads overrides from a .properties file with the keys
// conversational_prompt and generation_prompt. Missing keys keep the
// defaults; an unreadable file is logged and ignored.
func LoadPrompts(path string) Prompts {
	p := DefaultPrompts()
	if path == "" {
		return p
	}
	props, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		logging.AppLogger.Error("Prompts load error", zap.String("path", path), zap.Error(err))
		return p
	}
	p.Conversational = props.GetString("conversational_prompt", p.Conversational)
	p.Generation = props.GetString("generation_prompt", p.Generation)
	return p
}

// For returns the instruction for kind.
func (p Prompts) For(kind PromptKind) string {
	if kind == PromptGeneration {
		return p.Generation
	}
	return p.Conversational
}

// GenerationInstruction wraps a workflow description into the user turn sent
// with PromptGeneration.
func GenerationInstruction(description string) string {
	return fmt.Sprintf(generationInstruction, description)
}
