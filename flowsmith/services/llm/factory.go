package llm

import (
	"context"
	"fmt"

	"flowsmith/flowsmith/config"
	"flowsmith/flowsmith/services/metrics"
	"flowsmith/flowsmith/utils/logging"

	"go.uber.org/zap"
)

var defaultModels = map[string]string{
	"gemini": DefaultGeminiModel,
	"openai": "gpt-4o-mini",
	"groq":   "llama-3.3-70b-versatile",
	"ollama": "llama3.1",
	"mock":   "mock",
}

// NewAdapterFromConfig builds the adapter selected by LLM_PROVIDER.
// A missing credential yields an adapter that fails every call with
// ErrNotConfigured; an unknown provider name is an error.
func NewAdapterFromConfig(ctx context.Context, cfg config.Config, m *metrics.Collector) (*Adapter, error) {
	name := cfg.LLMProvider
	if name == "" {
		name = "gemini"
	}
	model, ok := defaultModels[name]
	if !ok {
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", name)
	}
	if cfg.LLMModel != "" {
		model = cfg.LLMModel
	}

	prompts := LoadPrompts(cfg.PromptsFile)
	ac := AdapterConfig{Model: model, Prompts: &prompts, Metrics: m}

	var provider Provider
	switch name {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return unconfigured("Gemini API key not configured", ac), nil
		}
		client, err := NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		provider = client
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return unconfigured("OpenAI API key not configured", ac), nil
		}
		provider = NewGPTClient(cfg.OpenAIAPIKey, cfg.LLMBaseURL)
	case "groq":
		if cfg.GroqAPIKey == "" {
			return unconfigured("Groq API key not configured", ac), nil
		}
		provider = NewGroqClient(cfg.GroqAPIKey)
	case "ollama":
		provider = NewOllamaClient(cfg.LLMBaseURL)
	case "mock":
		provider = NewMockClient()
	}

	logging.AppLogger.Info("Generation provider ready",
		zap.String("provider", provider.Name()),
		zap.String("model", model),
	)
	return NewAdapter(provider, ac), nil
}

func unconfigured(reason string, ac AdapterConfig) *Adapter {
	logging.AppLogger.Warn("Generation provider not configured", zap.String("reason", reason))
	return NewUnconfiguredAdapter(reason, ac)
}
