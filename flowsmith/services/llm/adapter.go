package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"flowsmith/flowsmith/services/metrics"
	"flowsmith/flowsmith/utils/apperr"
	httputils "flowsmith/flowsmith/utils/http"
	"flowsmith/flowsmith/utils/logging"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// AdapterConfig tunes an Adapter. Zero values pick the defaults.
type AdapterConfig struct {
	Model    string
	Prompts  *Prompts
	MaxTurns int
	Metrics  *metrics.Collector

	// breaker: consecutive failures before opening, and how long it stays open
	MaxFailures  uint32
	OpenInterval time.Duration
}

// Adapter is the single entry point to the generation capability. It owns
// prompt selection, per-session continuity and error classification.
type Adapter struct {
	provider      Provider
	notConfigured string
	model         string
	prompts       Prompts
	conv          *Conversations
	breaker       *gobreaker.CircuitBreaker
	metrics       *metrics.Collector
}

// NewAdapter wraps provider.
func NewAdapter(provider Provider, cfg AdapterConfig) *Adapter {
	a := &Adapter{
		provider: provider,
		model:    cfg.Model,
		prompts:  DefaultPrompts(),
		conv:     NewConversations(cfg.MaxTurns),
		metrics:  cfg.Metrics,
	}
	if cfg.Prompts != nil {
		a.prompts = *cfg.Prompts
	}

	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	openInterval := cfg.OpenInterval
	if openInterval == 0 {
		openInterval = 30 * time.Second
	}
	name := "unconfigured"
	if provider != nil {
		name = provider.Name()
	}
	a.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openInterval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logging.AppLogger.Warn("Provider circuit state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// a caller hanging up says nothing about the provider
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return a
}

// NewUnconfiguredAdapter returns an adapter whose every call fails with
// apperr.ErrNotConfigured without reaching any provider.
func NewUnconfiguredAdapter(reason string, cfg AdapterConfig) *Adapter {
	a := NewAdapter(nil, cfg)
	a.notConfigured = reason
	return a
}

// Model is the model label recorded next to persisted replies.
func (a *Adapter) Model() string {
	return a.model
}

// Provider names the backing provider, or "unconfigured".
func (a *Adapter) Provider() string {
	if a.provider == nil {
		return "unconfigured"
	}
	return a.provider.Name()
}

// Generate sends userText on the conversation bound to sessionID with the
// standing instruction selected by kind and returns the reply text.
// The exchange joins the transcript only when the call succeeds.
func (a *Adapter) Generate(ctx context.Context, sessionID, userText string, kind PromptKind) (string, error) {
	if a.provider == nil {
		return "", apperr.New(apperr.ErrNotConfigured, a.notConfigured)
	}
	defer logging.LogDuration(ctx, "adapter_generate_"+kind.String())()

	messages := make([]Message, 0, 2+2*a.conv.Len(sessionID))
	messages = append(messages, Message{Role: RoleSystem, Content: a.prompts.For(kind)})
	messages = append(messages, a.conv.History(sessionID)...)
	messages = append(messages, Message{Role: RoleUser, Content: userText})

	start := time.Now()
	out, err := a.breaker.Execute(func() (interface{}, error) {
		return a.provider.Run(ctx, ChatRequest{
			Model:    a.model,
			Messages: messages,
			User:     sessionID,
		})
	})
	a.metrics.ObserveModelCall(a.provider.Name(), time.Since(start))

	if err != nil {
		classified := Classify(err)
		logging.ErrorLogger.Error("Generation error",
			zap.String("provider", a.provider.Name()),
			zap.String("session_id", sessionID),
			zap.String("error_type", string(apperr.TypeOf(classified))),
			zap.Error(err),
		)
		return "", classified
	}

	reply := out.(string)
	a.conv.Append(sessionID, userText, reply)
	return reply, nil
}

// Classify maps a raw provider error onto GenerationUnavailable (the
// capability is unreachable or rejects our credentials) or GenerationFailed.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apperr.ErrGenerationUnavailable) || errors.Is(err, apperr.ErrGenerationFailed) {
		return err
	}

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return apperr.Wrap(apperr.ErrGenerationUnavailable, "generation provider circuit open", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperr.Wrap(apperr.ErrGenerationUnavailable, "generation call timed out", err)
	}

	var statusErr *httputils.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Code == http.StatusUnauthorized || statusErr.Code == http.StatusForbidden {
			return apperr.Wrap(apperr.ErrGenerationUnavailable, "generation provider rejected credentials", err)
		}
		return apperr.Wrap(apperr.ErrGenerationFailed, "generation provider error", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperr.Wrap(apperr.ErrGenerationUnavailable, "generation provider unreachable", err)
	}
	return apperr.Wrap(apperr.ErrGenerationFailed, "generation provider error", err)
}
