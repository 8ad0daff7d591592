package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"flowsmith/flowsmith/config"
	"flowsmith/flowsmith/services/metrics"
	"flowsmith/flowsmith/utils/apperr"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider replays replies and records every request it sees.
type scriptedProvider struct {
	mu       sync.Mutex
	replies  []string
	errs     []error
	requests []ChatRequest
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Run(ctx context.Context, req ChatRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	i := len(p.requests) - 1
	if i < len(p.errs) && p.errs[i] != nil {
		return "", p.errs[i]
	}
	if i < len(p.replies) {
		return p.replies[i], nil
	}
	return "ok", nil
}

func TestGenerateSelectsPromptAndKeepsContinuity(t *testing.T) {
	p := &scriptedProvider{replies: []string{"first", "second"}}
	a := NewAdapter(p, AdapterConfig{Model: "test-model"})

	reply, err := a.Generate(context.Background(), "s1", "hello", PromptConversational)
	require.NoError(t, err)
	assert.Equal(t, "first", reply)

	_, err = a.Generate(context.Background(), "s1", GenerationInstruction("send an email"), PromptGeneration)
	require.NoError(t, err)

	require.Len(t, p.requests, 2)
	first := p.requests[0]
	assert.Equal(t, "test-model", first.Model)
	require.Len(t, first.Messages, 2)
	assert.Equal(t, RoleSystem, first.Messages[0].Role)
	assert.Equal(t, DefaultPrompts().Conversational, first.Messages[0].Content)

	second := p.requests[1]
	require.Len(t, second.Messages, 4)
	assert.Equal(t, DefaultPrompts().Generation, second.Messages[0].Content)
	assert.Equal(t, Message{Role: RoleUser, Content: "hello"}, second.Messages[1])
	assert.Equal(t, Message{Role: RoleAssistant, Content: "first"}, second.Messages[2])
	assert.Contains(t, second.Messages[3].Content, "Generate a complete n8n workflow for: send an email")
}

func TestGenerateSessionsAreIsolated(t *testing.T) {
	p := &scriptedProvider{}
	a := NewAdapter(p, AdapterConfig{})

	_, err := a.Generate(context.Background(), "a", "one", PromptConversational)
	require.NoError(t, err)
	_, err = a.Generate(context.Background(), "b", "two", PromptConversational)
	require.NoError(t, err)

	assert.Len(t, p.requests[1].Messages, 2)
}

func TestGenerateFailedCallLeavesNoTurn(t *testing.T) {
	p := &scriptedProvider{errs: []error{errors.New("boom")}}
	a := NewAdapter(p, AdapterConfig{})

	_, err := a.Generate(context.Background(), "s", "hi", PromptConversational)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrGenerationFailed))
	assert.Equal(t, 0, a.conv.Len("s"))
}

func TestGenerateUnconfigured(t *testing.T) {
	a := NewUnconfiguredAdapter("Gemini API key not configured", AdapterConfig{Model: DefaultGeminiModel})

	_, err := a.Generate(context.Background(), "s", "hi", PromptConversational)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrNotConfigured))
	assert.Equal(t, apperr.TypeConfiguration, apperr.TypeOf(err))
	assert.Equal(t, "unconfigured", a.Provider())
	assert.Equal(t, DefaultGeminiModel, a.Model())
}

func TestGenerateBreakerOpens(t *testing.T) {
	p := &scriptedProvider{errs: []error{
		errors.New("e1"), errors.New("e2"), errors.New("e3"),
	}}
	a := NewAdapter(p, AdapterConfig{MaxFailures: 3, OpenInterval: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := a.Generate(context.Background(), "s", "hi", PromptConversational)
		assert.True(t, errors.Is(err, apperr.ErrGenerationFailed))
	}

	_, err := a.Generate(context.Background(), "s", "hi", PromptConversational)
	assert.True(t, errors.Is(err, apperr.ErrGenerationUnavailable))
	assert.Len(t, p.requests, 3, "open circuit must not reach the provider")
}

func TestGenerateRecordsModelCallMetric(t *testing.T) {
	m := metrics.NewCollector()
	a := NewAdapter(&scriptedProvider{}, AdapterConfig{Metrics: m})

	_, err := a.Generate(context.Background(), "s", "hi", PromptConversational)
	require.NoError(t, err)
	assert.Equal(t, 1, testutil.CollectAndCount(m.ModelCallDuration))
}

func TestClassifyHTTPProvider(t *testing.T) {
	var status int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hi there"}}]}`))
		}
	}))
	defer srv.Close()

	client := NewGPTClient("key", srv.URL)
	req := ChatRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}}

	status = http.StatusOK
	out, err := client.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "hi there", out)

	for code, want := range map[int]error{
		http.StatusUnauthorized:        apperr.ErrGenerationUnavailable,
		http.StatusForbidden:           apperr.ErrGenerationUnavailable,
		http.StatusBadRequest:          apperr.ErrGenerationFailed,
		http.StatusInternalServerError: apperr.ErrGenerationFailed,
	} {
		status = code
		_, err := client.Run(context.Background(), req)
		require.Error(t, err)
		assert.True(t, errors.Is(Classify(err), want), "status %d", code)
	}

	// empty choices decode fine but carry no content
	status = http.StatusNoContent
	_, err = client.Run(context.Background(), req)
	assert.True(t, errors.Is(Classify(err), apperr.ErrGenerationFailed))
}

func TestClassifyTransportAndDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewGPTClient("key", url).Run(context.Background(), ChatRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(Classify(err), apperr.ErrGenerationUnavailable))

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	assert.True(t, errors.Is(Classify(ctx.Err()), apperr.ErrGenerationUnavailable))

	already := apperr.Wrap(apperr.ErrGenerationFailed, "x", errors.New("y"))
	assert.Same(t, already, Classify(already))
	assert.Nil(t, Classify(nil))
}

func TestLoadPromptsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.properties")
	require.NoError(t, os.WriteFile(path, []byte("generation_prompt = Reply with ```json only.\n"), 0o600))

	p := LoadPrompts(path)
	assert.Equal(t, "Reply with ```json only.", p.Generation)
	assert.Equal(t, DefaultPrompts().Conversational, p.Conversational)

	assert.Equal(t, DefaultPrompts(), LoadPrompts(filepath.Join(t.TempDir(), "missing.properties")))
	assert.Equal(t, DefaultPrompts(), LoadPrompts(""))
}

func TestConversationsBounded(t *testing.T) {
	c := NewConversations(2)
	c.Append("s", "u1", "a1")
	c.Append("s", "u2", "a2")
	c.Append("s", "u3", "a3")

	h := c.History("s")
	require.Len(t, h, 4)
	assert.Equal(t, "u2", h[0].Content)
	assert.Equal(t, "a3", h[3].Content)
	assert.Empty(t, c.History("other"))
}

func TestNewAdapterFromConfig(t *testing.T) {
	a, err := NewAdapterFromConfig(context.Background(), config.Config{LLMProvider: "gemini"}, nil)
	require.NoError(t, err)
	_, err = a.Generate(context.Background(), "s", "hi", PromptConversational)
	assert.True(t, errors.Is(err, apperr.ErrNotConfigured))

	a, err = NewAdapterFromConfig(context.Background(), config.Config{LLMProvider: "mock", LLMModel: "m1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", a.Provider())
	assert.Equal(t, "m1", a.Model())

	_, err = NewAdapterFromConfig(context.Background(), config.Config{LLMProvider: "nope"}, nil)
	assert.Error(t, err)
}

func TestMockClientRepliesPerPrompt(t *testing.T) {
	a := NewAdapter(NewMockClient(), AdapterConfig{})

	chat, err := a.Generate(context.Background(), "s", "hi", PromptConversational)
	require.NoError(t, err)
	assert.NotContains(t, chat, "```json")

	gen, err := a.Generate(context.Background(), "s", GenerationInstruction("relay"), PromptGeneration)
	require.NoError(t, err)
	assert.Contains(t, gen, "```json")
	assert.Contains(t, gen, "Webhook Relay")
}
