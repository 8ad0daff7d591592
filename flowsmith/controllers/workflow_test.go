package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"flowsmith/flowsmith/config"
	"flowsmith/flowsmith/services/llm"
	"flowsmith/flowsmith/services/metrics"
	"flowsmith/flowsmith/sources/psql"
	"flowsmith/flowsmith/sources/psql/dao"
	"flowsmith/flowsmith/sources/psql/models"
	"flowsmith/flowsmith/utils/apperr"
	"flowsmith/flowsmith/utils/types"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const formToEmailReply = "This workflow emails you when a form is submitted.\n\n```json\n" + `{
  "name": "Form to Email",
  "nodes": [
    {"parameters": {"path": "form"}, "name": "Webhook", "type": "n8n-nodes-base.webhook", "typeVersion": 1, "position": [240, 300]},
    {"parameters": {"toEmail": "me@example.com"}, "name": "Send Email", "type": "n8n-nodes-base.emailSend", "typeVersion": 1, "position": [460, 300]}
  ],
  "connections": {"Webhook": {"main": [[{"node": "Send Email", "type": "main", "index": 0}]]}},
  "active": false,
  "settings": {}
}` + "\n```\n\nSetup: add SMTP credentials."

// replyProvider answers with the queued replies in order, then "ok".
type replyProvider struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   int
}

func (p *replyProvider) Name() string { return "test" }

func (p *replyProvider) Run(ctx context.Context, req llm.ChatRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	if len(p.replies) == 0 {
		return "ok", nil
	}
	r := p.replies[0]
	p.replies = p.replies[1:]
	return r, nil
}

type fakeArchive struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (a *fakeArchive) UploadWorkflow(ctx context.Context, sessionID, workflowID string, definition []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	key := sessionID + "/" + workflowID
	a.keys = append(a.keys, key)
	return key, nil
}

type fixture struct {
	db       *psql.Database
	provider *replyProvider
	archive  *fakeArchive
	metrics  *metrics.Collector
	ctrl     *WorkflowController
}

func newFixture(t *testing.T, replies ...string) *fixture {
	t.Helper()
	db, err := psql.NewDatabase(context.Background(), config.Config{DBDriver: "sqlite", DBURL: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	f := &fixture{
		db:       db,
		provider: &replyProvider{replies: replies},
		archive:  &fakeArchive{},
		metrics:  metrics.NewCollector(),
	}
	adapter := llm.NewAdapter(f.provider, llm.AdapterConfig{Model: "gemini-2.0-flash", Metrics: f.metrics})
	f.ctrl = NewWorkflowController(adapter, dao.NewChatMessageDAO(db.DB), dao.NewWorkflowDAO(db.DB), f.archive, f.metrics)
	return f
}

func TestConverseWithoutWorkflowSucceeds(t *testing.T) {
	f := newFixture(t, "Sure, what should trigger the automation?")

	res, err := f.ctrl.Converse(context.Background(), "fresh", "I want to automate my inbox")
	require.NoError(t, err)
	assert.False(t, res.HasWorkflow)
	assert.Nil(t, res.WorkflowJSON)
	assert.Equal(t, "fresh", res.SessionID)

	history, err := f.ctrl.ChatHistory(context.Background(), "fresh")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "gemini-2.0-flash", history[0].AIModel)
	assert.Nil(t, history[0].WorkflowJSON)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Extractions.WithLabelValues(metrics.FlowChat, "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.GenerationRequests.WithLabelValues(metrics.FlowChat, "ok")))
}

func TestConverseWithWorkflowStoresIt(t *testing.T) {
	f := newFixture(t, formToEmailReply)

	res, err := f.ctrl.Converse(context.Background(), "s", "email me on form submit")
	require.NoError(t, err)
	assert.True(t, res.HasWorkflow)
	assert.Equal(t, "Form to Email", res.WorkflowJSON.Name())

	history, err := f.ctrl.ChatHistory(context.Background(), "s")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Contains(t, string(*history[0].WorkflowJSON), `"Form to Email"`)
}

func TestConverseTwiceKeepsOrder(t *testing.T) {
	f := newFixture(t, "first reply", "second reply")
	ctx := context.Background()

	_, err := f.ctrl.Converse(ctx, "s", "first message")
	require.NoError(t, err)
	_, err = f.ctrl.Converse(ctx, "s", "second message")
	require.NoError(t, err)

	history, err := f.ctrl.ChatHistory(ctx, "s")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "first message", history[0].UserMessage)
	assert.Equal(t, "second message", history[1].UserMessage)
	assert.Equal(t, "second reply", history[1].AIResponse)
}

func TestConverseAdapterFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.provider.err = errors.New("upstream exploded")

	_, err := f.ctrl.Converse(context.Background(), "s", "hello")
	require.Error(t, err)
	assert.Equal(t, apperr.TypeGenerationFailed, apperr.TypeOf(err))

	history, err := f.ctrl.ChatHistory(context.Background(), "s")
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.GenerationRequests.WithLabelValues(metrics.FlowChat, "generation_failed")))
}

func TestConverseRejectsEmptySession(t *testing.T) {
	f := newFixture(t)

	_, err := f.ctrl.Converse(context.Background(), "", "hello")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Equal(t, 0, f.provider.calls)
}

func TestConversePersistenceFailureFailsRequest(t *testing.T) {
	f := newFixture(t, "reply")
	f.db.Close()

	_, err := f.ctrl.Converse(context.Background(), "s", "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrPersistenceFailed))
}

func TestGenerateWorkflowFormToEmail(t *testing.T) {
	f := newFixture(t, formToEmailReply)
	ctx := context.Background()

	res, err := f.ctrl.GenerateWorkflow(ctx, types.GenerateWorkflowRequest{
		Description: "Notify me by email when a form is submitted",
		SessionID:   "s1",
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", res.SessionID)
	assert.Equal(t, formToEmailReply, res.Explanation)

	var def types.Definition
	require.NoError(t, json.Unmarshal(res.WorkflowJSON, &def))
	assert.Equal(t, "Form to Email", def.Name())
	assert.Len(t, def.Nodes(), 2)

	list, err := f.ctrl.ListWorkflows(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Form to Email", list[0].Name)
	assert.Equal(t, res.WorkflowID, list[0].ID)
	assert.Equal(t, models.WorkflowStatusGenerated, list[0].Status)
	assert.Equal(t, models.DemoUserID, list[0].UserID)
	assert.Equal(t, "Notify me by email when a form is submitted", list[0].Description)

	assert.Equal(t, []string{"s1/" + res.WorkflowID}, f.archive.keys)
}

func TestGenerateWorkflowNoArtifactWritesNothing(t *testing.T) {
	f := newFixture(t, "I am not sure how to build that, could you clarify?")
	ctx := context.Background()

	_, err := f.ctrl.GenerateWorkflow(ctx, types.GenerateWorkflowRequest{Description: "something", SessionID: "s"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrNoArtifactRecovered))
	assert.Equal(t, "Could not generate valid workflow JSON", err.Error())

	list, err := f.ctrl.ListWorkflows(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.archive.keys)
}

func TestGenerateWorkflowDefaultName(t *testing.T) {
	f := newFixture(t, "```json\n{\"nodes\": [], \"connections\": {}}\n```")

	res, err := f.ctrl.GenerateWorkflow(context.Background(), types.GenerateWorkflowRequest{Description: "x", SessionID: "s"})
	require.NoError(t, err)

	w, err := f.ctrl.GetWorkflow(context.Background(), "s", res.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultWorkflowName, w.Name)
}

func TestGenerateWorkflowLongName(t *testing.T) {
	long := strings.Repeat("Sync ", 60)
	f := newFixture(t, "```json\n{\"name\": \""+long+"\", \"nodes\": [], \"connections\": {}}\n```")

	res, err := f.ctrl.GenerateWorkflow(context.Background(), types.GenerateWorkflowRequest{Description: "x", SessionID: "s"})
	require.NoError(t, err)

	w, err := f.ctrl.GetWorkflow(context.Background(), "s", res.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, long, w.Name)
	assert.Len(t, w.Name, 300)
}

func TestGenerateWorkflowIdempotencyKey(t *testing.T) {
	f := newFixture(t, formToEmailReply, formToEmailReply)
	ctx := context.Background()
	req := types.GenerateWorkflowRequest{Description: "form to email", SessionID: "s", IdempotencyKey: "attempt-1"}

	first, err := f.ctrl.GenerateWorkflow(ctx, req)
	require.NoError(t, err)
	second, err := f.ctrl.GenerateWorkflow(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.WorkflowID, second.WorkflowID)
	assert.Equal(t, first.Explanation, second.Explanation)
	assert.Equal(t, 1, f.provider.calls)

	list, err := f.ctrl.ListWorkflows(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// without a key every call generates
	req.IdempotencyKey = ""
	_, err = f.ctrl.GenerateWorkflow(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, f.provider.calls)
}

func TestGenerateWorkflowArchiveFailureIsIgnored(t *testing.T) {
	f := newFixture(t, formToEmailReply)
	f.archive.err = errors.New("bucket gone")

	_, err := f.ctrl.GenerateWorkflow(context.Background(), types.GenerateWorkflowRequest{Description: "x", SessionID: "s"})
	require.NoError(t, err)
}

func TestGenerateWorkflowUnconfigured(t *testing.T) {
	f := newFixture(t)
	f.ctrl.adapter = llm.NewUnconfiguredAdapter("Gemini API key not configured", llm.AdapterConfig{})

	_, err := f.ctrl.GenerateWorkflow(context.Background(), types.GenerateWorkflowRequest{Description: "x", SessionID: "s"})
	assert.True(t, errors.Is(err, apperr.ErrNotConfigured))
	assert.Equal(t, 0, f.provider.calls)
}

func TestSaveDraftAndExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.ctrl.SaveDraft(ctx, types.SaveWorkflowRequest{
		SessionID:    "s",
		WorkflowJSON: types.Definition{"name": "Manual", "nodes": []any{}, "typeVersion": json.Number("2")},
	})
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusDraft, w.Status)
	assert.Equal(t, "Manual", w.Name)

	body, ct, name, err := f.ctrl.ExportWorkflow(ctx, "s", w.ID, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "application/json", ct)
	assert.Equal(t, w.ID+".json", name)
	assert.JSONEq(t, `{"name":"Manual","nodes":[],"typeVersion":2}`, string(body))

	body, ct, _, err = f.ctrl.ExportWorkflow(ctx, "s", w.ID, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "application/yaml", ct)
	var back map[string]any
	require.NoError(t, yaml.Unmarshal(body, &back))
	assert.Equal(t, "Manual", back["name"])
	assert.Equal(t, 2, back["typeVersion"])

	_, _, _, err = f.ctrl.ExportWorkflow(ctx, "s", w.ID, "xml")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, _, _, err = f.ctrl.ExportWorkflow(ctx, "s", "missing", FormatJSON)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = f.ctrl.SaveDraft(ctx, types.SaveWorkflowRequest{SessionID: "s", WorkflowJSON: types.Definition{}})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}
