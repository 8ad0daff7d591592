package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"flowsmith/flowsmith/services/llm"
	"flowsmith/flowsmith/services/metrics"
	"flowsmith/flowsmith/sources/psql/dao"
	"flowsmith/flowsmith/sources/psql/models"
	"flowsmith/flowsmith/sources/storage"
	"flowsmith/flowsmith/utils/apperr"
	"flowsmith/flowsmith/utils/jsonutils"
	"flowsmith/flowsmith/utils/logging"
	"flowsmith/flowsmith/utils/types"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
)

// WorkflowController runs the chat and generation pipelines:
// model call, extraction, then persistence. Nothing is written unless the
// model call succeeded, and a failed write fails the whole request.
type WorkflowController struct {
	adapter     *llm.Adapter
	chatDAO     *dao.ChatMessageDAO
	workflowDAO *dao.WorkflowDAO
	archive     storage.Archive
	metrics     *metrics.Collector
}

// NewWorkflowController wires the pipeline. archive and m may be nil.
func NewWorkflowController(adapter *llm.Adapter, chatDAO *dao.ChatMessageDAO, workflowDAO *dao.WorkflowDAO, archive storage.Archive, m *metrics.Collector) *WorkflowController {
	return &WorkflowController{
		adapter:     adapter,
		chatDAO:     chatDAO,
		workflowDAO: workflowDAO,
		archive:     archive,
		metrics:     m,
	}
}

func requireSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return apperr.New(apperr.ErrValidation, "session_id must not be empty")
	}
	return nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(string(apperr.TypeOf(err)))
}

// Converse sends text on the session's conversation, records the exchange
// and returns the reply with any workflow found in it. Finding no workflow
// is a normal outcome.
func (c *WorkflowController) Converse(ctx context.Context, sessionID, text string) (res *types.ChatResponse, err error) {
	defer logging.LogDuration(ctx, "workflow_converse")()
	defer func() { c.metrics.ObserveRequest(metrics.FlowChat, outcome(err)) }()

	if err := requireSession(sessionID); err != nil {
		return nil, err
	}

	reply, err := c.adapter.Generate(ctx, sessionID, text, llm.PromptConversational)
	if err != nil {
		return nil, err
	}

	def, found := jsonutils.ExtractWorkflow(reply)
	c.metrics.ObserveExtraction(metrics.FlowChat, found)

	msg := &models.ChatMessage{
		SessionID:   sessionID,
		UserMessage: text,
		AIResponse:  reply,
		AIModel:     c.adapter.Model(),
	}
	if found {
		raw, err := def.Bytes()
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrNoArtifactRecovered, "encoding workflow", err)
		}
		doc := datatypes.JSON(raw)
		msg.WorkflowJSON = &doc
	}
	if err := c.chatDAO.AppendMessage(ctx, msg); err != nil {
		logging.ErrorLogger.Error("Chat error", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	return &types.ChatResponse{
		Response:     reply,
		WorkflowJSON: def,
		SessionID:    sessionID,
		HasWorkflow:  found,
	}, nil
}

// GenerateWorkflow asks for a complete workflow for req.Description and
// stores it with status generated. A reply without a recoverable workflow
// fails with ErrNoArtifactRecovered and writes nothing.
func (c *WorkflowController) GenerateWorkflow(ctx context.Context, req types.GenerateWorkflowRequest) (res *types.GenerateWorkflowResponse, err error) {
	defer logging.LogDuration(ctx, "workflow_generate")()
	defer func() { c.metrics.ObserveRequest(metrics.FlowGenerate, outcome(err)) }()

	if err := requireSession(req.SessionID); err != nil {
		return nil, err
	}

	var key *string
	if req.IdempotencyKey != "" {
		key = &req.IdempotencyKey
		existing, err := c.workflowDAO.FindWorkflowByIdempotencyKey(ctx, req.SessionID, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			logging.AppLogger.Info("Idempotent generate replayed",
				zap.String("session_id", req.SessionID),
				zap.String("workflow_id", existing.ID),
			)
			return generateResponse(existing), nil
		}
	}

	reply, err := c.adapter.Generate(ctx, req.SessionID, llm.GenerationInstruction(req.Description), llm.PromptGeneration)
	if err != nil {
		return nil, err
	}

	def, found := jsonutils.ExtractWorkflow(reply)
	c.metrics.ObserveExtraction(metrics.FlowGenerate, found)
	if !found {
		logging.ErrorLogger.Warn("No workflow in generation reply",
			zap.String("session_id", req.SessionID),
			zap.Int("reply_len", len(reply)),
		)
		return nil, apperr.New(apperr.ErrNoArtifactRecovered, "Could not generate valid workflow JSON")
	}
	raw, err := def.Bytes()
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrNoArtifactRecovered, "encoding workflow", err)
	}

	w := &models.Workflow{
		UserID:         models.DemoUserID,
		SessionID:      req.SessionID,
		Name:           def.NameOr(types.DefaultWorkflowName),
		Description:    req.Description,
		WorkflowJSON:   raw,
		AIModelUsed:    c.adapter.Model(),
		Status:         models.WorkflowStatusGenerated,
		IdempotencyKey: key,
		Explanation:    reply,
	}
	if err := c.workflowDAO.InsertWorkflows(ctx, w); err != nil {
		// a concurrent request with the same key may have won the insert
		if key != nil {
			if existing, ferr := c.workflowDAO.FindWorkflowByIdempotencyKey(ctx, req.SessionID, *key); ferr == nil && existing != nil {
				return generateResponse(existing), nil
			}
		}
		logging.ErrorLogger.Error("Workflow generation error", zap.String("session_id", req.SessionID), zap.Error(err))
		return nil, err
	}

	fields := []zap.Field{zap.String("session_id", w.SessionID), zap.String("workflow_id", w.ID), zap.String("name", w.Name)}
	if g, err := def.Graph(); err == nil {
		fields = append(fields, zap.Int("nodes", len(g.Nodes)), zap.Int("edges", g.EdgeCount()))
	}
	logging.AppLogger.Info("Workflow generated", fields...)

	c.mirror(ctx, w)
	return generateResponse(w), nil
}

// mirror copies a committed workflow to the archive. Failures are logged only.
func (c *WorkflowController) mirror(ctx context.Context, w *models.Workflow) {
	if c.archive == nil {
		return
	}
	if _, err := c.archive.UploadWorkflow(ctx, w.SessionID, w.ID, w.WorkflowJSON); err != nil {
		logging.ErrorLogger.Warn("Workflow archive upload failed",
			zap.String("workflow_id", w.ID),
			zap.Error(err),
		)
	}
}

func generateResponse(w *models.Workflow) *types.GenerateWorkflowResponse {
	return &types.GenerateWorkflowResponse{
		WorkflowJSON: json.RawMessage(w.WorkflowJSON),
		Explanation:  w.Explanation,
		WorkflowID:   w.ID,
		SessionID:    w.SessionID,
	}
}

// SaveDraft stores a client supplied definition with status draft.
func (c *WorkflowController) SaveDraft(ctx context.Context, req types.SaveWorkflowRequest) (*models.Workflow, error) {
	if err := requireSession(req.SessionID); err != nil {
		return nil, err
	}
	if len(req.WorkflowJSON) == 0 {
		return nil, apperr.New(apperr.ErrValidation, "workflow_json must be a non-empty object")
	}
	raw, err := req.WorkflowJSON.Bytes()
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrValidation, "workflow_json", err)
	}

	name := req.Name
	if name == "" {
		name = req.WorkflowJSON.NameOr(types.DefaultWorkflowName)
	}
	w := &models.Workflow{
		UserID:       models.DemoUserID,
		SessionID:    req.SessionID,
		Name:         name,
		Description:  req.Description,
		WorkflowJSON: raw,
		AIModelUsed:  "",
		Status:       models.WorkflowStatusDraft,
	}
	if err := c.workflowDAO.InsertWorkflows(ctx, w); err != nil {
		return nil, err
	}
	c.mirror(ctx, w)
	return w, nil
}

func (c *WorkflowController) ListWorkflows(ctx context.Context, sessionID string) ([]models.Workflow, error) {
	return c.workflowDAO.ListWorkflowsBySession(ctx, sessionID, dao.DefaultListLimit)
}

func (c *WorkflowController) GetWorkflow(ctx context.Context, sessionID, id string) (*models.Workflow, error) {
	w, err := c.workflowDAO.GetWorkflow(ctx, sessionID, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, apperr.New(apperr.ErrNotFound, "Workflow not found")
	}
	return w, nil
}

// ChatHistory returns the session's messages oldest first.
func (c *WorkflowController) ChatHistory(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	return c.chatDAO.ListMessagesBySession(ctx, sessionID, dao.DefaultListLimit)
}

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ExportWorkflow renders a stored definition as an importable file.
func (c *WorkflowController) ExportWorkflow(ctx context.Context, sessionID, id, format string) (body []byte, contentType, filename string, err error) {
	w, err := c.GetWorkflow(ctx, sessionID, id)
	if err != nil {
		return nil, "", "", err
	}

	dec := json.NewDecoder(bytes.NewReader(w.WorkflowJSON))
	dec.UseNumber()
	var def types.Definition
	if err := dec.Decode(&def); err != nil {
		return nil, "", "", fmt.Errorf("decoding stored workflow %s: %w", w.ID, err)
	}

	switch format {
	case "", FormatJSON:
		return []byte(jsonutils.ToJSON(def)), "application/json", w.ID + ".json", nil
	case FormatYAML:
		out, err := yaml.Marshal(map[string]any(def))
		if err != nil {
			return nil, "", "", fmt.Errorf("encoding workflow %s as yaml: %w", w.ID, err)
		}
		return out, "application/yaml", w.ID + ".yaml", nil
	default:
		return nil, "", "", apperr.New(apperr.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
}
