package dao

import (
	"context"
	"errors"
	"strings"

	"flowsmith/flowsmith/sources/psql/models"
	"flowsmith/flowsmith/utils/apperr"
	"flowsmith/flowsmith/utils/logging"

	"gorm.io/gorm"
)

type WorkflowDAO struct {
	DB *gorm.DB
}

func NewWorkflowDAO(db *gorm.DB) *WorkflowDAO {
	return &WorkflowDAO{DB: db}
}

// InsertWorkflows stores every workflow in one transaction: all or none.
func (dao *WorkflowDAO) InsertWorkflows(ctx context.Context, workflows ...*models.Workflow) error {
	defer logging.LogDuration(ctx, "dao_insert_workflows")()
	if len(workflows) == 0 {
		return nil
	}
	for _, w := range workflows {
		if strings.TrimSpace(w.SessionID) == "" {
			return errEmptySession
		}
	}
	err := dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(workflows).Error
	})
	return apperr.Persistence("insert workflows", err)
}

// ListWorkflowsBySession returns the session's workflows oldest first.
func (dao *WorkflowDAO) ListWorkflowsBySession(ctx context.Context, sessionID string, limit int) ([]models.Workflow, error) {
	defer logging.LogDuration(ctx, "dao_list_workflows")()
	if limit <= 0 {
		limit = DefaultListLimit
	}
	workflows := []models.Workflow{}
	err := dao.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Limit(limit).
		Find(&workflows).Error
	if err != nil {
		return nil, apperr.Persistence("list workflows", err)
	}
	return workflows, nil
}

// GetWorkflow returns (nil, nil) when no workflow with that id belongs to the session.
func (dao *WorkflowDAO) GetWorkflow(ctx context.Context, sessionID, id string) (*models.Workflow, error) {
	var w models.Workflow
	err := dao.DB.WithContext(ctx).
		Where("session_id = ? AND id = ?", sessionID, id).
		First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence("get workflow", err)
	}
	return &w, nil
}

// FindWorkflowByIdempotencyKey returns (nil, nil) on a miss.
func (dao *WorkflowDAO) FindWorkflowByIdempotencyKey(ctx context.Context, sessionID, key string) (*models.Workflow, error) {
	var w models.Workflow
	err := dao.DB.WithContext(ctx).
		Where("session_id = ? AND idempotency_key = ?", sessionID, key).
		First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence("find workflow by idempotency key", err)
	}
	return &w, nil
}
