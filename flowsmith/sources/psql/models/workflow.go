package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	WorkflowStatusDraft     = "draft"
	WorkflowStatusGenerated = "generated"

	// DemoUserID owns every workflow until accounts exist.
	DemoUserID = "demo-user"
)

// Workflow is a persisted workflow definition bound to a session.
type Workflow struct {
	ID             string         `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID         string         `json:"user_id" gorm:"type:varchar(255);not null"`
	SessionID      string         `json:"session_id" gorm:"type:varchar(255);not null;index;uniqueIndex:idx_workflow_idempotency,priority:1"`
	Name           string         `json:"name" gorm:"type:text;not null"`
	Description    string         `json:"description" gorm:"type:text"`
	WorkflowJSON   datatypes.JSON `json:"workflow_json" gorm:"not null"`
	AIModelUsed    string         `json:"ai_model_used" gorm:"type:varchar(100)"`
	Status         string         `json:"status" gorm:"type:varchar(20);not null;default:'draft'"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime"`
	IdempotencyKey *string        `json:"-" gorm:"type:varchar(255);uniqueIndex:idx_workflow_idempotency,priority:2"`

	// Explanation is the full model reply, replayed on idempotent retries.
	Explanation string `json:"-" gorm:"type:text"`
}

func (Workflow) TableName() string {
	return "workflows"
}

func (w *Workflow) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.UserID == "" {
		w.UserID = DemoUserID
	}
	if w.Status == "" {
		w.Status = WorkflowStatusDraft
	}
	return nil
}
