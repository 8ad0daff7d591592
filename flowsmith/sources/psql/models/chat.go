package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChatMessage is one completed exchange: the user's text and the model's
// reply, plus the workflow recovered from the reply when there was one.
//
// Seq only breaks timestamp ties in read order and never leaves the store.
type ChatMessage struct {
	Seq          uint            `json:"-" gorm:"primaryKey;autoIncrement"`
	ID           string          `json:"id" gorm:"type:varchar(36);uniqueIndex;not null"`
	SessionID    string          `json:"session_id" gorm:"type:varchar(255);not null;index:idx_chat_session_ts,priority:1"`
	UserMessage  string          `json:"user_message" gorm:"type:text;not null"`
	AIResponse   string          `json:"ai_response" gorm:"type:text;not null"`
	WorkflowJSON *datatypes.JSON `json:"workflow_json"`
	AIModel      string          `json:"ai_model" gorm:"type:varchar(100);not null"`
	Timestamp    time.Time       `json:"timestamp" gorm:"not null;index:idx_chat_session_ts,priority:2"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return nil
}
