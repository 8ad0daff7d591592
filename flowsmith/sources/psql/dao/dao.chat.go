package dao

import (
	"context"
	"strings"

	"flowsmith/flowsmith/sources/psql/models"
	"flowsmith/flowsmith/utils/apperr"
	"flowsmith/flowsmith/utils/logging"

	"gorm.io/gorm"
)

// DefaultListLimit caps every list query.
const DefaultListLimit = 1000

var errEmptySession = apperr.New(apperr.ErrValidation, "session_id must not be empty")

type ChatMessageDAO struct {
	DB *gorm.DB
}

func NewChatMessageDAO(db *gorm.DB) *ChatMessageDAO {
	return &ChatMessageDAO{DB: db}
}

// AppendMessage stores one exchange. ID and Timestamp are filled in when unset.
func (dao *ChatMessageDAO) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	defer logging.LogDuration(ctx, "dao_append_message")()
	if strings.TrimSpace(msg.SessionID) == "" {
		return errEmptySession
	}
	return apperr.Persistence("append message", dao.DB.WithContext(ctx).Create(msg).Error)
}

// ListMessagesBySession returns the session's messages oldest first. Equal
// timestamps keep insertion order. A limit <= 0 means DefaultListLimit.
func (dao *ChatMessageDAO) ListMessagesBySession(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	defer logging.LogDuration(ctx, "dao_list_messages")()
	if limit <= 0 {
		limit = DefaultListLimit
	}
	messages := []models.ChatMessage{}
	err := dao.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC").
		Order("seq ASC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, apperr.Persistence("list messages", err)
	}
	return messages, nil
}
