package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StatusCheck struct {
	ID         string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	ClientName string    `json:"client_name" gorm:"type:varchar(255);not null"`
	Timestamp  time.Time `json:"timestamp" gorm:"not null"`
}

func (StatusCheck) TableName() string {
	return "status_checks"
}

func (s *StatusCheck) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now().UTC()
	}
	return nil
}
