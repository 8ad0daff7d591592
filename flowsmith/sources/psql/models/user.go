package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is migrated for forward compatibility. Nothing creates rows yet and
// credits are not enforced.
type User struct {
	ID               string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Email            string    `json:"email" gorm:"type:varchar(255);not null"`
	Name             string    `json:"name" gorm:"type:varchar(255);not null"`
	SubscriptionTier string    `json:"subscription_tier" gorm:"type:varchar(50);not null;default:'free'"`
	APICredits       int       `json:"api_credits" gorm:"not null;default:100"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
