package dao

import (
	"context"

	"flowsmith/flowsmith/sources/psql/models"
	"flowsmith/flowsmith/utils/apperr"

	"gorm.io/gorm"
)

type StatusCheckDAO struct {
	DB *gorm.DB
}

func NewStatusCheckDAO(db *gorm.DB) *StatusCheckDAO {
	return &StatusCheckDAO{DB: db}
}

func (dao *StatusCheckDAO) CreateStatusCheck(ctx context.Context, check *models.StatusCheck) error {
	return apperr.Persistence("create status check", dao.DB.WithContext(ctx).Create(check).Error)
}

func (dao *StatusCheckDAO) ListStatusChecks(ctx context.Context, limit int) ([]models.StatusCheck, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	checks := []models.StatusCheck{}
	if err := dao.DB.WithContext(ctx).Order("timestamp ASC").Limit(limit).Find(&checks).Error; err != nil {
		return nil, apperr.Persistence("list status checks", err)
	}
	return checks, nil
}
