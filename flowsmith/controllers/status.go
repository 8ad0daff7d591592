package controllers

import (
	"context"

	"flowsmith/flowsmith/sources/psql/dao"
	"flowsmith/flowsmith/sources/psql/models"
)

type StatusController struct {
	dao *dao.StatusCheckDAO
}

func NewStatusController(dao *dao.StatusCheckDAO) *StatusController {
	return &StatusController{dao: dao}
}

func (c *StatusController) CreateStatusCheck(ctx context.Context, clientName string) (*models.StatusCheck, error) {
	check := &models.StatusCheck{ClientName: clientName}
	if err := c.dao.CreateStatusCheck(ctx, check); err != nil {
		return nil, err
	}
	return check, nil
}

func (c *StatusController) ListStatusChecks(ctx context.Context) ([]models.StatusCheck, error) {
	return c.dao.ListStatusChecks(ctx, dao.DefaultListLimit)
}
