package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	groupdomain "github.com/marcelomar21/bets-estatistica/internal/group/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() groupdomain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*groupdomain.Group, error) {
	var group groupdomain.Group
	err := db.WithContext(ctx).Raw(
		`SELECT id, telegram_group_id, checkout_url, provider_plan_id, status, created_at, updated_at
		 FROM groups WHERE id = ?`,
		id,
	).Scan(&group).Error
	if err != nil {
		return nil, err
	}
	if group.ID == 0 {
		return nil, nil
	}
	return &group, nil
}

func (r *repo) FindByPlanID(ctx context.Context, db *gorm.DB, planID string) (*groupdomain.Group, error) {
	var group groupdomain.Group
	err := db.WithContext(ctx).Raw(
		`SELECT id, telegram_group_id, checkout_url, provider_plan_id, status, created_at, updated_at
		 FROM groups
		 WHERE provider_plan_id = ? AND status = ?
		 LIMIT 1`,
		planID,
		groupdomain.GroupStatusActive,
	).Scan(&group).Error
	if err != nil {
		return nil, err
	}
	if group.ID == 0 {
		return nil, nil
	}
	return &group, nil
}
