package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Group, error)
	FindByPlanID(ctx context.Context, db *gorm.DB, planID string) (*Group, error)
}
