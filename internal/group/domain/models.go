// Package domain contains the tenant (group) reference data consumed by the
// webhook handlers and the grace-period sweep. Group rows are owned by the
// onboarding flow; this service only reads them.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type GroupStatus string

const (
	GroupStatusActive   GroupStatus = "active"
	GroupStatusInactive GroupStatus = "inactive"
)

type Group struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	TelegramGroupID int64        `gorm:"not null"`
	CheckoutURL     string       `gorm:"type:text"`
	ProviderPlanID  string       `gorm:"type:text;index"`
	Status          GroupStatus  `gorm:"type:text;not null;default:'active'"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Group) TableName() string { return "groups" }
