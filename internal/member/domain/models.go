// Package domain contains the member entity and its lifecycle state machine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status represents lifecycle states for a member.
type Status string

const (
	StatusTrial        Status = "trial"
	StatusAtivo        Status = "ativo"
	StatusInadimplente Status = "inadimplente"
	StatusRemovido     Status = "removido"
)

// Member is a subscriber of a telegram group. A member is never hard-deleted;
// the terminal state is StatusRemovido. The same telegram id may exist in two
// different tenants as two independent rows.
type Member struct {
	ID         snowflake.ID  `gorm:"primaryKey"`
	TelegramID *int64        `gorm:"index"`
	Email      *string       `gorm:"type:text"`
	GroupID    *snowflake.ID `gorm:"index"`

	ProviderSubscriptionID *string `gorm:"type:text;index"`
	PayerID                *string `gorm:"type:text"`
	PaymentMethod          *string `gorm:"type:text"`

	Status             Status     `gorm:"type:text;not null"`
	TrialStartedAt     *time.Time `gorm:""`
	TrialEndsAt        *time.Time `gorm:""`
	SubscriptionEndsAt *time.Time `gorm:""`
	InadimplenteAt     *time.Time `gorm:""`
	KickedAt           *time.Time `gorm:""`

	// Notes is an append-only audit trail of transitions and manual actions.
	Notes string `gorm:"type:text;not null;default:''"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Member) TableName() string { return "members" }
