// Package domain contains the durable webhook event queue. The row's own
// status column doubles as the work-queue marker and the mutex: claiming an
// event is a conditional write, which is correct under multiple concurrent
// workers because the database applies it atomically.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type EventStatus string

const (
	EventStatusPending    EventStatus = "pending"
	EventStatusProcessing EventStatus = "processing"
	EventStatusCompleted  EventStatus = "completed"
	EventStatusFailed     EventStatus = "failed"
)

const (
	EventTypeSubscriptionCreated   = "subscription.created"
	EventTypePaymentApproved       = "payment.approved"
	EventTypePaymentRejected       = "payment.rejected"
	EventTypeSubscriptionCancelled = "subscription.cancelled"
)

type WebhookEvent struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	IdempotencyKey string       `gorm:"type:text;not null;uniqueIndex"`
	EventType      string       `gorm:"type:text;not null"`
	Payload        []byte       `gorm:"type:jsonb;not null"`
	Status         EventStatus  `gorm:"type:text;not null;default:'pending'"`
	Attempts       int          `gorm:"not null;default:0"`
	LastError      *string      `gorm:"type:text"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	ProcessedAt    *time.Time   `gorm:""`
}

func (WebhookEvent) TableName() string { return "webhook_events" }
