package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, event *WebhookEvent) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*WebhookEvent, error)
	// FindPending returns the oldest-first batch of pending events.
	FindPending(ctx context.Context, db *gorm.DB, limit int) ([]WebhookEvent, error)
	// Claim moves pending -> processing. A false return means another worker
	// claimed the event first; that is a skip, not an error.
	Claim(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)
	Complete(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error
	// RetryOrFail increments attempts and either resets the event to pending
	// or, once attempts reach maxAttempts, marks it failed. Returns the
	// resulting status and attempt count as stored.
	RetryOrFail(ctx context.Context, db *gorm.DB, id snowflake.ID, errMsg string, maxAttempts int, now time.Time) (EventStatus, int, error)
	// RecoverStuck resets processing events whose updated_at is older than the
	// cutoff (a worker died mid-flight), failing those out of attempts.
	RecoverStuck(ctx context.Context, db *gorm.DB, cutoff time.Time, maxAttempts int, now time.Time) (recovered int64, failed int64, err error)
}
