package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	eventdomain "github.com/marcelomar21/bets-estatistica/internal/webhookevent/domain"
	"gorm.io/gorm"
)

const eventColumns = `id, idempotency_key, event_type, payload, status, attempts,
	 last_error, created_at, updated_at, processed_at`

type repo struct{}

func Provide() eventdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, event *eventdomain.WebhookEvent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO webhook_events (
			id, idempotency_key, event_type, payload, status, attempts,
			last_error, created_at, updated_at, processed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.IdempotencyKey,
		event.EventType,
		event.Payload,
		event.Status,
		event.Attempts,
		event.LastError,
		event.CreatedAt,
		event.UpdatedAt,
		event.ProcessedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*eventdomain.WebhookEvent, error) {
	var event eventdomain.WebhookEvent
	err := db.WithContext(ctx).Raw(
		`SELECT `+eventColumns+` FROM webhook_events WHERE id = ?`,
		id,
	).Scan(&event).Error
	if err != nil {
		return nil, err
	}
	if event.ID == 0 {
		return nil, nil
	}
	return &event, nil
}

func (r *repo) FindPending(ctx context.Context, db *gorm.DB, limit int) ([]eventdomain.WebhookEvent, error) {
	var events []eventdomain.WebhookEvent
	err := db.WithContext(ctx).Raw(
		`SELECT `+eventColumns+`
		 FROM webhook_events
		 WHERE status = ?
		 ORDER BY created_at ASC, id ASC
		 LIMIT ?`,
		eventdomain.EventStatusPending,
		limit,
	).Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repo) Claim(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE webhook_events
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		eventdomain.EventStatusProcessing,
		now,
		id,
		eventdomain.EventStatusPending,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) Complete(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE webhook_events
		 SET status = ?, processed_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		eventdomain.EventStatusCompleted,
		now,
		now,
		id,
		eventdomain.EventStatusProcessing,
	).Error
}

func (r *repo) RetryOrFail(ctx context.Context, db *gorm.DB, id snowflake.ID, errMsg string, maxAttempts int, now time.Time) (eventdomain.EventStatus, int, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE webhook_events
		 SET attempts = attempts + 1,
		     status = CASE WHEN attempts + 1 >= ? THEN ? ELSE ? END,
		     last_error = ?,
		     updated_at = ?
		 WHERE id = ? AND status = ?`,
		maxAttempts,
		eventdomain.EventStatusFailed,
		eventdomain.EventStatusPending,
		errMsg,
		now,
		id,
		eventdomain.EventStatusProcessing,
	)
	if result.Error != nil {
		return "", 0, result.Error
	}
	if result.RowsAffected == 0 {
		return "", 0, eventdomain.ErrEventNotFound
	}

	var row struct {
		Status   eventdomain.EventStatus
		Attempts int
	}
	if err := db.WithContext(ctx).Raw(
		`SELECT status, attempts FROM webhook_events WHERE id = ?`,
		id,
	).Scan(&row).Error; err != nil {
		return "", 0, err
	}
	return row.Status, row.Attempts, nil
}

func (r *repo) RecoverStuck(ctx context.Context, db *gorm.DB, cutoff time.Time, maxAttempts int, now time.Time) (int64, int64, error) {
	// Fail the ones out of attempts first so the reset below cannot pick
	// them up.
	failResult := db.WithContext(ctx).Exec(
		`UPDATE webhook_events
		 SET status = ?, attempts = attempts + 1, last_error = ?, updated_at = ?
		 WHERE status = ? AND updated_at < ? AND attempts + 1 >= ?`,
		eventdomain.EventStatusFailed,
		"stuck in processing",
		now,
		eventdomain.EventStatusProcessing,
		cutoff,
		maxAttempts,
	)
	if failResult.Error != nil {
		return 0, 0, failResult.Error
	}

	recoverResult := db.WithContext(ctx).Exec(
		`UPDATE webhook_events
		 SET status = ?, attempts = attempts + 1, last_error = ?, updated_at = ?
		 WHERE status = ? AND updated_at < ?`,
		eventdomain.EventStatusPending,
		"stuck in processing",
		now,
		eventdomain.EventStatusProcessing,
		cutoff,
	)
	if recoverResult.Error != nil {
		return 0, failResult.RowsAffected, recoverResult.Error
	}
	return recoverResult.RowsAffected, failResult.RowsAffected, nil
}
