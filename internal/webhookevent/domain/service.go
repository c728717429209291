package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	// ErrEventAlreadyQueued means an event with the same idempotency key was
	// ingested before; the webhook endpoint answers it with 200.
	ErrEventAlreadyQueued = errors.New("event_already_queued")
	ErrEventNotFound      = errors.New("event_not_found")
	// ErrInvalidEvent means the enqueue request is missing its idempotency key
	// or event type.
	ErrInvalidEvent = errors.New("invalid_event")
)

type EnqueueRequest struct {
	IdempotencyKey string
	EventType      string
	Payload        []byte
}

// Queue is the only surface the webhook endpoint and the dispatcher are
// allowed to touch.
type Queue interface {
	Enqueue(ctx context.Context, req EnqueueRequest) (WebhookEvent, error)
	FetchPending(ctx context.Context, limit int) ([]WebhookEvent, error)
	Claim(ctx context.Context, id snowflake.ID) (bool, error)
	Complete(ctx context.Context, id snowflake.ID) error
	// RetryOrFail returns the resulting status and the stored attempt count,
	// which may exceed the caller's snapshot when a recovery sweep also
	// bumped it.
	RetryOrFail(ctx context.Context, id snowflake.ID, errMsg string, maxAttempts int) (EventStatus, int, error)
	RecoverStuck(ctx context.Context, timeout time.Duration, maxAttempts int) (recovered int64, failed int64, err error)
	GetByID(ctx context.Context, id snowflake.ID) (WebhookEvent, error)
}
