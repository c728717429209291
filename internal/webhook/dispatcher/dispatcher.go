// Package dispatcher drives pending webhook events through their handlers.
// It is safe to run from several processes at once: claiming an event is a
// conditional write on the row's status, so a lost claim is a skip, not an
// error.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/marcelomar21/bets-estatistica/internal/alerter"
	"github.com/marcelomar21/bets-estatistica/internal/config"
	"github.com/marcelomar21/bets-estatistica/internal/observability/metrics"
	"github.com/marcelomar21/bets-estatistica/internal/webhook/handlers"
	eventdomain "github.com/marcelomar21/bets-estatistica/internal/webhookevent/domain"
	"go.uber.org/zap"
)

type Dispatcher struct {
	queue    eventdomain.Queue
	registry handlers.Registry
	alerter  alerter.Alerter
	metrics  *metrics.Metrics
	logger   *zap.Logger

	batchSize    int
	maxAttempts  int
	stuckTimeout time.Duration
}

func New(
	queue eventdomain.Queue,
	registry handlers.Registry,
	adminAlerter alerter.Alerter,
	m *metrics.Metrics,
	cfg config.Config,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		queue:        queue,
		registry:     registry,
		alerter:      adminAlerter,
		metrics:      m,
		logger:       logger.Named("webhook.dispatcher"),
		batchSize:    cfg.DispatchBatchSize,
		maxAttempts:  cfg.MaxAttempts,
		stuckTimeout: cfg.StuckTimeout,
	}
}

// RunOnce recovers stuck events, then claims and processes one batch.
func (d *Dispatcher) RunOnce(ctx context.Context) error {
	recovered, failed, err := d.queue.RecoverStuck(ctx, d.stuckTimeout, d.maxAttempts)
	if err != nil {
		return fmt.Errorf("recover stuck events: %w", err)
	}
	if recovered > 0 || failed > 0 {
		d.logger.Warn("dispatcher.stuck_events_recovered",
			zap.Int64("reset_to_pending", recovered),
			zap.Int64("marked_failed", failed),
		)
	}

	events, err := d.queue.FetchPending(ctx, d.batchSize)
	if err != nil {
		return fmt.Errorf("fetch pending events: %w", err)
	}

	for _, event := range events {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.process(ctx, event)
	}
	return nil
}

func (d *Dispatcher) process(ctx context.Context, event eventdomain.WebhookEvent) {
	claimed, err := d.queue.Claim(ctx, event.ID)
	if err != nil {
		d.logger.Error("dispatcher.claim_failed",
			zap.Int64("event_id", int64(event.ID)),
			zap.Error(err),
		)
		return
	}
	if !claimed {
		// Another worker got there first.
		return
	}

	handler, ok := d.registry.For(event.EventType)
	if !ok {
		// No handler means nothing will ever process this event; retrying
		// would loop forever. Complete it as unhandled.
		d.logger.Warn("dispatcher.event_unhandled",
			zap.Int64("event_id", int64(event.ID)),
			zap.String("event_type", event.EventType),
		)
		d.finish(ctx, event, handlers.Result{Skipped: true, Reason: handlers.ReasonUnhandledEventType})
		return
	}

	result, err := handler.Handle(ctx, event)
	if err != nil {
		d.retryOrFail(ctx, event, err)
		return
	}
	d.finish(ctx, event, result)
}

func (d *Dispatcher) finish(ctx context.Context, event eventdomain.WebhookEvent, result handlers.Result) {
	if err := d.queue.Complete(ctx, event.ID); err != nil {
		d.logger.Error("dispatcher.complete_failed",
			zap.Int64("event_id", int64(event.ID)),
			zap.Error(err),
		)
		return
	}
	d.metrics.IncEventCompleted(event.EventType)
	d.logger.Info("dispatcher.event_completed",
		zap.Int64("event_id", int64(event.ID)),
		zap.String("event_type", event.EventType),
		zap.String("action", result.Action),
		zap.Bool("skipped", result.Skipped),
		zap.String("reason", result.Reason),
	)
}

func (d *Dispatcher) retryOrFail(ctx context.Context, event eventdomain.WebhookEvent, handleErr error) {
	status, attempts, err := d.queue.RetryOrFail(ctx, event.ID, handleErr.Error(), d.maxAttempts)
	if err != nil {
		d.logger.Error("dispatcher.retry_or_fail_failed",
			zap.Int64("event_id", int64(event.ID)),
			zap.Error(err),
		)
		return
	}

	if status == eventdomain.EventStatusFailed {
		d.metrics.IncEventFailed(event.EventType)
		d.logger.Error("dispatcher.event_failed",
			zap.Int64("event_id", int64(event.ID)),
			zap.String("event_type", event.EventType),
			zap.String("idempotency_key", event.IdempotencyKey),
			zap.Error(handleErr),
		)
		d.alerter.Alert(ctx, fmt.Sprintf(
			"Webhook event falhou definitivamente.\nChave: %s\nTipo: %s\nErro: %s\nTentativas: %d",
			event.IdempotencyKey, event.EventType, handleErr.Error(), attempts,
		))
		return
	}

	d.metrics.IncEventRetried(event.EventType)
	d.logger.Warn("dispatcher.event_retried",
		zap.Int64("event_id", int64(event.ID)),
		zap.String("event_type", event.EventType),
		zap.Int("attempts", attempts),
		zap.Error(handleErr),
	)
}
