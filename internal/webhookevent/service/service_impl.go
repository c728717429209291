package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/marcelomar21/bets-estatistica/internal/clock"
	eventdomain "github.com/marcelomar21/bets-estatistica/internal/webhookevent/domain"
	"github.com/marcelomar21/bets-estatistica/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  eventdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  eventdomain.Repository
}

func NewService(p ServiceParam) eventdomain.Queue {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("webhookevent.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Enqueue(ctx context.Context, req eventdomain.EnqueueRequest) (eventdomain.WebhookEvent, error) {
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" || strings.TrimSpace(req.EventType) == "" {
		return eventdomain.WebhookEvent{}, eventdomain.ErrInvalidEvent
	}
	payload := req.Payload
	if len(payload) == 0 || !json.Valid(payload) {
		payload = []byte("{}")
	}

	now := s.clock.Now()
	event := eventdomain.WebhookEvent{
		ID:             s.genID.Generate(),
		IdempotencyKey: key,
		EventType:      req.EventType,
		Payload:        payload,
		Status:         eventdomain.EventStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Insert(ctx, s.db, &event); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return eventdomain.WebhookEvent{}, eventdomain.ErrEventAlreadyQueued
		}
		return eventdomain.WebhookEvent{}, err
	}

	s.log.Info("webhook.event.queued",
		zap.String("event_id", event.ID.String()),
		zap.String("event_type", event.EventType),
		zap.String("idempotency_key", event.IdempotencyKey),
	)
	return event, nil
}

func (s *Service) FetchPending(ctx context.Context, limit int) ([]eventdomain.WebhookEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.repo.FindPending(ctx, s.db, limit)
}

func (s *Service) Claim(ctx context.Context, id snowflake.ID) (bool, error) {
	return s.repo.Claim(ctx, s.db, id, s.clock.Now())
}

func (s *Service) Complete(ctx context.Context, id snowflake.ID) error {
	return s.repo.Complete(ctx, s.db, id, s.clock.Now())
}

func (s *Service) RetryOrFail(ctx context.Context, id snowflake.ID, errMsg string, maxAttempts int) (eventdomain.EventStatus, int, error) {
	return s.repo.RetryOrFail(ctx, s.db, id, errMsg, maxAttempts, s.clock.Now())
}

func (s *Service) RecoverStuck(ctx context.Context, timeout time.Duration, maxAttempts int) (int64, int64, error) {
	now := s.clock.Now()
	recovered, failed, err := s.repo.RecoverStuck(ctx, s.db, now.Add(-timeout), maxAttempts, now)
	if err != nil {
		return recovered, failed, err
	}
	if recovered > 0 || failed > 0 {
		s.log.Warn("webhook.events.recovered",
			zap.Int64("recovered", recovered),
			zap.Int64("failed", failed),
		)
	}
	return recovered, failed, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (eventdomain.WebhookEvent, error) {
	event, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return eventdomain.WebhookEvent{}, err
	}
	if event == nil {
		return eventdomain.WebhookEvent{}, eventdomain.ErrEventNotFound
	}
	return *event, nil
}
