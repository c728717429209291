package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/marcelomar21/bets-estatistica/internal/clock"
	"github.com/marcelomar21/bets-estatistica/internal/config"
	memberdomain "github.com/marcelomar21/bets-estatistica/internal/member/domain"
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
	repo  memberdomain.Repository

	defaultGroupID snowflake.ID
	trialDays      int
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  memberdomain.Repository
	Cfg   config.Config
}

func NewService(p ServiceParam) memberdomain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("member.service"),
		genID:          p.GenID,
		clock:          p.Clock,
		repo:           p.Repo,
		defaultGroupID: snowflake.ID(p.Cfg.DefaultGroupID),
		trialDays:      p.Cfg.TrialDays,
	}
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (memberdomain.Member, error) {
	member, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return memberdomain.Member{}, err
	}
	if member == nil {
		return memberdomain.Member{}, memberdomain.ErrMemberNotFound
	}
	return *member, nil
}

func (s *Service) GetByTelegramID(ctx context.Context, telegramID int64, scope memberdomain.GroupScope) (memberdomain.Member, error) {
	member, err := s.repo.FindByTelegramID(ctx, s.db, telegramID, scope.Resolve(s.defaultGroupID))
	if err != nil {
		return memberdomain.Member{}, err
	}
	if member == nil {
		return memberdomain.Member{}, memberdomain.ErrMemberNotFound
	}
	return *member, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string, scope memberdomain.GroupScope) (memberdomain.Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return memberdomain.Member{}, memberdomain.ErrMemberNotFound
	}
	member, err := s.repo.FindByEmail(ctx, s.db, email, scope.Resolve(s.defaultGroupID))
	if err != nil {
		return memberdomain.Member{}, err
	}
	if member == nil {
		return memberdomain.Member{}, memberdomain.ErrMemberNotFound
	}
	return *member, nil
}

func (s *Service) GetBySubscriptionID(ctx context.Context, subscriptionID string) (memberdomain.Member, error) {
	subscriptionID = strings.TrimSpace(subscriptionID)
	if subscriptionID == "" {
		return memberdomain.Member{}, memberdomain.ErrMemberNotFound
	}
	member, err := s.repo.FindBySubscriptionID(ctx, s.db, subscriptionID)
	if err != nil {
		return memberdomain.Member{}, err
	}
	if member == nil {
		return memberdomain.Member{}, memberdomain.ErrMemberNotFound
	}
	return *member, nil
}

func (s *Service) ListByStatus(ctx context.Context, status memberdomain.Status, scope memberdomain.GroupScope) ([]memberdomain.Member, error) {
	return s.repo.ListByStatus(ctx, s.db, status, scope.Resolve(s.defaultGroupID))
}

func (s *Service) CreateTrial(ctx context.Context, req memberdomain.CreateTrialRequest) (memberdomain.Member, error) {
	now := s.clock.Now()

	groupID := req.GroupID
	if groupID == nil && s.defaultGroupID != 0 {
		id := s.defaultGroupID
		groupID = &id
	}

	if req.TelegramID != nil {
		existing, err := s.repo.FindByTelegramID(ctx, s.db, *req.TelegramID, groupID)
		if err != nil {
			return memberdomain.Member{}, err
		}
		if existing != nil {
			return memberdomain.Member{}, memberdomain.ErrMemberAlreadyExists
		}
	}
	if req.Email != nil {
		existing, err := s.repo.FindByEmail(ctx, s.db, *req.Email, groupID)
		if err != nil {
			return memberdomain.Member{}, err
		}
		if existing != nil {
			return memberdomain.Member{}, memberdomain.ErrMemberAlreadyExists
		}
	}

	var email *string
	if req.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*req.Email))
		email = &normalized
	}

	trialEnds := now.AddDate(0, 0, s.trialDays)
	member := memberdomain.Member{
		ID:                     s.genID.Generate(),
		TelegramID:             req.TelegramID,
		Email:                  email,
		GroupID:                groupID,
		ProviderSubscriptionID: req.ProviderSubscriptionID,
		PayerID:                req.PayerID,
		PaymentMethod:          req.PaymentMethod,
		Status:                 memberdomain.StatusTrial,
		TrialStartedAt:         &now,
		TrialEndsAt:            &trialEnds,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if err := s.repo.Insert(ctx, s.db, &member); err != nil {
		// The partial unique index closes the check-then-insert window under
		// concurrent webhooks.
		if db.IsDuplicateKeyErr(err) {
			return memberdomain.Member{}, memberdomain.ErrMemberAlreadyExists
		}
		return memberdomain.Member{}, err
	}

	s.log.Info("member.trial.created",
		zap.String("member_id", member.ID.String()),
		zap.Int64p("telegram_id", member.TelegramID),
	)
	return member, nil
}

func (s *Service) TransitionStatus(ctx context.Context, req memberdomain.TransitionRequest) (memberdomain.Member, error) {
	current, err := s.repo.FindByID(ctx, s.db, req.MemberID)
	if err != nil {
		return memberdomain.Member{}, err
	}
	if current == nil {
		return memberdomain.Member{}, memberdomain.ErrMemberNotFound
	}

	if !memberdomain.CanTransition(current.Status, req.ToStatus) {
		return memberdomain.Member{}, fmt.Errorf("%w: %s -> %s",
			memberdomain.ErrInvalidTransition, current.Status, req.ToStatus)
	}

	now := s.clock.Now()
	fields := memberdomain.UpdateFields{
		SubscriptionEndsAt: req.SubscriptionEndsAt,
	}
	switch req.ToStatus {
	case memberdomain.StatusInadimplente:
		fields.InadimplenteAt = &now
	case memberdomain.StatusRemovido:
		fields.KickedAt = &now
	}
	line := noteLine(now, req.Actor, req.Reason)
	fields.NoteLine = &line

	ok, err := s.repo.UpdateStatusCAS(ctx, s.db, current.ID, current.Status, req.ToStatus, fields, now)
	if err != nil {
		return memberdomain.Member{}, err
	}
	if !ok {
		return memberdomain.Member{}, memberdomain.ErrRaceCondition
	}

	s.log.Info("member.status.transition",
		zap.String("member_id", current.ID.String()),
		zap.String("from", string(current.Status)),
		zap.String("to", string(req.ToStatus)),
		zap.String("actor", req.Actor),
		zap.String("reason", req.Reason),
	)

	return s.GetByID(ctx, current.ID)
}

func (s *Service) UpdateSubscriptionLink(ctx context.Context, req memberdomain.LinkRequest) error {
	current, err := s.repo.FindByID(ctx, s.db, req.MemberID)
	if err != nil {
		return err
	}
	if current == nil {
		return memberdomain.ErrMemberNotFound
	}
	return s.repo.UpdateSubscriptionLink(ctx, s.db, req.MemberID, memberdomain.LinkFields{
		ProviderSubscriptionID: req.ProviderSubscriptionID,
		PayerID:                req.PayerID,
		PaymentMethod:          req.PaymentMethod,
		SubscriptionEndsAt:     req.SubscriptionEndsAt,
	}, s.clock.Now())
}

func (s *Service) AddNote(ctx context.Context, id snowflake.ID, actor, note string) error {
	current, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if current == nil {
		return memberdomain.ErrMemberNotFound
	}
	now := s.clock.Now()
	return s.repo.AppendNote(ctx, s.db, id, noteLine(now, actor, note), now)
}

// ReactivateTrial is the explicit path out of removido. It is guarded by the
// same CAS as regular transitions, keyed on the removido status.
func (s *Service) ReactivateTrial(ctx context.Context, id snowflake.ID, actor, reason string) (memberdomain.Member, error) {
	current, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return memberdomain.Member{}, err
	}
	if current == nil {
		return memberdomain.Member{}, memberdomain.ErrMemberNotFound
	}
	if current.Status != memberdomain.StatusRemovido {
		return memberdomain.Member{}, fmt.Errorf("%w: %s -> %s",
			memberdomain.ErrInvalidTransition, current.Status, memberdomain.StatusTrial)
	}

	now := s.clock.Now()
	trialEnds := now.AddDate(0, 0, s.trialDays)
	line := noteLine(now, actor, reason)
	fields := memberdomain.UpdateFields{
		TrialStartedAt: &now,
		TrialEndsAt:    &trialEnds,
		NoteLine:       &line,
	}

	ok, err := s.repo.UpdateStatusCAS(ctx, s.db, id, memberdomain.StatusRemovido, memberdomain.StatusTrial, fields, now)
	if err != nil {
		return memberdomain.Member{}, err
	}
	if !ok {
		return memberdomain.Member{}, memberdomain.ErrRaceCondition
	}

	return s.GetByID(ctx, id)
}

func noteLine(now time.Time, actor, text string) string {
	return fmt.Sprintf("[%s] %s: %s", now.Format(time.RFC3339), actor, text)
}
