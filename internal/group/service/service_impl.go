package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/marcelomar21/bets-estatistica/internal/config"
	groupdomain "github.com/marcelomar21/bets-estatistica/internal/group/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	repo         groupdomain.Repository
	staticChatID int64
}

type ServiceParam struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo groupdomain.Repository
	Cfg  config.Config
}

func NewService(p ServiceParam) groupdomain.Resolver {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("group.service"),
		repo:         p.Repo,
		staticChatID: p.Cfg.TelegramGroupID,
	}
}

func (s *Service) ResolveByPlanID(ctx context.Context, planID string) (*groupdomain.Group, error) {
	if planID == "" {
		return nil, groupdomain.ErrGroupNotFound
	}
	group, err := s.repo.FindByPlanID(ctx, s.db, planID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, groupdomain.ErrGroupNotFound
	}
	return group, nil
}

func (s *Service) ResolveByID(ctx context.Context, id snowflake.ID) (*groupdomain.Group, error) {
	group, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, groupdomain.ErrGroupNotFound
	}
	return group, nil
}

func (s *Service) ChatIDFor(ctx context.Context, groupID *snowflake.ID) (int64, error) {
	if groupID != nil && *groupID != 0 {
		group, err := s.repo.FindByID(ctx, s.db, *groupID)
		if err != nil {
			return 0, err
		}
		if group == nil {
			// The member references a tenant that no longer resolves. Kicking
			// against the static fallback chat could hit the wrong group.
			return 0, groupdomain.ErrGroupNotFound
		}
		return group.TelegramGroupID, nil
	}
	if s.staticChatID == 0 {
		return 0, groupdomain.ErrNoChatResolved
	}
	return s.staticChatID, nil
}
