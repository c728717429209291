package handlers

import (
	"github.com/marcelomar21/bets-estatistica/internal/clock"
	"github.com/marcelomar21/bets-estatistica/internal/config"
	groupdomain "github.com/marcelomar21/bets-estatistica/internal/group/domain"
	memberdomain "github.com/marcelomar21/bets-estatistica/internal/member/domain"
	"github.com/marcelomar21/bets-estatistica/internal/providers/payment"
	"github.com/marcelomar21/bets-estatistica/internal/providers/telegram"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewRegistry(
	members memberdomain.Service,
	groups groupdomain.Resolver,
	provider payment.Provider,
	messenger telegram.Messenger,
	clk clock.Clock,
	cfg config.Config,
	logger *zap.Logger,
) Registry {
	shared := deps{
		members:   members,
		groups:    groups,
		provider:  provider,
		messenger: messenger,
		clock:     clk,
		cfg:       cfg,
		logger:    logger.Named("webhook.handlers"),
	}

	registry := Registry{}
	for _, h := range []Handler{
		subscriptionCreatedHandler{shared},
		paymentApprovedHandler{shared},
		paymentRejectedHandler{shared},
		subscriptionCancelledHandler{shared},
	} {
		registry[h.EventType()] = h
	}
	return registry
}

var Module = fx.Module("webhook.handlers",
	fx.Provide(NewRegistry),
)
