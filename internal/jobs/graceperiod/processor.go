// Package graceperiod demotes inadimplente members into removido once their
// grace period runs out, warning them daily until then.
package graceperiod

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/marcelomar21/bets-estatistica/internal/alerter"
	"github.com/marcelomar21/bets-estatistica/internal/clock"
	"github.com/marcelomar21/bets-estatistica/internal/config"
	groupdomain "github.com/marcelomar21/bets-estatistica/internal/group/domain"
	memberdomain "github.com/marcelomar21/bets-estatistica/internal/member/domain"
	"github.com/marcelomar21/bets-estatistica/internal/providers/telegram"
	"go.uber.org/zap"
)

type Processor struct {
	members   memberdomain.Service
	groups    groupdomain.Resolver
	messenger telegram.Messenger
	alerter   alerter.Alerter
	clock     clock.Clock
	logger    *zap.Logger

	gracePeriodDays int
	checkoutURL     string
	defaultGroupID  int64
}

func New(
	members memberdomain.Service,
	groups groupdomain.Resolver,
	messenger telegram.Messenger,
	adminAlerter alerter.Alerter,
	clk clock.Clock,
	cfg config.Config,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		members:         members,
		groups:          groups,
		messenger:       messenger,
		alerter:         adminAlerter,
		clock:           clk,
		logger:          logger.Named("jobs.graceperiod"),
		gracePeriodDays: cfg.GracePeriodDays,
		checkoutURL:     cfg.CheckoutURL,
		defaultGroupID:  cfg.DefaultGroupID,
	}
}

// RunOnce sweeps every inadimplente member in the configured tenant. A
// configured tenant that cannot be resolved aborts the whole run: kicking
// against a guessed chat id is worse than kicking a day late.
func (p *Processor) RunOnce(ctx context.Context) error {
	if p.defaultGroupID != 0 {
		if _, err := p.groups.ResolveByID(ctx, snowflake.ID(p.defaultGroupID)); err != nil {
			p.alerter.Alert(ctx, fmt.Sprintf(
				"Varredura de inadimplentes abortada: grupo configurado %d não pôde ser resolvido (%v).",
				p.defaultGroupID, err,
			))
			return fmt.Errorf("resolve configured group %d: %w", p.defaultGroupID, err)
		}
	}

	members, err := p.members.ListByStatus(ctx, memberdomain.StatusInadimplente, memberdomain.DefaultGroup())
	if err != nil {
		return fmt.Errorf("list inadimplente members: %w", err)
	}

	now := p.clock.Now()
	var warned, kicked int
	for _, member := range members {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if member.InadimplenteAt == nil {
			p.logger.Warn("graceperiod.member_missing_timestamp",
				zap.Int64("member_id", int64(member.ID)),
			)
			continue
		}

		remaining := p.gracePeriodDays - daysSince(*member.InadimplenteAt, now)
		if remaining > 0 {
			p.warn(ctx, member, remaining)
			warned++
			continue
		}
		if p.kick(ctx, member) {
			kicked++
		}
	}

	p.logger.Info("graceperiod.sweep_done",
		zap.Int("members", len(members)),
		zap.Int("warned", warned),
		zap.Int("kicked", kicked),
	)
	return nil
}

// warn is best-effort: a member who blocked the bot still gets kicked on
// schedule.
func (p *Processor) warn(ctx context.Context, member memberdomain.Member, daysRemaining int) {
	if member.TelegramID == nil {
		return
	}
	text := fmt.Sprintf(
		"Seu pagamento está pendente. Você tem %d dia(s) para regularizar antes de ser removido do grupo.",
		daysRemaining,
	)
	if p.checkoutURL != "" {
		text += "\nRegularize em: " + p.checkoutURL
	}
	if err := p.messenger.SendPrivateMessage(ctx, *member.TelegramID, text); err != nil {
		p.logger.Warn("graceperiod.warning_failed",
			zap.Int64("member_id", int64(member.ID)),
			zap.Error(err),
		)
	}
}

func (p *Processor) kick(ctx context.Context, member memberdomain.Member) bool {
	if member.TelegramID == nil {
		// Nothing to kick from the chat; the transition still applies.
		return p.remove(ctx, member)
	}

	chatID, err := p.groups.ChatIDFor(ctx, member.GroupID)
	if err != nil {
		p.alerter.Alert(ctx, fmt.Sprintf(
			"Não foi possível resolver o chat para remover o membro %d: %v", member.ID, err,
		))
		p.logger.Error("graceperiod.chat_unresolved",
			zap.Int64("member_id", int64(member.ID)),
			zap.Error(err),
		)
		return false
	}

	err = p.messenger.KickMember(ctx, *member.TelegramID, chatID)
	switch {
	case err == nil, telegram.IsUserNotInGroup(err):
		return p.remove(ctx, member)
	case telegram.IsUnauthorized(err):
		// Missing bot permission will not self-resolve; retrying daily only
		// delays the fix.
		p.alerter.Alert(ctx, fmt.Sprintf(
			"Bot sem permissão para remover o membro %d do chat %d: %v", member.ID, chatID, err,
		))
		p.logger.Error("graceperiod.kick_unauthorized",
			zap.Int64("member_id", int64(member.ID)),
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		return false
	default:
		// Transient failure: the next daily sweep retries.
		p.logger.Warn("graceperiod.kick_failed",
			zap.Int64("member_id", int64(member.ID)),
			zap.Error(err),
		)
		return false
	}
}

func (p *Processor) remove(ctx context.Context, member memberdomain.Member) bool {
	_, err := p.members.TransitionStatus(ctx, memberdomain.TransitionRequest{
		MemberID: member.ID,
		ToStatus: memberdomain.StatusRemovido,
		Actor:    "graceperiod",
		Reason:   "payment_failed",
	})
	if err != nil {
		// A concurrent payment.approved may have recovered the member first;
		// re-reading happens naturally on the next sweep.
		p.logger.Warn("graceperiod.transition_failed",
			zap.Int64("member_id", int64(member.ID)),
			zap.Error(err),
		)
		return false
	}
	p.logger.Info("graceperiod.member_removed",
		zap.Int64("member_id", int64(member.ID)),
	)
	return true
}

func daysSince(t, now time.Time) int {
	return int(now.Sub(t).Hours() / 24)
}
