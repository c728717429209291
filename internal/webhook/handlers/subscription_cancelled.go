package handlers

import (
	"context"

	memberdomain "github.com/marcelomar21/bets-estatistica/internal/member/domain"
	"github.com/marcelomar21/bets-estatistica/internal/providers/payment"
	"github.com/marcelomar21/bets-estatistica/internal/providers/telegram"
	eventdomain "github.com/marcelomar21/bets-estatistica/internal/webhookevent/domain"
	"go.uber.org/zap"
)

type subscriptionCancelledHandler struct {
	deps
}

func (subscriptionCancelledHandler) EventType() string {
	return eventdomain.EventTypeSubscriptionCancelled
}

func (h subscriptionCancelledHandler) Handle(ctx context.Context, event eventdomain.WebhookEvent) (Result, error) {
	id, err := resourceID(event.Payload)
	if err != nil {
		return Result{}, err
	}

	// A subscription the provider already deleted still cancels locally: the
	// payload id is the subscription id and is enough to find the member.
	subID := id
	sub, err := h.provider.GetSubscription(ctx, id)
	if err != nil && !payment.IsNotFound(err) {
		return Result{}, err
	}
	if sub != nil && sub.ID != "" {
		subID = sub.ID
	}

	member, found, err := h.findMemberBySubscription(ctx, subID)
	if err != nil {
		return Result{}, err
	}
	if !found {
		return skipped(ReasonMemberNotFound), nil
	}
	if member.Status == memberdomain.StatusRemovido {
		return skipped(ReasonAlreadyRemoved), nil
	}

	reason := "subscription_cancelled"
	if member.Status == memberdomain.StatusTrial {
		reason = "trial_not_converted"
	}

	_, err = h.members.TransitionStatus(ctx, memberdomain.TransitionRequest{
		MemberID: member.ID,
		ToStatus: memberdomain.StatusRemovido,
		Actor:    "webhook",
		Reason:   reason,
	})
	if err != nil {
		return Result{}, err
	}

	h.kick(ctx, member)

	h.logger.Info("webhook.subscription_cancelled.member_removed",
		zap.Int64("member_id", int64(member.ID)),
		zap.String("subscription_id", subID),
		zap.String("reason", reason),
	)
	return acted(ActionRemoved), nil
}

// kick is best-effort: the transition above is the authoritative outcome, and
// a member already gone from the chat is fine.
func (h subscriptionCancelledHandler) kick(ctx context.Context, member memberdomain.Member) {
	if member.TelegramID == nil {
		return
	}
	chatID, err := h.groups.ChatIDFor(ctx, member.GroupID)
	if err != nil {
		h.logger.Warn("webhook.subscription_cancelled.chat_unresolved",
			zap.Int64("member_id", int64(member.ID)),
			zap.Error(err),
		)
		return
	}
	if err := h.messenger.KickMember(ctx, *member.TelegramID, chatID); err != nil {
		if telegram.IsUserNotInGroup(err) {
			return
		}
		h.logger.Warn("webhook.subscription_cancelled.kick_failed",
			zap.Int64("member_id", int64(member.ID)),
			zap.Error(err),
		)
	}
}
