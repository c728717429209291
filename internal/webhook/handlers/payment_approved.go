package handlers

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	memberdomain "github.com/marcelomar21/bets-estatistica/internal/member/domain"
	"github.com/marcelomar21/bets-estatistica/internal/providers/payment"
	eventdomain "github.com/marcelomar21/bets-estatistica/internal/webhookevent/domain"
	"go.uber.org/zap"
)

// fallbackRenewalPeriod extends subscriptionEndsAt when the provider does not
// report the next charge date.
const fallbackRenewalPeriod = 30 * 24 * time.Hour

type paymentApprovedHandler struct {
	deps
}

func (paymentApprovedHandler) EventType() string {
	return eventdomain.EventTypePaymentApproved
}

func (h paymentApprovedHandler) Handle(ctx context.Context, event eventdomain.WebhookEvent) (Result, error) {
	id, err := resourceID(event.Payload)
	if err != nil {
		return Result{}, err
	}

	pay, err := h.provider.GetPayment(ctx, id)
	if payment.IsNotFound(err) {
		return skipped(ReasonResourceNotFound), nil
	}
	if err != nil {
		return Result{}, err
	}
	if pay.Status != payment.PaymentStatusApproved {
		return skipped(ReasonNotApproved), nil
	}

	member, found, err := h.findMemberBySubscription(ctx, pay.SubscriptionID)
	if err != nil {
		return Result{}, err
	}

	// The payer email path needs the subscription detail for tenant
	// resolution and the next charge date.
	var sub *payment.Subscription
	if pay.SubscriptionID != "" {
		sub, err = h.provider.GetSubscription(ctx, pay.SubscriptionID)
		if err != nil && !payment.IsNotFound(err) {
			return Result{}, err
		}
	}

	if !found {
		var tenantID *snowflake.ID
		if sub != nil {
			tenantID, err = h.resolveTenantByPlan(ctx, sub.PlanID)
			if err != nil {
				return Result{}, err
			}
		}
		email := pay.PayerEmail
		if email == "" && sub != nil {
			email = sub.PayerEmail
		}
		member, found, err = h.findMemberByEmail(ctx, email, tenantID)
		if err != nil {
			return Result{}, err
		}
		if !found {
			return h.createActive(ctx, pay, sub, tenantID)
		}
	}

	ends := h.subscriptionEnd(sub)

	switch member.Status {
	case memberdomain.StatusTrial:
		if err := h.activate(ctx, member.ID, "payment_approved", ends); err != nil {
			return Result{}, err
		}
		return acted(ActionActivated), nil

	case memberdomain.StatusAtivo:
		// Duplicate delivery or renewal: no status change, just extend the
		// paid-through date and refresh the linkage.
		if err := h.extendLink(ctx, member.ID, pay, ends); err != nil {
			return Result{}, err
		}
		return acted(ActionRenewed), nil

	case memberdomain.StatusInadimplente:
		if err := h.activate(ctx, member.ID, "payment_recovered", ends); err != nil {
			return Result{}, err
		}
		return acted(ActionRecovered), nil

	case memberdomain.StatusRemovido:
		if err := h.reactivate(ctx, member, ends); err != nil {
			return Result{}, err
		}
		return acted(ActionReactivated), nil

	default:
		return skipped(ReasonMemberNotActive), nil
	}
}

func (h paymentApprovedHandler) subscriptionEnd(sub *payment.Subscription) *time.Time {
	if sub != nil && sub.NextChargeAt != nil {
		return sub.NextChargeAt
	}
	ends := h.clock.Now().Add(fallbackRenewalPeriod)
	return &ends
}

func (h paymentApprovedHandler) activate(ctx context.Context, memberID snowflake.ID, reason string, ends *time.Time) error {
	_, err := h.members.TransitionStatus(ctx, memberdomain.TransitionRequest{
		MemberID:           memberID,
		ToStatus:           memberdomain.StatusAtivo,
		Actor:              "webhook",
		Reason:             reason,
		SubscriptionEndsAt: ends,
	})
	return err
}

func (h paymentApprovedHandler) extendLink(ctx context.Context, memberID snowflake.ID, pay *payment.Payment, ends *time.Time) error {
	req := memberdomain.LinkRequest{
		MemberID:           memberID,
		SubscriptionEndsAt: ends,
	}
	if pay.SubscriptionID != "" {
		subID := pay.SubscriptionID
		req.ProviderSubscriptionID = &subID
	}
	if pay.PayerID != "" {
		payerID := pay.PayerID
		req.PayerID = &payerID
	}
	if pay.PaymentMethod != "" {
		method := pay.PaymentMethod
		req.PaymentMethod = &method
	}
	return h.members.UpdateSubscriptionLink(ctx, req)
}

// reactivate re-enters a removido member at trial and immediately activates
// it, then lifts the chat ban and notifies the member so they can rejoin.
func (h paymentApprovedHandler) reactivate(ctx context.Context, member memberdomain.Member, ends *time.Time) error {
	reactivated, err := h.members.ReactivateTrial(ctx, member.ID, "webhook", "payment_approved_after_removal")
	if err != nil {
		return err
	}
	if err := h.activate(ctx, reactivated.ID, "payment_approved", ends); err != nil {
		return err
	}

	if member.TelegramID == nil {
		return nil
	}
	if chatID, err := h.groups.ChatIDFor(ctx, member.GroupID); err == nil {
		if err := h.messenger.UnbanMember(ctx, *member.TelegramID, chatID); err != nil {
			h.logger.Warn("webhook.payment_approved.unban_failed",
				zap.Int64("member_id", int64(member.ID)),
				zap.Error(err),
			)
		}
	}
	text := "Pagamento confirmado! Sua assinatura foi reativada."
	if h.cfg.CheckoutURL != "" {
		text += " Acesse o grupo novamente pelo link de convite."
	}
	if err := h.messenger.SendPrivateMessage(ctx, *member.TelegramID, text); err != nil {
		h.logger.Warn("webhook.payment_approved.notify_failed",
			zap.Int64("member_id", int64(member.ID)),
			zap.Error(err),
		)
	}
	return nil
}

func (h paymentApprovedHandler) createActive(ctx context.Context, pay *payment.Payment, sub *payment.Subscription, tenantID *snowflake.ID) (Result, error) {
	req := memberdomain.CreateTrialRequest{GroupID: tenantID}
	email := pay.PayerEmail
	if email == "" && sub != nil {
		email = sub.PayerEmail
	}
	if email != "" {
		req.Email = &email
	}
	if pay.SubscriptionID != "" {
		subID := pay.SubscriptionID
		req.ProviderSubscriptionID = &subID
	}
	if pay.PayerID != "" {
		payerID := pay.PayerID
		req.PayerID = &payerID
	}
	if pay.PaymentMethod != "" {
		method := pay.PaymentMethod
		req.PaymentMethod = &method
	}

	created, err := h.members.CreateTrial(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if err := h.activate(ctx, created.ID, "payment_approved", h.subscriptionEnd(sub)); err != nil {
		return Result{}, err
	}
	h.logger.Info("webhook.payment_approved.member_created",
		zap.Int64("member_id", int64(created.ID)),
		zap.String("payment_id", pay.ID),
	)
	return acted(ActionCreatedActive), nil
}
