package handlers

import (
	"context"

	memberdomain "github.com/marcelomar21/bets-estatistica/internal/member/domain"
	"github.com/marcelomar21/bets-estatistica/internal/providers/payment"
	eventdomain "github.com/marcelomar21/bets-estatistica/internal/webhookevent/domain"
	"go.uber.org/zap"
)

type paymentRejectedHandler struct {
	deps
}

func (paymentRejectedHandler) EventType() string {
	return eventdomain.EventTypePaymentRejected
}

func (h paymentRejectedHandler) Handle(ctx context.Context, event eventdomain.WebhookEvent) (Result, error) {
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

	member, found, err := h.findMemberBySubscription(ctx, pay.SubscriptionID)
	if err != nil {
		return Result{}, err
	}
	if !found {
		member, found, err = h.findMemberByEmail(ctx, pay.PayerEmail, nil)
		if err != nil {
			return Result{}, err
		}
	}
	if !found {
		// Rejected payments from unknown payers never provision members.
		return skipped(ReasonMemberNotFound), nil
	}

	if member.Status != memberdomain.StatusAtivo {
		return skipped(ReasonMemberNotActive), nil
	}

	_, err = h.members.TransitionStatus(ctx, memberdomain.TransitionRequest{
		MemberID: member.ID,
		ToStatus: memberdomain.StatusInadimplente,
		Actor:    "webhook",
		Reason:   "payment_rejected",
	})
	if err != nil {
		return Result{}, err
	}

	h.logger.Info("webhook.payment_rejected.member_demoted",
		zap.Int64("member_id", int64(member.ID)),
		zap.String("payment_id", pay.ID),
	)
	return acted(ActionUpdated), nil
}
