package handlers

import (
	"context"

	memberdomain "github.com/marcelomar21/bets-estatistica/internal/member/domain"
	"github.com/marcelomar21/bets-estatistica/internal/providers/payment"
	eventdomain "github.com/marcelomar21/bets-estatistica/internal/webhookevent/domain"
	"go.uber.org/zap"
)

type subscriptionCreatedHandler struct {
	deps
}

func (subscriptionCreatedHandler) EventType() string {
	return eventdomain.EventTypeSubscriptionCreated
}

func (h subscriptionCreatedHandler) Handle(ctx context.Context, event eventdomain.WebhookEvent) (Result, error) {
	id, err := resourceID(event.Payload)
	if err != nil {
		return Result{}, err
	}

	sub, err := h.provider.GetSubscription(ctx, id)
	if payment.IsNotFound(err) {
		return skipped(ReasonResourceNotFound), nil
	}
	if err != nil {
		return Result{}, err
	}
	if !sub.Authorized() {
		return skipped(ReasonNotAuthorized), nil
	}

	tenantID, err := h.resolveTenantByPlan(ctx, sub.PlanID)
	if err != nil {
		return Result{}, err
	}

	member, found, err := h.findMemberByEmail(ctx, sub.PayerEmail, tenantID)
	if err != nil {
		return Result{}, err
	}

	subID := sub.ID
	payerID := sub.PayerID
	method := sub.PaymentMethod

	if found {
		err = h.members.UpdateSubscriptionLink(ctx, memberdomain.LinkRequest{
			MemberID:               member.ID,
			ProviderSubscriptionID: &subID,
			PayerID:                &payerID,
			PaymentMethod:          &method,
			SubscriptionEndsAt:     sub.NextChargeAt,
		})
		if err != nil {
			return Result{}, err
		}
		h.logger.Info("webhook.subscription_created.linked",
			zap.Int64("member_id", int64(member.ID)),
			zap.String("subscription_id", subID),
		)
		return acted(ActionUpdated), nil
	}

	req := memberdomain.CreateTrialRequest{
		ProviderSubscriptionID: &subID,
		PayerID:                &payerID,
		PaymentMethod:          &method,
	}
	if sub.PayerEmail != "" {
		email := sub.PayerEmail
		req.Email = &email
	}
	if tenantID != nil {
		req.GroupID = tenantID
	}

	created, err := h.members.CreateTrial(ctx, req)
	if err != nil {
		return Result{}, err
	}
	h.logger.Info("webhook.subscription_created.trial_created",
		zap.Int64("member_id", int64(created.ID)),
		zap.String("subscription_id", subID),
	)
	return acted(ActionCreated), nil
}
