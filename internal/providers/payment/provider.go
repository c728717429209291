// Package payment exposes the PaymentProvider capability. Webhook payloads
// only carry resource ids; handlers always fetch the full resource from the
// provider before acting on it.
package payment

import (
	"context"
	"time"
)

const (
	SubscriptionStatusAuthorized = "authorized"
	SubscriptionStatusActive     = "active"
	SubscriptionStatusPending    = "pending"
	SubscriptionStatusPaused     = "paused"
	SubscriptionStatusCancelled  = "cancelled"

	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
	PaymentStatusPending  = "pending"
)

type Subscription struct {
	ID            string
	Status        string
	PlanID        string
	PayerID       string
	PayerEmail    string
	PaymentMethod string
	NextChargeAt  *time.Time
}

type Payment struct {
	ID             string
	Status         string
	SubscriptionID string
	PayerID        string
	PayerEmail     string
	PaymentMethod  string
	Amount         int64
	Currency       string
}

// Authorized reports whether the subscription is in a state that entitles
// group access.
func (s Subscription) Authorized() bool {
	return s.Status == SubscriptionStatusAuthorized || s.Status == SubscriptionStatusActive
}

type Provider interface {
	GetSubscription(ctx context.Context, id string) (*Subscription, error)
	GetPayment(ctx context.Context, id string) (*Payment, error)
}
