// Package handlers contains one decision function per provider event type.
// Handlers never trust the webhook payload beyond the resource id: the full
// resource is always fetched from the payment provider before acting.
// Expected business conditions come back as a skipped Result; only
// infrastructure failures propagate as errors to the dispatcher.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/marcelomar21/bets-estatistica/internal/clock"
	"github.com/marcelomar21/bets-estatistica/internal/config"
	groupdomain "github.com/marcelomar21/bets-estatistica/internal/group/domain"
	memberdomain "github.com/marcelomar21/bets-estatistica/internal/member/domain"
	"github.com/marcelomar21/bets-estatistica/internal/providers/payment"
	"github.com/marcelomar21/bets-estatistica/internal/providers/telegram"
	eventdomain "github.com/marcelomar21/bets-estatistica/internal/webhookevent/domain"
	"go.uber.org/zap"
)

const (
	ActionCreated       = "created"
	ActionCreatedActive = "created_active"
	ActionUpdated       = "updated"
	ActionActivated     = "activated"
	ActionRenewed       = "renewed"
	ActionRecovered     = "recovered"
	ActionReactivated   = "reactivated"
	ActionRemoved       = "removed"
)

const (
	ReasonNotAuthorized      = "not_authorized"
	ReasonNotApproved        = "not_approved"
	ReasonMemberNotFound     = "member_not_found"
	ReasonMemberNotActive    = "member_not_active"
	ReasonAlreadyRemoved     = "already_removed"
	ReasonResourceNotFound   = "resource_not_found"
	ReasonUnhandledEventType = "unhandled_event_type"
)

// Result is the structured outcome of a handler run. Either Action is set, or
// Skipped is true with a Reason.
type Result struct {
	Action  string
	Skipped bool
	Reason  string
}

func acted(action string) Result { return Result{Action: action} }

func skipped(reason string) Result { return Result{Skipped: true, Reason: reason} }

type Handler interface {
	EventType() string
	Handle(ctx context.Context, event eventdomain.WebhookEvent) (Result, error)
}

// Registry routes event types to handlers. Missing entries are not errors;
// the dispatcher completes them as unhandled.
type Registry map[string]Handler

func (r Registry) For(eventType string) (Handler, bool) {
	h, ok := r[eventType]
	return h, ok
}

// deps is the shared dependency set for every handler.
type deps struct {
	members   memberdomain.Service
	groups    groupdomain.Resolver
	provider  payment.Provider
	messenger telegram.Messenger
	clock     clock.Clock
	cfg       config.Config
	logger    *zap.Logger
}

// resourceID extracts the referenced resource id from a webhook payload.
// Mercado Pago nests it under data.id; Cakto sends it at the top level. Ids
// arrive as strings or numbers depending on the provider.
func resourceID(payload []byte) (string, error) {
	var body struct {
		Data struct {
			ID json.RawMessage `json:"id"`
		} `json:"data"`
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", fmt.Errorf("parse payload: %w", err)
	}

	raw := body.Data.ID
	if len(raw) == 0 {
		raw = body.ID
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("payload carries no resource id")
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if asString == "" {
			return "", fmt.Errorf("payload carries an empty resource id")
		}
		return asString, nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber.String(), nil
	}
	return "", fmt.Errorf("payload resource id is neither string nor number")
}
