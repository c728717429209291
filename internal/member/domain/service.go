package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrMemberNotFound      = errors.New("member_not_found")
	ErrMemberAlreadyExists = errors.New("member_already_exists")
	ErrInvalidTransition   = errors.New("invalid_transition")
	// ErrRaceCondition means the optimistic lock missed: another writer changed
	// the member's status between our read and our conditional write. The
	// caller must re-read and re-decide, never silently overwrite.
	ErrRaceCondition = errors.New("race_condition")
)

// GroupScope selects the tenant filter for member lookups. The zero value is
// not valid; use one of the constructors.
type GroupScope struct {
	kind    scopeKind
	groupID snowflake.ID
}

type scopeKind int

const (
	scopeDefault scopeKind = iota
	scopeIn
	scopeAny
)

// DefaultGroup scopes the lookup to the configured tenant, or to no tenant
// when none is configured (single-tenant mode).
func DefaultGroup() GroupScope { return GroupScope{kind: scopeDefault} }

// InGroup scopes the lookup to one tenant.
func InGroup(id snowflake.ID) GroupScope { return GroupScope{kind: scopeIn, groupID: id} }

// AnyGroup applies no tenant filter (explicit global lookup).
func AnyGroup() GroupScope { return GroupScope{kind: scopeAny} }

// Resolve returns the concrete tenant filter given the configured default.
func (s GroupScope) Resolve(defaultGroupID snowflake.ID) *snowflake.ID {
	switch s.kind {
	case scopeIn:
		id := s.groupID
		return &id
	case scopeDefault:
		if defaultGroupID != 0 {
			id := defaultGroupID
			return &id
		}
		return nil
	default:
		return nil
	}
}

type CreateTrialRequest struct {
	TelegramID             *int64
	Email                  *string
	GroupID                *snowflake.ID
	ProviderSubscriptionID *string
	PayerID                *string
	PaymentMethod          *string
}

type TransitionRequest struct {
	MemberID snowflake.ID
	ToStatus Status
	// Actor and Reason make the transition attributable; both are appended to
	// the member's notes.
	Actor  string
	Reason string

	SubscriptionEndsAt *time.Time
}

type LinkRequest struct {
	MemberID               snowflake.ID
	ProviderSubscriptionID *string
	PayerID                *string
	PaymentMethod          *string
	SubscriptionEndsAt     *time.Time
}

type Service interface {
	GetByID(ctx context.Context, id snowflake.ID) (Member, error)
	GetByTelegramID(ctx context.Context, telegramID int64, scope GroupScope) (Member, error)
	GetByEmail(ctx context.Context, email string, scope GroupScope) (Member, error)
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (Member, error)
	ListByStatus(ctx context.Context, status Status, scope GroupScope) ([]Member, error)

	CreateTrial(ctx context.Context, req CreateTrialRequest) (Member, error)
	TransitionStatus(ctx context.Context, req TransitionRequest) (Member, error)
	UpdateSubscriptionLink(ctx context.Context, req LinkRequest) error
	AddNote(ctx context.Context, id snowflake.ID, actor, note string) error

	// ReactivateTrial re-enters a removido member at trial. It is the only
	// path out of the terminal state and requires explicit authorization by
	// the caller.
	ReactivateTrial(ctx context.Context, id snowflake.ID, actor, reason string) (Member, error)
}
