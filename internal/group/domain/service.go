package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrGroupNotFound  = errors.New("group_not_found")
	ErrNoChatResolved = errors.New("no_chat_resolved")
)

// Resolver maps webhook plan ids and member group references to tenants.
// In single-tenant mode the static configuration supplies the chat id.
type Resolver interface {
	// ResolveByPlanID returns the tenant owning the provider plan, or
	// ErrGroupNotFound when no tenant carries it.
	ResolveByPlanID(ctx context.Context, planID string) (*Group, error)
	// ResolveByID returns the tenant by primary key.
	ResolveByID(ctx context.Context, id snowflake.ID) (*Group, error)
	// ChatIDFor returns the telegram chat for a member's group, falling back
	// to the static single-tenant chat only when the member has no group.
	// A configured group that cannot be loaded is an error, never a fallback.
	ChatIDFor(ctx context.Context, groupID *snowflake.ID) (int64, error)
}
