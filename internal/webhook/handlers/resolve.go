package handlers

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	groupdomain "github.com/marcelomar21/bets-estatistica/internal/group/domain"
	memberdomain "github.com/marcelomar21/bets-estatistica/internal/member/domain"
)

// resolveTenantByPlan maps a provider plan id to a tenant. A plan no tenant
// carries means single-tenant mode; the caller falls back to the default
// scope.
func (d deps) resolveTenantByPlan(ctx context.Context, planID string) (*snowflake.ID, error) {
	if planID == "" {
		return nil, nil
	}
	group, err := d.groups.ResolveByPlanID(ctx, planID)
	if errors.Is(err, groupdomain.ErrGroupNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	id := group.ID
	return &id, nil
}

// findMemberByEmail looks the member up tenant-scoped first, then widens to a
// global lookup. The widened hit is only trusted after re-validating it
// against the tenant: a member belonging to another tenant is treated as not
// found, never cross-linked.
func (d deps) findMemberByEmail(ctx context.Context, email string, tenantID *snowflake.ID) (memberdomain.Member, bool, error) {
	if email == "" {
		return memberdomain.Member{}, false, nil
	}

	scope := memberdomain.DefaultGroup()
	if tenantID != nil {
		scope = memberdomain.InGroup(*tenantID)
	}
	member, err := d.members.GetByEmail(ctx, email, scope)
	if err == nil {
		return member, true, nil
	}
	if !errors.Is(err, memberdomain.ErrMemberNotFound) {
		return memberdomain.Member{}, false, err
	}

	member, err = d.members.GetByEmail(ctx, email, memberdomain.AnyGroup())
	if errors.Is(err, memberdomain.ErrMemberNotFound) {
		return memberdomain.Member{}, false, nil
	}
	if err != nil {
		return memberdomain.Member{}, false, err
	}
	if !belongsToTenant(member, tenantID) {
		return memberdomain.Member{}, false, nil
	}
	return member, true, nil
}

// belongsToTenant accepts members of the given tenant and legacy rows with no
// tenant at all.
func belongsToTenant(member memberdomain.Member, tenantID *snowflake.ID) bool {
	if member.GroupID == nil {
		return true
	}
	if tenantID == nil {
		return false
	}
	return *member.GroupID == *tenantID
}

// findMemberBySubscription resolves the member carrying the provider
// subscription id, regardless of status. Reactivation needs to see removido
// rows too.
func (d deps) findMemberBySubscription(ctx context.Context, subscriptionID string) (memberdomain.Member, bool, error) {
	if subscriptionID == "" {
		return memberdomain.Member{}, false, nil
	}
	member, err := d.members.GetBySubscriptionID(ctx, subscriptionID)
	if errors.Is(err, memberdomain.ErrMemberNotFound) {
		return memberdomain.Member{}, false, nil
	}
	if err != nil {
		return memberdomain.Member{}, false, err
	}
	return member, true, nil
}
