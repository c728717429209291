package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	memberdomain "github.com/marcelomar21/bets-estatistica/internal/member/domain"
	"gorm.io/gorm"
)

const memberColumns = `id, telegram_id, email, group_id, provider_subscription_id, payer_id,
	 payment_method, status, trial_started_at, trial_ends_at, subscription_ends_at,
	 inadimplente_at, kicked_at, notes, created_at, updated_at`

type repo struct{}

func Provide() memberdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, member *memberdomain.Member) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO members (
			id, telegram_id, email, group_id, provider_subscription_id, payer_id,
			payment_method, status, trial_started_at, trial_ends_at, subscription_ends_at,
			inadimplente_at, kicked_at, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		member.ID,
		member.TelegramID,
		member.Email,
		member.GroupID,
		member.ProviderSubscriptionID,
		member.PayerID,
		member.PaymentMethod,
		member.Status,
		member.TrialStartedAt,
		member.TrialEndsAt,
		member.SubscriptionEndsAt,
		member.InadimplenteAt,
		member.KickedAt,
		member.Notes,
		member.CreatedAt,
		member.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*memberdomain.Member, error) {
	var member memberdomain.Member
	err := db.WithContext(ctx).Raw(
		fmt.Sprintf(`SELECT %s FROM members WHERE id = ?`, memberColumns),
		id,
	).Scan(&member).Error
	if err != nil {
		return nil, err
	}
	if member.ID == 0 {
		return nil, nil
	}
	return &member, nil
}

func (r *repo) FindByTelegramID(ctx context.Context, db *gorm.DB, telegramID int64, groupID *snowflake.ID) (*memberdomain.Member, error) {
	where := `telegram_id = ? AND status <> ?`
	args := []any{telegramID, memberdomain.StatusRemovido}
	if groupID != nil {
		where += ` AND group_id = ?`
		args = append(args, *groupID)
	}
	return r.findOne(ctx, db, where, args)
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string, groupID *snowflake.ID) (*memberdomain.Member, error) {
	where := `email = ? AND status <> ?`
	args := []any{strings.ToLower(strings.TrimSpace(email)), memberdomain.StatusRemovido}
	if groupID != nil {
		where += ` AND group_id = ?`
		args = append(args, *groupID)
	}
	return r.findOne(ctx, db, where, args)
}

func (r *repo) FindBySubscriptionID(ctx context.Context, db *gorm.DB, subscriptionID string) (*memberdomain.Member, error) {
	// No status filter: a removido member found by subscription id is the
	// reactivation path.
	return r.findOne(ctx, db, `provider_subscription_id = ?`, []any{subscriptionID})
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, where string, args []any) (*memberdomain.Member, error) {
	var member memberdomain.Member
	query := fmt.Sprintf(
		`SELECT %s FROM members WHERE %s ORDER BY created_at DESC LIMIT 1`,
		memberColumns,
		where,
	)
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&member).Error; err != nil {
		return nil, err
	}
	if member.ID == 0 {
		return nil, nil
	}
	return &member, nil
}

func (r *repo) ListByStatus(ctx context.Context, db *gorm.DB, status memberdomain.Status, groupID *snowflake.ID) ([]memberdomain.Member, error) {
	where := `status = ?`
	args := []any{status}
	if groupID != nil {
		where += ` AND group_id = ?`
		args = append(args, *groupID)
	}
	var members []memberdomain.Member
	query := fmt.Sprintf(
		`SELECT %s FROM members WHERE %s ORDER BY created_at ASC`,
		memberColumns,
		where,
	)
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repo) UpdateStatusCAS(ctx context.Context, db *gorm.DB, id snowflake.ID, expected, target memberdomain.Status, fields memberdomain.UpdateFields, now time.Time) (bool, error) {
	set := []string{`status = ?`, `updated_at = ?`}
	args := []any{target, now}
	if fields.SubscriptionEndsAt != nil {
		set = append(set, `subscription_ends_at = ?`)
		args = append(args, *fields.SubscriptionEndsAt)
	}
	if fields.InadimplenteAt != nil {
		set = append(set, `inadimplente_at = ?`)
		args = append(args, *fields.InadimplenteAt)
	}
	if fields.KickedAt != nil {
		set = append(set, `kicked_at = ?`)
		args = append(args, *fields.KickedAt)
	}
	if fields.TrialStartedAt != nil {
		set = append(set, `trial_started_at = ?`)
		args = append(args, *fields.TrialStartedAt)
	}
	if fields.TrialEndsAt != nil {
		set = append(set, `trial_ends_at = ?`)
		args = append(args, *fields.TrialEndsAt)
	}
	if fields.NoteLine != nil {
		// Append in-database, same as AppendNote, so a concurrent note update
		// between the caller's read and this write cannot be lost.
		set = append(set, `notes = CASE WHEN notes = '' THEN ? ELSE notes || ? END`)
		args = append(args, *fields.NoteLine, "\n"+*fields.NoteLine)
	}
	args = append(args, id, expected)

	result := db.WithContext(ctx).Exec(
		fmt.Sprintf(`UPDATE members SET %s WHERE id = ? AND status = ?`, strings.Join(set, ", ")),
		args...,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) UpdateSubscriptionLink(ctx context.Context, db *gorm.DB, id snowflake.ID, fields memberdomain.LinkFields, now time.Time) error {
	set := []string{`updated_at = ?`}
	args := []any{now}
	if fields.ProviderSubscriptionID != nil {
		set = append(set, `provider_subscription_id = ?`)
		args = append(args, *fields.ProviderSubscriptionID)
	}
	if fields.PayerID != nil {
		set = append(set, `payer_id = ?`)
		args = append(args, *fields.PayerID)
	}
	if fields.PaymentMethod != nil {
		set = append(set, `payment_method = ?`)
		args = append(args, *fields.PaymentMethod)
	}
	if fields.SubscriptionEndsAt != nil {
		set = append(set, `subscription_ends_at = ?`)
		args = append(args, *fields.SubscriptionEndsAt)
	}
	args = append(args, id)

	return db.WithContext(ctx).Exec(
		fmt.Sprintf(`UPDATE members SET %s WHERE id = ?`, strings.Join(set, ", ")),
		args...,
	).Error
}

func (r *repo) AppendNote(ctx context.Context, db *gorm.DB, id snowflake.ID, note string, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE members
		 SET notes = CASE WHEN notes = '' THEN ? ELSE notes || ? END,
		     updated_at = ?
		 WHERE id = ?`,
		note,
		"\n"+note,
		now,
		id,
	).Error
}
