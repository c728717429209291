package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// UpdateFields carries the columns a status transition may set alongside the
// status itself. Nil pointers leave the column untouched.
//
// NoteLine is a single audit line appended to notes inside the same UPDATE;
// it never carries the full column, so a note written between the caller's
// read and the conditional write is preserved.
type UpdateFields struct {
	SubscriptionEndsAt *time.Time
	InadimplenteAt     *time.Time
	KickedAt           *time.Time
	TrialStartedAt     *time.Time
	TrialEndsAt        *time.Time
	NoteLine           *string
}

// LinkFields carries the subscription linkage columns.
type LinkFields struct {
	ProviderSubscriptionID *string
	PayerID                *string
	PaymentMethod          *string
	SubscriptionEndsAt     *time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, member *Member) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Member, error)
	// FindByTelegramID and FindByEmail only match non-removed members; a nil
	// groupID applies no tenant filter.
	FindByTelegramID(ctx context.Context, db *gorm.DB, telegramID int64, groupID *snowflake.ID) (*Member, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string, groupID *snowflake.ID) (*Member, error)
	FindBySubscriptionID(ctx context.Context, db *gorm.DB, subscriptionID string) (*Member, error)
	ListByStatus(ctx context.Context, db *gorm.DB, status Status, groupID *snowflake.ID) ([]Member, error)

	// UpdateStatusCAS performs the conditional write guarding every status
	// change: UPDATE ... WHERE id = ? AND status = <expected>. A false return
	// means another writer moved the status first.
	UpdateStatusCAS(ctx context.Context, db *gorm.DB, id snowflake.ID, expected, target Status, fields UpdateFields, now time.Time) (bool, error)
	UpdateSubscriptionLink(ctx context.Context, db *gorm.DB, id snowflake.ID, fields LinkFields, now time.Time) error
	AppendNote(ctx context.Context, db *gorm.DB, id snowflake.ID, note string, now time.Time) error
}
