package ports

import (
	"context"
	"time"

	"github.com/agentkyo/jadlog-bot/internal/core/domain"
)

// PackageRepository defines persistence operations for tracked packages.
//
// There is no uniqueness constraint on (user_id, tracking_code): registering
// the same code twice creates two independent records, matching how the bot
// has always behaved. UpdateEvents therefore has UpdateMany semantics.
type PackageRepository interface {
	Insert(ctx context.Context, pkg *domain.TrackedPackage) error
	FindByUser(ctx context.Context, userID int64) ([]*domain.TrackedPackage, error)
	FindByTrackingCode(ctx context.Context, trackingCode string) ([]*domain.TrackedPackage, error)
	FindAll(ctx context.Context) ([]*domain.TrackedPackage, error)
	// UpdateEvents replaces events and last_checked_at on every record with
	// the given tracking code. When userID is non-zero the update is scoped
	// to that user's records only.
	UpdateEvents(ctx context.Context, trackingCode string, userID int64, events []domain.TrackingEvent, checkedAt time.Time) error
}
