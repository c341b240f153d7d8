package ports

import (
	"context"

	"github.com/agentkyo/jadlog-bot/internal/core/domain"
)

// RefreshService owns the fetch/compare/persist/notify cycle for tracked
// packages. It backs both the periodic scheduler pass and the user-triggered
// commands.
type RefreshService interface {
	// Register fetches the code once and persists a new record on success.
	// On any fetch error nothing is persisted and the error is returned.
	Register(ctx context.Context, userID int64, trackingCode string) error
	// RefreshUser refreshes every package owned by one user, notifying the
	// user per package. Returns domain.ErrNoPackages when the user has none;
	// no fetch is attempted in that case.
	RefreshUser(ctx context.Context, userID int64) error
	// RefreshAll runs one full pass over every stored package. Individual
	// fetch or store failures are logged and skipped, never abort the pass.
	RefreshAll(ctx context.Context) error
	// ListAll returns every stored package.
	ListAll(ctx context.Context) ([]*domain.TrackedPackage, error)
}
