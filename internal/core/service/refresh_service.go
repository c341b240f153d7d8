package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/agentkyo/jadlog-bot/internal/api/metrics"
	"github.com/agentkyo/jadlog-bot/internal/core/domain"
	"github.com/agentkyo/jadlog-bot/internal/core/ports"
)

// staleThreshold is the consecutive-failure count at which the owning user is
// told, once, that tracking looks unavailable. The counter keeps climbing
// past the threshold, so the notice is not repeated until a successful fetch
// resets it.
const staleThreshold = 3

const (
	msgUpdated   = "Encomenda %s atualizada."
	msgNoUpdates = "Encomenda %s sem atualizações."
	msgStale     = "Encomenda %s está sem rastreamento disponível no momento. Vou continuar tentando."
)

type registerInput struct {
	TrackingCode string `validate:"required,alphanum,min=6,max=20"`
}

type RefreshService struct {
	tracker  ports.Tracker
	repo     ports.PackageRepository
	notifier ports.Notifier
	failures ports.FailureTracker
	validate *validator.Validate
	logger   zerolog.Logger

	// timeNow is swapped in tests for a fixed clock.
	timeNow func() time.Time
}

func NewRefreshService(
	tracker ports.Tracker,
	repo ports.PackageRepository,
	notifier ports.Notifier,
	failures ports.FailureTracker,
	logger zerolog.Logger,
) *RefreshService {
	return &RefreshService{
		tracker:  tracker,
		repo:     repo,
		notifier: notifier,
		failures: failures,
		validate: validator.New(),
		logger:   logger,
		timeNow:  time.Now,
	}
}

// Register fetches the code once and stores a new record on success. A fetch
// failure creates nothing: a record only ever exists because its first fetch
// succeeded. An empty history is still a success and is persisted as such.
func (s *RefreshService) Register(ctx context.Context, userID int64, trackingCode string) error {
	if err := s.validate.Struct(registerInput{TrackingCode: trackingCode}); err != nil {
		return fmt.Errorf("%w: %q", domain.ErrInvalidTrackingCode, trackingCode)
	}

	s.logger.Info().Int64("user_id", userID).Str("tracking_code", trackingCode).Msg("registering package")

	events, err := s.tracker.Fetch(ctx, trackingCode)
	if err != nil {
		metrics.FetchesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("register %s: %w", trackingCode, err)
	}
	metrics.FetchesTotal.WithLabelValues("ok").Inc()

	pkg := &domain.TrackedPackage{
		UserID:        userID,
		TrackingCode:  trackingCode,
		Events:        events,
		LastCheckedAt: s.timeNow(),
	}
	if err := s.repo.Insert(ctx, pkg); err != nil {
		return fmt.Errorf("register %s: insert: %w", trackingCode, err)
	}
	metrics.PackagesRegisteredTotal.Inc()

	s.logger.Info().Int64("user_id", userID).Str("tracking_code", trackingCode).Msg("package registered")
	return nil
}

// RefreshUser refreshes every package owned by userID, sequentially, and
// notifies the user per package. Returns domain.ErrNoPackages without
// touching the carrier when the user has nothing registered.
func (s *RefreshService) RefreshUser(ctx context.Context, userID int64) error {
	pkgs, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("refresh user %d: %w", userID, err)
	}
	if len(pkgs) == 0 {
		return domain.ErrNoPackages
	}

	for _, pkg := range pkgs {
		s.refreshOne(ctx, pkg, pkg.UserID)
	}
	return nil
}

// RefreshAll runs one full pass over every stored package. A failing record
// is logged and skipped; the pass always reaches the end of the list.
func (s *RefreshService) RefreshAll(ctx context.Context) error {
	pkgs, err := s.repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("refresh all: %w", err)
	}
	metrics.PackagesTracked.Set(float64(len(pkgs)))

	for _, pkg := range pkgs {
		// Scope the update to the owning record: two users tracking the
		// same code each get their own refresh and notification.
		s.refreshOne(ctx, pkg, pkg.UserID)
	}
	return nil
}

// ListAll returns every stored package.
func (s *RefreshService) ListAll(ctx context.Context) ([]*domain.TrackedPackage, error) {
	return s.repo.FindAll(ctx)
}

// refreshOne is the fetch/compare/persist/notify cycle for a single record.
// It never returns an error: every failure mode either notifies or logs, and
// the caller moves on to the next record regardless.
func (s *RefreshService) refreshOne(ctx context.Context, pkg *domain.TrackedPackage, userID int64) {
	log := s.logger.With().
		Int64("user_id", userID).
		Str("tracking_code", pkg.TrackingCode).
		Logger()

	events, err := s.tracker.Fetch(ctx, pkg.TrackingCode)
	if err != nil {
		metrics.FetchesTotal.WithLabelValues("error").Inc()
		log.Warn().Err(err).Msg("fetch failed, skipping record this pass")
		s.bumpFailure(ctx, pkg, userID, log)
		return
	}
	metrics.FetchesTotal.WithLabelValues("ok").Inc()

	if err := s.failures.Reset(ctx, pkg.TrackingCode); err != nil {
		log.Warn().Err(err).Msg("failed to reset failure counter")
	}

	if domain.EventsEqual(events, pkg.Events) {
		// No delta: the record is left untouched. last_checked_at only
		// moves on a genuine structural change.
		s.notify(ctx, userID, fmt.Sprintf(msgNoUpdates, pkg.TrackingCode), "no_updates", log)
		return
	}

	if err := s.repo.UpdateEvents(ctx, pkg.TrackingCode, userID, events, s.timeNow()); err != nil {
		log.Error().Err(err).Msg("failed to persist updated events")
		return
	}
	metrics.PackagesUpdatedTotal.Inc()
	log.Info().Int("events", len(events)).Msg("package updated")

	s.notify(ctx, userID, fmt.Sprintf(msgUpdated, pkg.TrackingCode), "updated", log)
}

func (s *RefreshService) bumpFailure(ctx context.Context, pkg *domain.TrackedPackage, userID int64, log zerolog.Logger) {
	count, err := s.failures.Bump(ctx, pkg.TrackingCode)
	if err != nil {
		log.Warn().Err(err).Msg("failed to bump failure counter")
		return
	}
	if count == staleThreshold {
		s.notify(ctx, userID, fmt.Sprintf(msgStale, pkg.TrackingCode), "stale", log)
	}
}

func (s *RefreshService) notify(ctx context.Context, userID int64, text, kind string, log zerolog.Logger) {
	if err := s.notifier.Notify(ctx, userID, text); err != nil {
		log.Warn().Err(err).Str("kind", kind).Msg("failed to send notification")
		return
	}
	metrics.NotificationsSentTotal.WithLabelValues(kind).Inc()
}
