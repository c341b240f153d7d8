package ports

import (
	"context"

	"github.com/agentkyo/jadlog-bot/internal/core/domain"
)

// Tracker fetches the tracking history for a single code from the carrier.
//
// An empty slice with a nil error is a valid result: the carrier knows the
// code but has no history rows for it yet. Callers must branch on that, not
// treat it as a failure. Errors wrap domain.ErrCarrierUnavailable when no
// usable response was obtained, or domain.ErrMalformedResponse when a
// response arrived but could not be parsed.
type Tracker interface {
	Fetch(ctx context.Context, trackingCode string) ([]domain.TrackingEvent, error)
}
