package ports

import "context"

// Notifier sends a plain-text message to a user of the messaging platform.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) error
}

// FailureTracker counts consecutive fetch failures per tracking code so the
// refresh pass can tell a transient carrier hiccup from a code that has been
// unreachable for a while.
type FailureTracker interface {
	// Bump increments the failure count for the code and returns the new count.
	Bump(ctx context.Context, trackingCode string) (int64, error)
	// Reset clears the failure count after a successful fetch.
	Reset(ctx context.Context, trackingCode string) error
}
