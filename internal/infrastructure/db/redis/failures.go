package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const failureTTL = 24 * time.Hour

// FailureTracker counts consecutive fetch failures per tracking code.
// Key format: failures:<tracking_code>
//
// The count survives process restarts but expires after failureTTL so a code
// that stops being refreshed does not pin a key forever.
type FailureTracker struct {
	client *redis.Client
}

// NewFailureTracker creates a FailureTracker wrapping the given Redis client.
func NewFailureTracker(client *redis.Client) *FailureTracker {
	return &FailureTracker{client: client}
}

// Bump increments the consecutive-failure count for the code and returns the
// new count.
func (f *FailureTracker) Bump(ctx context.Context, trackingCode string) (int64, error) {
	key := f.key(trackingCode)
	n, err := f.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failure bump: %w", err)
	}
	if err := f.client.Expire(ctx, key, failureTTL).Err(); err != nil {
		return n, fmt.Errorf("failure expire: %w", err)
	}
	return n, nil
}

// Reset clears the count after a successful fetch.
func (f *FailureTracker) Reset(ctx context.Context, trackingCode string) error {
	if err := f.client.Del(ctx, f.key(trackingCode)).Err(); err != nil {
		return fmt.Errorf("failure reset: %w", err)
	}
	return nil
}

func (f *FailureTracker) key(trackingCode string) string {
	return "failures:" + trackingCode
}
