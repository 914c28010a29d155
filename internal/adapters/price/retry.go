package price

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/newstrader/pkg/logger"
	"github.com/selivandex/newstrader/pkg/models"
)

// RetryingStore wraps a Store with a bounded retry policy. The retry
// lives here, outside the simulation logic, so callers see one clean
// lookup. ErrNotFound is never retried: absence of a row is a data
// condition, not a transient fault.
type RetryingStore struct {
	inner    Store
	attempts int
	backoff  time.Duration
}

// WithRetry decorates a price store with at most attempts total tries
func WithRetry(inner Store, attempts int, backoff time.Duration) *RetryingStore {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingStore{inner: inner, attempts: attempts, backoff: backoff}
}

// GetPrice delegates to the wrapped store, retrying transient errors
func (s *RetryingStore) GetPrice(ctx context.Context, ticker string, date time.Time) (*models.PriceBar, error) {
	var lastErr error

	for attempt := 1; attempt <= s.attempts; attempt++ {
		bar, err := s.inner.GetPrice(ctx, ticker, date)
		if err == nil {
			return bar, nil
		}
		if errors.Is(err, ErrNotFound) || ctx.Err() != nil {
			return nil, err
		}

		lastErr = err
		if attempt < s.attempts {
			logger.Warn("price lookup failed, retrying",
				zap.String("ticker", ticker),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.backoff):
			}
		}
	}

	return nil, lastErr
}
