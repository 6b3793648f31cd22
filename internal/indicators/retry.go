package indicators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mr1hm/emdat-stats/internal/models"
	"github.com/mr1hm/emdat-stats/internal/table"
)

// RetryFetcher is the caller-side retry policy around a Fetcher. Only
// models.ErrExternalFetch failures are retried; anything else is returned
// immediately.
type RetryFetcher struct {
	next       Fetcher
	maxRetries uint64
	initial    time.Duration
}

func NewRetryFetcher(next Fetcher, maxRetries uint64, initial time.Duration) *RetryFetcher {
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	return &RetryFetcher{
		next:       next,
		maxRetries: maxRetries,
		initial:    initial,
	}
}

func (r *RetryFetcher) Fetch(ctx context.Context, ind Indicator, isoCodes []string, fromYear, toYear int) (*table.Matrix, error) {
	var m *table.Matrix

	op := func() error {
		var err error
		m, err = r.next.Fetch(ctx, ind, isoCodes, fromYear, toYear)
		if err != nil && !errors.Is(err, models.ErrExternalFetch) {
			return backoff.Permanent(err)
		}
		return err
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.initial
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, r.maxRetries), ctx)

	notify := func(err error, wait time.Duration) {
		slog.Warn("indicator fetch failed, retrying", "indicator", ind.Code, "countries", len(isoCodes), "wait", wait, "error", err)
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return m, nil
}
