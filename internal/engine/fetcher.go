package engine

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"

	"instance-metrics-app/internal/domain"
	"instance-metrics-app/internal/util"
)

// fetchChunk issues one chunk's provider query. Rate-limited calls are
// re-issued up to rateLimitMaxRetries additional times with deterministic
// exponential delays (200ms, 400ms, 800ms); any other error propagates
// immediately and unchanged.
func (e *Engine) fetchChunk(ctx context.Context, instanceID string, chunk domain.Chunk) ([]domain.RawSample, error) {

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = backoffInitialDelay
	policy.RandomizationFactor = 0
	policy.Multiplier = 2
	policy.MaxElapsedTime = 0

	var samples []domain.RawSample
	attempt := 0

	operation := func() error {
		attempt++
		fetched, err := e.source.FetchChunk(ctx, instanceID, chunk.Start, chunk.End, chunk.PeriodSeconds)
		if err != nil {
			if errors.Is(err, domain.ErrRateLimited) {
				e.logger.LogEvent(util.LOG_LEVEL_WARN, "Rate limited by provider. instanceID -", instanceID, "attempt -", attempt)
				return err
			}
			return backoff.Permanent(err)
		}
		samples = fetched
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, rateLimitMaxRetries), ctx))
	if err != nil {
		return nil, err
	}
	return samples, nil
}
