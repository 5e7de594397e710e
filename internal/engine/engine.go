// Package engine implements the CPU metric retrieval core: it splits a
// requested time range into provider-safe chunks, fetches them under bounded
// concurrency with rate-limit retries, falls back to a coarser resolution
// when 1-minute data is unavailable, and merges the samples into the final
// point series.
package engine

import (
	"context"
	"time"

	"instance-metrics-app/internal/domain"
	"instance-metrics-app/internal/util"
)

const (
	maxConcurrentFetches = 5
	rateLimitMaxRetries  = 3
	backoffInitialDelay  = 200 * time.Millisecond

	// Minimum gap between consecutive sample timestamps that marks a series
	// as basic-monitoring (5m) data silently served for a 1m request.
	coarseGapSeconds = 240

	intervalDetailed = "1m"
	intervalBasic    = "5m"
)

type Engine struct {
	source domain.MetricSource
	logger *util.ServiceLogger
}

func New(source domain.MetricSource, logger *util.ServiceLogger) *Engine {
	return &Engine{source: source, logger: logger}
}

// GetCPUMetrics retrieves the CPU utilization series for an instance over
// [start, end) at the requested interval. When the interval is 1m and the
// provider has no detailed-monitoring data, the result is downgraded to the
// 5m resolution and AdjustedInterval is set accordingly.
func (e *Engine) GetCPUMetrics(ctx context.Context, instanceID string, start, end time.Time, interval string) (domain.QueryResult, error) {

	rng := domain.TimeRange{Start: start, End: end}

	samples, err := e.fetchRange(ctx, instanceID, rng, domain.IntervalPeriod(interval))
	if err != nil {
		return domain.QueryResult{}, err
	}

	var adjusted string
	if interval == intervalDetailed {
		switch {
		case len(samples) == 0:
			// No detailed-monitoring data at all: one full re-fetch at the
			// basic period. Never more than one such re-fetch per query.
			e.logger.LogEvent(util.LOG_LEVEL_INFO, "No samples at 1m resolution, re-fetching at 5m. instanceID -", instanceID)
			samples, err = e.fetchRange(ctx, instanceID, rng, domain.DefaultPeriodSeconds)
			if err != nil {
				return domain.QueryResult{}, err
			}
			adjusted = intervalBasic
		case isCoarseSeries(samples):
			// The provider answered the 1m request with 5m-spaced samples.
			// Relabel only; the fetched values are used as-is.
			adjusted = intervalBasic
		}
	}

	return domain.QueryResult{
		Points:           aggregatePoints(samples, rng),
		AdjustedInterval: adjusted,
	}, nil
}

// fetchRange plans, fetches and flattens one full pass over the range at the
// given period, preserving chunk order.
func (e *Engine) fetchRange(ctx context.Context, instanceID string, rng domain.TimeRange, periodSeconds int) ([]domain.RawSample, error) {
	chunks := PlanChunks(rng, periodSeconds)

	batches, err := e.fetchAll(ctx, instanceID, chunks)
	if err != nil {
		return nil, err
	}

	var merged []domain.RawSample
	for _, batch := range batches {
		merged = append(merged, batch...)
	}
	return merged, nil
}
