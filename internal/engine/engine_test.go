package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"instance-metrics-app/internal/domain"
	"instance-metrics-app/internal/util"
)

type fetchCall struct {
	instanceID    string
	start         time.Time
	end           time.Time
	periodSeconds int
}

type MockMetricSource struct {
	mu      sync.Mutex
	calls   []fetchCall
	fetchFn func(call fetchCall, callNum int) ([]domain.RawSample, error)
}

func (m *MockMetricSource) FetchChunk(ctx context.Context, instanceID string, start, end time.Time, periodSeconds int) ([]domain.RawSample, error) {
	m.mu.Lock()
	call := fetchCall{instanceID: instanceID, start: start, end: end, periodSeconds: periodSeconds}
	m.calls = append(m.calls, call)
	callNum := len(m.calls)
	m.mu.Unlock()

	return m.fetchFn(call, callNum)
}

func (m *MockMetricSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *MockMetricSource) call(i int) fetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[i]
}

// sampleSeries generates one sample per period across [start, end).
func sampleSeries(start, end time.Time, periodSeconds int) []domain.RawSample {
	var samples []domain.RawSample
	for ts := start; ts.Before(end); ts = ts.Add(time.Duration(periodSeconds) * time.Second) {
		samples = append(samples, domain.RawSample{Timestamp: ts, Value: floatPtr(42.0)})
	}
	return samples
}

func newTestEngine(source domain.MetricSource) *Engine {
	return New(source, &util.ServiceLogger{})
}

func TestGetCPUMetrics_RetryOnRateLimit(t *testing.T) {
	start := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	// Rate limited on the first 2 calls, succeeds on the 3rd.
	source := &MockMetricSource{
		fetchFn: func(call fetchCall, callNum int) ([]domain.RawSample, error) {
			if callNum <= 2 {
				return nil, fmt.Errorf("%w: HTTP 429", domain.ErrRateLimited)
			}
			return sampleSeries(call.start, call.end, call.periodSeconds), nil
		},
	}

	result, err := newTestEngine(source).GetCPUMetrics(context.Background(), "i-0abc123", start, end, "1m")

	assert.NoError(t, err)
	assert.Equal(t, 3, source.callCount(), "Source should be invoked exactly 3 times")
	assert.Len(t, result.Points, 60)
	assert.Empty(t, result.AdjustedInterval)
}

func TestGetCPUMetrics_RateLimitExhausted(t *testing.T) {
	start := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	source := &MockMetricSource{
		fetchFn: func(call fetchCall, callNum int) ([]domain.RawSample, error) {
			return nil, fmt.Errorf("%w: HTTP 429", domain.ErrRateLimited)
		},
	}

	_, err := newTestEngine(source).GetCPUMetrics(context.Background(), "i-0abc123", start, end, "1m")

	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited, "Exhausted retries should surface the rate-limit tag unchanged")
	assert.Equal(t, 4, source.callCount(), "1 initial attempt plus 3 retries")
}

func TestGetCPUMetrics_UpstreamFailureNotRetried(t *testing.T) {
	start := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	upstreamErr := errors.New("provider returned HTTP 500")
	source := &MockMetricSource{
		fetchFn: func(call fetchCall, callNum int) ([]domain.RawSample, error) {
			return nil, upstreamErr
		},
	}

	_, err := newTestEngine(source).GetCPUMetrics(context.Background(), "i-0abc123", start, end, "1m")

	assert.Error(t, err)
	assert.ErrorIs(t, err, upstreamErr, "Non-rate-limit errors must propagate with their original identity")
	assert.Equal(t, 1, source.callCount(), "Non-rate-limit errors must not be retried")
}

func TestGetCPUMetrics_PreemptiveFallback(t *testing.T) {
	start := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	// Empty at 60s, data at 300s: basic monitoring only.
	source := &MockMetricSource{
		fetchFn: func(call fetchCall, callNum int) ([]domain.RawSample, error) {
			if call.periodSeconds == 60 {
				return nil, nil
			}
			return sampleSeries(call.start, call.end, call.periodSeconds), nil
		},
	}

	result, err := newTestEngine(source).GetCPUMetrics(context.Background(), "i-0abc123", start, end, "1m")

	assert.NoError(t, err)
	assert.Equal(t, "5m", result.AdjustedInterval)
	assert.Len(t, result.Points, 12)
	assert.Equal(t, 2, source.callCount(), "Empty 1m result should trigger exactly one full re-fetch")
	assert.Equal(t, 60, source.call(0).periodSeconds)
	assert.Equal(t, 300, source.call(1).periodSeconds)
}

func TestGetCPUMetrics_CoarseGapDetection(t *testing.T) {
	start := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	// The provider silently answers a 1m request with 5m-spaced samples.
	source := &MockMetricSource{
		fetchFn: func(call fetchCall, callNum int) ([]domain.RawSample, error) {
			return []domain.RawSample{
				{Timestamp: start, Value: floatPtr(10.0)},
				{Timestamp: start.Add(5 * time.Minute), Value: floatPtr(20.0)},
				{Timestamp: start.Add(10 * time.Minute), Value: floatPtr(30.0)},
			}, nil
		},
	}

	result, err := newTestEngine(source).GetCPUMetrics(context.Background(), "i-0abc123", start, end, "1m")

	assert.NoError(t, err)
	assert.Equal(t, "5m", result.AdjustedInterval, "Coarse gaps should relabel the result")
	assert.Equal(t, 1, source.callCount(), "Gap-based detection must not trigger a second fetch")
	assert.Len(t, result.Points, 3, "Already-fetched values are used as-is")
}

func TestGetCPUMetrics_NoFallbackForOtherIntervals(t *testing.T) {
	start := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	source := &MockMetricSource{
		fetchFn: func(call fetchCall, callNum int) ([]domain.RawSample, error) {
			return nil, nil
		},
	}
	eng := newTestEngine(source)

	// case 1: empty 5m result is a legitimate outcome, no re-fetch
	result, err := eng.GetCPUMetrics(context.Background(), "i-0abc123", start, end, "5m")
	assert.NoError(t, err)
	assert.Empty(t, result.AdjustedInterval)
	assert.Len(t, result.Points, 0)
	assert.Equal(t, 1, source.callCount())

	// case 2: unknown interval keys default to the 5m period
	_, err = eng.GetCPUMetrics(context.Background(), "i-0abc123", start, end, "2m")
	assert.NoError(t, err)
	assert.Equal(t, 2, source.callCount())
	assert.Equal(t, 300, source.call(1).periodSeconds)
}

func TestGetCPUMetrics_FailFastOnSiblingChunk(t *testing.T) {
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)

	// 2 chunks at 60s; the second one fails outright.
	upstreamErr := errors.New("provider returned HTTP 503")
	source := &MockMetricSource{
		fetchFn: func(call fetchCall, callNum int) ([]domain.RawSample, error) {
			if call.start.Equal(start) {
				return sampleSeries(call.start, call.end, call.periodSeconds), nil
			}
			return nil, upstreamErr
		},
	}

	result, err := newTestEngine(source).GetCPUMetrics(context.Background(), "i-0abc123", start, end, "1m")

	assert.Error(t, err)
	assert.ErrorIs(t, err, upstreamErr)
	assert.Empty(t, result.Points, "No partial series may be returned when a sibling chunk fails")
	assert.Equal(t, 2, source.callCount(), "Both chunks of the batch run before the failure propagates")
}

func TestFetchAll_OrderAndConcurrency(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	r := domain.TimeRange{Start: start, End: start.Add(12 * 24 * time.Hour)}

	chunks := PlanChunks(r, 60)
	assert.Len(t, chunks, 12)

	var inFlight, maxInFlight int32
	source := &MockMetricSource{
		fetchFn: func(call fetchCall, callNum int) ([]domain.RawSample, error) {
			current := atomic.AddInt32(&inFlight, 1)
			for {
				max := atomic.LoadInt32(&maxInFlight)
				if current <= max || atomic.CompareAndSwapInt32(&maxInFlight, max, current) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)

			// One sample stamped with the chunk start so order is observable.
			return []domain.RawSample{{Timestamp: call.start, Value: floatPtr(1.0)}}, nil
		},
	}

	eng := newTestEngine(source)
	results, err := eng.fetchAll(context.Background(), "i-0abc123", chunks)

	assert.NoError(t, err)
	assert.Len(t, results, len(chunks))
	for i, chunk := range chunks {
		assert.Len(t, results[i], 1)
		assert.Equal(t, chunk.Start, results[i][0].Timestamp, "Output must preserve input chunk order")
	}
	assert.LessOrEqual(t, maxInFlight, int32(maxConcurrentFetches), "No more than 5 fetches may be in flight")
	assert.Equal(t, 12, source.callCount())
}
