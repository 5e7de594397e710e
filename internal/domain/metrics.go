package domain

import (
	"context"
	"errors"
	"time"
)

// MaxPointsPerQuery is the telemetry provider's per-query datapoint cap.
const MaxPointsPerQuery = 1440

// DefaultPeriodSeconds is used when an interval key is not recognised.
const DefaultPeriodSeconds = 300

// ErrRateLimited is produced at the metric-source adapter boundary when the
// provider signals throttling. The engine retries on this tag and nothing else.
var ErrRateLimited = errors.New("telemetry provider rate limit exceeded")

// ErrInstanceNotFound is returned when an identifier matches no instance.
var ErrInstanceNotFound = errors.New("no instance matches the given identifier")

var intervalPeriods = map[string]int{
	"1m":  60,
	"5m":  300,
	"15m": 900,
	"1h":  3600,
}

// IntervalPeriod returns the sampling period in seconds for an interval key,
// falling back to the 5m period for unknown keys.
func IntervalPeriod(interval string) int {
	if period, ok := intervalPeriods[interval]; ok {
		return period
	}
	return DefaultPeriodSeconds
}

// KnownInterval reports whether the interval key maps to a period.
func KnownInterval(interval string) bool {
	_, ok := intervalPeriods[interval]
	return ok
}

type TimeRange struct {
	Start time.Time
	End   time.Time
}

func (r TimeRange) DurationSeconds() int64 {
	return int64(r.End.Sub(r.Start) / time.Second)
}

// Chunk is one provider query's sub-range, sized so the estimated datapoint
// count stays within MaxPointsPerQuery.
type Chunk struct {
	Start         time.Time
	End           time.Time
	PeriodSeconds int
}

// RawSample is a single value as returned by the metric source. Value is nil
// when the provider reported the sample without a usable value.
type RawSample struct {
	Timestamp time.Time
	Value     *float64
}

// DataPoint is the public output unit. Label is a 12-hour wall-clock
// rendering of Timestamp in UTC.
type DataPoint struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
	Label     string  `json:"label"`
}

// QueryResult carries the final point series. AdjustedInterval is set when
// the engine substituted a coarser resolution for the requested one.
type QueryResult struct {
	Points           []DataPoint `json:"points"`
	AdjustedInterval string      `json:"adjusted_interval,omitempty"`
}

// Instance is the metadata the provider reports for one compute instance.
type Instance struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	PrivateIP            string `json:"private_ip"`
	PublicIP             string `json:"public_ip,omitempty"`
	State                string `json:"state"`
	Monitoring           string `json:"monitoring"`
	TerminationProtected bool   `json:"termination_protected"`
}

// MetricSource fetches one chunk's raw samples from the telemetry provider.
// It may return ErrRateLimited (retryable), any other error, or zero samples
// (a legitimate outcome, not an error).
type MetricSource interface {
	FetchChunk(ctx context.Context, instanceID string, start, end time.Time, periodSeconds int) ([]RawSample, error)
}

// MetricQuerier is the engine's public metric operation.
type MetricQuerier interface {
	GetCPUMetrics(ctx context.Context, instanceID string, start, end time.Time, interval string) (QueryResult, error)
}

// InstanceService resolves instance identifiers (instance ID or IP address)
// and toggles the termination-protection flag.
type InstanceService interface {
	ResolveInstance(ctx context.Context, identifier string) (Instance, error)
	SetTerminationProtection(ctx context.Context, instanceID string, enabled bool) error
}
