package engine

import (
	"sort"
	"time"

	"instance-metrics-app/internal/domain"
)

// aggregatePoints turns raw samples into the final point series. Samples
// with no value, or with a timestamp outside [Start-1s, End+1s], are dropped.
// Timestamps are deduplicated at 1-second granularity with the first sample
// seen winning, then sorted ascending.
func aggregatePoints(samples []domain.RawSample, r domain.TimeRange) []domain.DataPoint {

	lower := r.Start.Add(-time.Second)
	upper := r.End.Add(time.Second)

	seen := make(map[int64]struct{}, len(samples))
	points := make([]domain.DataPoint, 0, len(samples))

	for _, sample := range samples {
		if sample.Value == nil {
			continue
		}
		if sample.Timestamp.Before(lower) || sample.Timestamp.After(upper) {
			continue
		}

		ts := sample.Timestamp.Round(time.Second).Unix()
		if _, ok := seen[ts]; ok {
			continue
		}
		seen[ts] = struct{}{}

		points = append(points, domain.DataPoint{
			Timestamp: ts,
			Value:     *sample.Value,
			Label:     clockLabel(ts),
		})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Timestamp < points[j].Timestamp })
	return points
}

// clockLabel renders a timestamp as a 12-hour wall-clock label. UTC keeps
// the output independent of the host timezone.
func clockLabel(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("03:04 PM")
}
