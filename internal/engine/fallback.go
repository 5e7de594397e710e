package engine

import (
	"sort"
	"time"

	"instance-metrics-app/internal/domain"
)

// isCoarseSeries reports whether a non-empty sample set served for a 1m
// request actually carries basic-monitoring (5m) data: the minimum positive
// gap between deduplicated, sorted sample timestamps is >= coarseGapSeconds.
// Fewer than two distinct timestamps yield no gaps and report false.
func isCoarseSeries(samples []domain.RawSample) bool {

	seen := make(map[int64]struct{}, len(samples))
	stamps := make([]int64, 0, len(samples))

	for _, sample := range samples {
		ts := sample.Timestamp.Round(time.Second).Unix()
		if _, ok := seen[ts]; ok {
			continue
		}
		seen[ts] = struct{}{}
		stamps = append(stamps, ts)
	}

	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	var minGap int64
	found := false
	for i := 1; i < len(stamps); i++ {
		gap := stamps[i] - stamps[i-1]
		if gap <= 0 {
			continue
		}
		if !found || gap < minGap {
			minGap = gap
			found = true
		}
	}

	return found && minGap >= coarseGapSeconds
}
