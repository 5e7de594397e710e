package engine

import (
	"time"

	"instance-metrics-app/internal/domain"
)

// PlanChunks splits a time range into query chunks whose estimated datapoint
// count (duration/period) never exceeds the provider's per-query cap. The
// chunks are contiguous, non-overlapping except at shared boundaries, and
// union to exactly the input range. Deterministic: same inputs, same plan.
func PlanChunks(r domain.TimeRange, periodSeconds int) []domain.Chunk {

	durationSeconds := r.DurationSeconds()
	estimatedPoints := (durationSeconds + int64(periodSeconds) - 1) / int64(periodSeconds)

	if estimatedPoints <= domain.MaxPointsPerQuery {
		return []domain.Chunk{{Start: r.Start, End: r.End, PeriodSeconds: periodSeconds}}
	}

	chunkDuration := time.Duration(domain.MaxPointsPerQuery*periodSeconds) * time.Second

	var chunks []domain.Chunk
	for start := r.Start; start.Before(r.End); start = start.Add(chunkDuration) {
		end := start.Add(chunkDuration)
		if end.After(r.End) {
			end = r.End
		}
		chunks = append(chunks, domain.Chunk{Start: start, End: end, PeriodSeconds: periodSeconds})
	}
	return chunks
}
