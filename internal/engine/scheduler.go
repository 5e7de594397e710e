package engine

import (
	"context"
	"sync"

	"instance-metrics-app/internal/domain"
	"instance-metrics-app/internal/util"
)

type chunkResult struct {
	index   int
	samples []domain.RawSample
	err     error
}

// fetchAll runs chunk fetches in sequential batches of at most
// maxConcurrentFetches in-flight calls; the next batch starts only after the
// current one fully settles. The output preserves input chunk order. Any
// chunk failure (after its own retries) fails the whole query and already
// fetched data is discarded.
func (e *Engine) fetchAll(ctx context.Context, instanceID string, chunks []domain.Chunk) ([][]domain.RawSample, error) {

	results := make([][]domain.RawSample, len(chunks))

	for batchStart := 0; batchStart < len(chunks); batchStart += maxConcurrentFetches {
		batchEnd := batchStart + maxConcurrentFetches
		if batchEnd > len(chunks) {
			batchEnd = len(chunks)
		}

		resultCh := make(chan chunkResult, batchEnd-batchStart)
		var wg sync.WaitGroup

		for i := batchStart; i < batchEnd; i++ {
			wg.Add(1)
			go func(index int, chunk domain.Chunk) {
				defer wg.Done()
				samples, err := e.fetchChunk(ctx, instanceID, chunk)
				resultCh <- chunkResult{index: index, samples: samples, err: err}
			}(i, chunks[i])
		}

		// Fan-in only after the whole batch has settled.
		wg.Wait()
		close(resultCh)

		var firstErr error
		for result := range resultCh {
			if result.err != nil {
				chunk := chunks[result.index]
				e.logger.LogEvent(util.LOG_LEVEL_ERROR, "Chunk fetch failed. instanceID -", instanceID,
					"chunk -", result.index, "window -", chunk.Start.Unix(), "to", chunk.End.Unix(), "err -", result.err)
				if firstErr == nil {
					firstErr = result.err
				}
				continue
			}
			results[result.index] = result.samples
		}
		if firstErr != nil {
			return nil, firstErr
		}
	}

	return results, nil
}
