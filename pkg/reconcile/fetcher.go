package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cinedex/cinedex/pkg/dataset"
	"github.com/cinedex/cinedex/pkg/tmdb"
)

// fetchDetails enriches newIDs into the store, mutating it in place so
// checkpoint saves observe partial progress. Ids are processed in
// fixed-size batches; lookups within a batch run concurrently, batches
// themselves strictly sequentially, which bounds in-flight requests to
// the batch size and makes the rate limit enforceable per batch.
//
// Returns how many ids were attempted, how many failed (not-found
// included), and whether the time budget cut the pass short. The only
// hard error is a failed checkpoint save.
func fetchDetails(ctx context.Context, cfg Config, itemType dataset.ItemType, newIDs []int64, store dataset.Store) (processed, errCount int, truncated bool, err error) {
	log := cfg.Log

	// Sustained throughput cap: a batch may not finish faster than
	// batchSize/requestsPerSecond, however quickly responses return.
	minBatchTime := time.Duration(float64(cfg.BatchSize) / cfg.RequestsPerSecond * float64(time.Second))
	sinceCheckpoint := 0

	for start := 0; start < len(newIDs); start += cfg.BatchSize {
		if time.Since(cfg.Started) > cfg.TimeBudget {
			return processed, errCount, true, nil
		}

		end := start + cfg.BatchSize
		if end > len(newIDs) {
			end = len(newIDs)
		}
		batch := newIDs[start:end]
		batchStarted := time.Now()

		var mu sync.Mutex
		var wg sync.WaitGroup
		for _, id := range batch {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				rec, fetchErr := cfg.Client.FetchDetail(ctx, itemType, id)
				if fetchErr != nil {
					if errors.Is(fetchErr, tmdb.ErrNotFound) {
						log.Debugf("%s: id %d has no detail resource", itemType, id)
					} else {
						log.Warnf("%s: detail fetch for id %d failed: %v", itemType, id, fetchErr)
					}
					mu.Lock()
					errCount++
					mu.Unlock()
					return
				}
				mu.Lock()
				store[rec.ID] = rec
				mu.Unlock()
			}(id)
		}
		wg.Wait()

		processed += len(batch)
		sinceCheckpoint += len(batch)

		if sinceCheckpoint >= cfg.CheckpointEvery {
			if saveErr := dataset.Save(cfg.DataDir, itemType, store, true); saveErr != nil {
				return processed, errCount, false, saveErr
			}
			log.Infof("%s: checkpoint after %d of %d new ids", itemType, processed, len(newIDs))
			sinceCheckpoint = 0
		}

		if end < len(newIDs) {
			if elapsed := time.Since(batchStarted); elapsed < minBatchTime {
				time.Sleep(minBatchTime - elapsed)
			}
		}
	}

	return processed, errCount, false, nil
}
