// Package reconcile drives the incremental enrichment of the local
// dataset: it diffs the provider's daily bulk export against the
// persisted store, evicts ids the provider no longer lists, fetches
// details for ids it has never seen, and refreshes popularity from the
// export, checkpointing partial progress along the way.
package reconcile

import (
	"context"
	"sort"
	"time"

	"github.com/cinedex/cinedex/pkg/dataset"
	"github.com/cinedex/cinedex/pkg/tmdb"
)

// Fixed pipeline tunables. The rate matches the provider's documented
// sustained request ceiling; the time budget leaves headroom under a
// 6-hour execution cap.
const (
	DefaultBatchSize         = 100
	DefaultRequestsPerSecond = 40
	DefaultCheckpointEvery   = 50000
	DefaultTimeBudget        = 5*time.Hour + 30*time.Minute
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Client is the provider surface the engine needs. *tmdb.Client
// satisfies it; tests substitute an in-memory fake.
type Client interface {
	FetchBulkIDs(ctx context.Context, itemType dataset.ItemType) ([]tmdb.ExportEntry, error)
	FetchDetail(ctx context.Context, itemType dataset.ItemType, id int64) (dataset.Record, error)
}

// Config holds everything Run needs for a single item type.
type Config struct {
	Client  Client
	DataDir string
	Log     Logger // optional; nil = no logging

	// Started anchors the time budget. The caller passes the process
	// start so movie and series share one budget; zero = now.
	Started time.Time

	// Tunables below default to the package constants when <= 0.
	BatchSize         int
	RequestsPerSecond float64
	CheckpointEvery   int
	TimeBudget        time.Duration
}

// Result summarizes one reconciliation run for one item type.
type Result struct {
	ItemType dataset.ItemType
	Total    int // entries in the store after the run
	New      int // new ids for which a detail fetch was attempted
	Stale    int // ids evicted because the export no longer lists them
	Errors   int // per-id fetch failures, including not-found

	// Truncated means the time budget expired mid-fetch. Progress up to
	// that point is checkpointed; the next run picks up the remainder.
	Truncated bool
}

func (cfg *Config) withDefaults() Config {
	out := *cfg
	if out.Log == nil {
		out.Log = nopLogger{}
	}
	if out.BatchSize <= 0 {
		out.BatchSize = DefaultBatchSize
	}
	if out.RequestsPerSecond <= 0 {
		out.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if out.CheckpointEvery <= 0 {
		out.CheckpointEvery = DefaultCheckpointEvery
	}
	if out.TimeBudget <= 0 {
		out.TimeBudget = DefaultTimeBudget
	}
	if out.Started.IsZero() {
		out.Started = time.Now()
	}
	return out
}

// Run reconciles one item type end to end:
//
//  1. fetch the daily bulk export
//  2. load the persisted store (empty on first run)
//  3. evict stale ids before anything else, so the stale count reflects
//     this run's export snapshot and dead entries don't ride along
//  4. fetch details for new ids, batched and rate-limited
//  5. overwrite popularity for surviving ids from the export, which is
//     regenerated daily and therefore fresher than any detail response
//  6. final save with a compressed distribution copy
//
// When the time budget expires mid-fetch, Run checkpoints what it has
// and reports Truncated instead of failing; the store invariant
// (store keys == export ids) is only guaranteed after a full run.
func Run(ctx context.Context, cfg Config, itemType dataset.ItemType) (*Result, error) {
	c := cfg.withDefaults()
	log := c.Log

	export, err := c.Client.FetchBulkIDs(ctx, itemType)
	if err != nil {
		return nil, err
	}
	log.Infof("%s: export lists %d ids", itemType, len(export))

	store, err := dataset.Load(c.DataDir, itemType)
	if err != nil {
		return nil, err
	}

	exportIDs := make(map[int64]struct{}, len(export))
	var newIDs []int64
	for _, e := range export {
		exportIDs[e.ID] = struct{}{}
		if _, ok := store[e.ID]; !ok {
			newIDs = append(newIDs, e.ID)
		}
	}
	// Ascending order gives interrupted runs a stable resume frontier.
	sort.Slice(newIDs, func(i, j int) bool { return newIDs[i] < newIDs[j] })

	stale := 0
	for id := range store {
		if _, ok := exportIDs[id]; !ok {
			delete(store, id)
			stale++
		}
	}

	res := &Result{ItemType: itemType, Stale: stale}

	if len(newIDs) > 0 {
		log.Infof("%s: %d new ids to enrich, %d stale evicted", itemType, len(newIDs), stale)
		processed, errCount, truncated, err := fetchDetails(ctx, c, itemType, newIDs, store)
		res.New = processed
		res.Errors = errCount
		if err != nil {
			return nil, err
		}
		if truncated {
			if err := dataset.Save(c.DataDir, itemType, store, true); err != nil {
				return nil, err
			}
			res.Truncated = true
			res.Total = len(store)
			log.Warnf("%s: time budget exceeded after %d of %d new ids, progress checkpointed", itemType, processed, len(newIDs))
			return res, nil
		}
	} else {
		log.Infof("%s: no new ids, %d stale evicted", itemType, stale)
	}

	for _, e := range export {
		if rec, ok := store[e.ID]; ok {
			rec.Popularity = dataset.Round2(e.Popularity)
			store[e.ID] = rec
		}
	}

	if err := dataset.Save(c.DataDir, itemType, store, false); err != nil {
		return nil, err
	}
	res.Total = len(store)
	return res, nil
}
