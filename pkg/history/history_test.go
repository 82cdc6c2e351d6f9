package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "cinedex.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndListRuns(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	started := time.Date(2026, 8, 25, 3, 0, 0, 0, time.UTC)
	runs := []Run{
		{StartedAt: started, FinishedAt: started.Add(10 * time.Minute), ItemType: "movie", Total: 100, New: 100, Stale: 0},
		{StartedAt: started, FinishedAt: started.Add(20 * time.Minute), ItemType: "series", Total: 50, New: 40, Stale: 2, Errors: 3, Truncated: true},
	}
	for _, r := range runs {
		if err := db.RecordRun(ctx, r); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := db.ListRecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(got))
	}

	// Most recent first.
	if got[0].ItemType != "series" {
		t.Errorf("order wrong: %+v", got)
	}
	if !got[0].Truncated || got[0].Errors != 3 || got[0].Stale != 2 {
		t.Errorf("series run = %+v", got[0])
	}
	if got[1].Total != 100 || got[1].Truncated {
		t.Errorf("movie run = %+v", got[1])
	}
	if !got[1].StartedAt.Equal(started) {
		t.Errorf("started_at round trip: %v != %v", got[1].StartedAt, started)
	}
}

func TestListRecentRunsLimit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		r := Run{StartedAt: base, FinishedAt: base.Add(time.Duration(i) * time.Minute), ItemType: "movie", Total: i}
		if err := db.RecordRun(ctx, r); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := db.ListRecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(got))
	}
	if got[0].Total != 4 {
		t.Errorf("expected newest run first, got %+v", got[0])
	}
}
