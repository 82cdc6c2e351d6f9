package tmdb

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cinedex/cinedex/pkg/dataset"
)

func gzipBody(t *testing.T, w http.ResponseWriter, lines ...string) {
	t.Helper()
	zw := gzip.NewWriter(w)
	if _, err := zw.Write([]byte(strings.Join(lines, "\n"))); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestExportURL(t *testing.T) {
	c := NewClient("")
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	got := c.exportURL(dataset.Movie, day)
	want := defaultExportBase + "/movie_ids_08_24_2026.json.gz"
	if got != want {
		t.Errorf("movie export url = %s, want %s", got, want)
	}

	got = c.exportURL(dataset.Series, day)
	want = defaultExportBase + "/tv_series_ids_08_24_2026.json.gz"
	if got != want {
		t.Errorf("series export url = %s, want %s", got, want)
	}
}

func TestFetchExportParsesFiltersAndSkips(t *testing.T) {
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie_ids_08_24_2026.json.gz" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gzipBody(t, w,
			`{"adult":false,"id":603,"original_title":"The Matrix","popularity":81.347,"video":false}`,
			`{"adult":true,"id":666,"original_title":"Filtered","popularity":50.0,"video":false}`,
			`{"adult":false,"id":604,"original_ti`, // truncated line, dropped
			`{"adult":false,"id":605,"original_title":"Reloaded","popularity":40.1,"video":false}`,
		)
	}))
	defer srv.Close()

	entries, err := newTestClient(srv).fetchExport(context.Background(), dataset.Movie, day)
	if err != nil {
		t.Fatalf("fetch export: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}
	if entries[0].ID != 603 || entries[0].Title != "The Matrix" || entries[0].Popularity != 81.347 {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].ID != 605 {
		t.Errorf("entry 1 = %+v", entries[1])
	}
}

func TestFetchExportSeriesUsesOriginalName(t *testing.T) {
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tv_series_ids_08_24_2026.json.gz" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gzipBody(t, w, `{"adult":false,"id":1399,"original_name":"Game of Thrones","popularity":369.594}`)
	}))
	defer srv.Close()

	entries, err := newTestClient(srv).fetchExport(context.Background(), dataset.Series, day)
	if err != nil {
		t.Fatalf("fetch export: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Game of Thrones" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestFetchExportDownloadFailureIsFatal(t *testing.T) {
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv).fetchExport(context.Background(), dataset.Movie, day); err == nil {
		t.Fatal("expected error for missing export")
	}
}
