package tmdb

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/cinedex/cinedex/pkg/dataset"
)

// ExportEntry is one line of the provider's daily bulk id export.
// Entries are ephemeral: rebuilt from scratch every run, never persisted.
type ExportEntry struct {
	ID         int64
	Title      string
	Popularity float64
}

func exportPrefix(itemType dataset.ItemType) string {
	if itemType == dataset.Series {
		return "tv_series_ids"
	}
	return "movie_ids"
}

// exportURL returns the bulk export location for a given day.
// The provider publishes one export per item type per calendar day,
// named after the day with a MM_DD_YYYY stamp.
func (c *Client) exportURL(itemType dataset.ItemType, day time.Time) string {
	return fmt.Sprintf("%s/%s_%s.json.gz", c.ExportBase, exportPrefix(itemType), day.Format("01_02_2006"))
}

// FetchBulkIDs downloads and decodes the daily export for an item type.
// It targets yesterday's export: each day's file is generated overnight,
// so today's is not guaranteed to exist yet.
func (c *Client) FetchBulkIDs(ctx context.Context, itemType dataset.ItemType) ([]ExportEntry, error) {
	day := time.Now().UTC().AddDate(0, 0, -1)
	return c.fetchExport(ctx, itemType, day)
}

func (c *Client) fetchExport(ctx context.Context, itemType dataset.ItemType, day time.Time) ([]ExportEntry, error) {
	url := c.exportURL(itemType, day)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tmdb: download export %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tmdb: download export %s: unexpected status %d", url, resp.StatusCode)
	}

	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tmdb: decompress export %s: %w", url, err)
	}
	defer zr.Close()

	var entries []ExportEntry
	scanner := bufio.NewScanner(zr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		// Malformed lines are dropped, not fatal: the export is large
		// and occasionally carries truncated records.
		if !gjson.Valid(line) {
			continue
		}
		v := gjson.Parse(line)
		if v.Get("adult").Bool() {
			continue
		}
		id := v.Get("id")
		if !id.Exists() {
			continue
		}
		title := v.Get("original_title")
		if !title.Exists() {
			title = v.Get("original_name")
		}
		entries = append(entries, ExportEntry{
			ID:         id.Int(),
			Title:      title.Str,
			Popularity: v.Get("popularity").Float(),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("tmdb: read export %s: %w", url, err)
	}
	return entries, nil
}
