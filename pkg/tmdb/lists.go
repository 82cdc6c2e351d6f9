package tmdb

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/cinedex/cinedex/pkg/dataset"
)

// ListEntry is one title of a curated provider list.
type ListEntry struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Popularity float64 `json:"popularity"`
}

// FetchList walks a curated list endpoint (popular, top_rated, ...)
// page by page, sequentially, up to maxPages or the provider's own page
// count, whichever is smaller.
func (c *Client) FetchList(ctx context.Context, itemType dataset.ItemType, kind string, maxPages int) ([]ListEntry, error) {
	if maxPages <= 0 {
		maxPages = 1
	}

	var entries []ListEntry
	page := 1
	totalPages := 1

	for page <= totalPages && page <= maxPages {
		url := fmt.Sprintf("%s/%s/%s?page=%d", c.APIBase, detailPath(itemType), kind, page)
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		status, body, err := c.getJSON(req)
		if err != nil {
			return nil, fmt.Errorf("tmdb: list %s page %d: %w", kind, page, err)
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("tmdb: list %s page %d: unexpected status %d", kind, page, status)
		}

		results := gjson.GetBytes(body, "results")
		results.ForEach(func(_, v gjson.Result) bool {
			title := v.Get("title")
			if !title.Exists() {
				title = v.Get("name")
			}
			entries = append(entries, ListEntry{
				ID:         v.Get("id").Int(),
				Title:      title.Str,
				Popularity: dataset.Round2(v.Get("popularity").Float()),
			})
			return true
		})

		totalPages = int(gjson.GetBytes(body, "total_pages").Int())
		page++
	}

	return entries, nil
}
