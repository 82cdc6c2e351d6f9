package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/cinedex/cinedex/pkg/dataset"
)

const (
	defaultAPIBase    = "https://api.themoviedb.org/3"
	defaultExportBase = "http://files.tmdb.org/p/exports"
)

// ErrNotFound signals that the provider has no detail resource for an
// id. Callers treat it as "no enrichment available", not as a failure.
var ErrNotFound = errors.New("tmdb: not found")

// Client talks to the TMDB REST API and its static export host.
type Client struct {
	Token      string
	APIBase    string
	ExportBase string
	HTTP       *retryablehttp.Client
}

// NewClient creates a client authenticated with the given bearer token.
func NewClient(token string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = log.New(io.Discard, "", 0)
	retryClient.RetryMax = 3
	retryClient.HTTPClient.Timeout = 30 * time.Second

	return &Client{
		Token:      token,
		APIBase:    defaultAPIBase,
		ExportBase: defaultExportBase,
		HTTP:       retryClient,
	}
}

func detailPath(itemType dataset.ItemType) string {
	if itemType == dataset.Series {
		return "tv"
	}
	return "movie"
}

func (c *Client) getJSON(req *retryablehttp.Request) (int, []byte, error) {
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

// FetchDetail looks up one title and normalizes it into a Record. The
// year comes from the first four characters of the release date (first
// air date for series) and stays nil when the provider has no date.
func (c *Client) FetchDetail(ctx context.Context, itemType dataset.ItemType, id int64) (dataset.Record, error) {
	url := fmt.Sprintf("%s/%s/%d", c.APIBase, detailPath(itemType), id)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return dataset.Record{}, err
	}

	status, body, err := c.getJSON(req)
	if err != nil {
		return dataset.Record{}, err
	}
	if status == http.StatusNotFound {
		return dataset.Record{}, ErrNotFound
	}
	if status != http.StatusOK {
		return dataset.Record{}, fmt.Errorf("tmdb: detail %s/%d: unexpected status %d", detailPath(itemType), id, status)
	}

	title := gjson.GetBytes(body, "title")
	if !title.Exists() {
		title = gjson.GetBytes(body, "name")
	}
	date := gjson.GetBytes(body, "release_date")
	if !date.Exists() {
		date = gjson.GetBytes(body, "first_air_date")
	}

	var year *int
	if len(date.Str) >= 4 {
		if y, convErr := strconv.Atoi(date.Str[:4]); convErr == nil {
			year = &y
		}
	}

	return dataset.Record{
		ID:         id,
		Title:      title.Str,
		Year:       year,
		Popularity: dataset.Round2(gjson.GetBytes(body, "popularity").Float()),
	}, nil
}
