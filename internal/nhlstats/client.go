// Package nhlstats pulls season summaries from the public NHL stats REST API
// and turns them into the player dataset the game loads.
package nhlstats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.nhle.com/stats/rest/en"

// PageLimit is the largest page the API reliably serves; asking for more
// silently truncates and ends paging early.
const PageLimit = 500

const GameTypeRegularSeason = 2

// Row is one record of a summary report. Field names vary between reports.
type Row map[string]any

type Client struct {
	BaseURL    string
	Limit      int
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(baseURL string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		BaseURL:    baseURL,
		Limit:      PageLimit,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

func (c *Client) Skaters(ctx context.Context, season string) ([]Row, error) {
	return c.fetchPaged(ctx, "skater", season)
}

func (c *Client) Goalies(ctx context.Context, season string) ([]Row, error) {
	return c.fetchPaged(ctx, "goalie", season)
}

// fetchPaged walks start offsets until a short page comes back. Rows are
// sorted by playerId so pages stay stable.
func (c *Client) fetchPaged(ctx context.Context, report, season string) ([]Row, error) {
	limit := c.limit()
	var all []Row
	for start := 0; ; start += limit {
		rows, err := c.page(ctx, report, season, start)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
		if len(rows) < limit {
			c.log.Info("fetched report",
				zap.String("report", report),
				zap.String("season", season),
				zap.Int("rows", len(all)))
			return all, nil
		}
	}
}

func (c *Client) limit() int {
	if c.Limit <= 0 {
		return PageLimit
	}
	return c.Limit
}

func (c *Client) page(ctx context.Context, report, season string, start int) ([]Row, error) {
	q := url.Values{}
	q.Set("isAggregate", "false")
	q.Set("isGame", "false")
	q.Set("sort", `[{"property":"playerId","direction":"ASC"}]`)
	q.Set("cayenneExp", fmt.Sprintf("gameTypeId=%d and seasonId=%s", GameTypeRegularSeason, season))
	q.Set("start", strconv.Itoa(start))
	q.Set("limit", strconv.Itoa(c.limit()))
	u := fmt.Sprintf("%s/%s/summary?%s", c.BaseURL, report, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("fetch %s summary failed: status %d: %s", report, resp.StatusCode, body)
	}

	var payload struct {
		Data []Row `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("error decoding %s summary: %w", report, err)
	}
	return payload.Data, nil
}
