// Package holiday resolves public holidays for the calendar view.
package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// DefaultEndpoint serves Japanese public holidays as {"YYYY-MM-DD": "name"}.
const DefaultEndpoint = "https://holidays-jp.github.io/api/v1/{year}/date.json"

// Provider returns the holidays of a year keyed by YYYY-MM-DD.
type Provider interface {
	Holidays(ctx context.Context, year int) (map[string]string, error)
}

// Client fetches holidays over HTTP. The endpoint may contain a {year}
// placeholder.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string
}

func NewClient(httpClient *http.Client, logger *slog.Logger, endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   endpoint,
	}
}

// Holidays fetches the holidays of year. Entries outside the year are dropped.
func (c *Client) Holidays(ctx context.Context, year int) (map[string]string, error) {
	reqURL := strings.ReplaceAll(c.endpoint, "{year}", strconv.Itoa(year))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build holiday request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("holiday API request failed",
			slog.String("error", err.Error()),
			slog.Int("year", year),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("holiday API returned error status",
			slog.Int("http_status", resp.StatusCode),
			slog.Int("year", year),
		)
		return nil, fmt.Errorf("holiday API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read holiday response: %w", err)
	}

	var all map[string]string
	if err := json.Unmarshal(body, &all); err != nil {
		c.logger.Warn("holiday API response is not valid JSON",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("decode holiday response: %w", err)
	}

	prefix := strconv.Itoa(year) + "-"
	holidays := make(map[string]string, len(all))
	for date, name := range all {
		if strings.HasPrefix(date, prefix) {
			holidays[date] = name
		}
	}

	return holidays, nil
}

// None is a Provider with no holidays.
type None struct{}

func (None) Holidays(context.Context, int) (map[string]string, error) {
	return map[string]string{}, nil
}
