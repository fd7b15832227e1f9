// Package stats implements the HTTP client for the analytics collaborator
// that records endpoint hits and serves aggregated view counts.
package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"afisha/internal/domain"
)

// timeLayout is the wire format the stats service expects for time bounds.
const timeLayout = "2006-01-02 15:04:05"

type httpClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient returns a StatsClient that calls the stats service at baseURL.
func NewHTTPClient(baseURL string, client *http.Client) domain.StatsClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpClient{baseURL: baseURL, client: client}
}

func (c *httpClient) RecordHit(ctx context.Context, hit domain.EndpointHit) error {
	payload := struct {
		App       string `json:"app"`
		URI       string `json:"uri"`
		IP        string `json:"ip"`
		Timestamp string `json:"timestamp"`
	}{
		App:       hit.App,
		URI:       hit.URI,
		IP:        hit.IP,
		Timestamp: hit.Timestamp.Format(timeLayout),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode hit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/hit", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post hit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("stats service returned status: %d", resp.StatusCode)
	}
	return nil
}

func (c *httpClient) QueryStats(ctx context.Context, start, end time.Time, uris []string, unique bool) ([]domain.ViewStats, error) {
	q := url.Values{}
	q.Set("start", start.Format(timeLayout))
	q.Set("end", end.Format(timeLayout))
	q.Set("unique", strconv.FormatBool(unique))
	for _, u := range uris {
		q.Add("uris", u)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats service returned status: %d", resp.StatusCode)
	}

	var data []domain.ViewStats
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode stats response: %w", err)
	}
	return data, nil
}
