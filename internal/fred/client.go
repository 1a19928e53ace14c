// Package fred is a minimal client for the FRED (Federal Reserve Economic
// Data) HTTP API, covering series metadata, observations, and search.
package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// SeriesInfo is the provider-reported description of a series.
type SeriesInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Frequency   string `json:"frequency"`
	Units       string `json:"units"`
	LastUpdated string `json:"last_updated"`
}

// Observation is one (date, value) point. Value is nil when the provider
// reports the date with its missing-value sentinel.
type Observation struct {
	Date  string
	Value *float64
}

// NotFoundError indicates the provider does not know the series.
type NotFoundError struct {
	SeriesID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("series %s not found", e.SeriesID)
}

// RequestError indicates a network, HTTP, or response-decoding failure.
type RequestError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fred %s: HTTP %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("fred %s: %v", e.Endpoint, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Client talks to the FRED API with a bounded per-request timeout and a
// mandatory minimum delay before every request.
type Client struct {
	apiKey    string
	baseURL   string
	rateLimit time.Duration
	client    *http.Client
}

// NewClient creates a FRED API client.
func NewClient(apiKey, baseURL string, timeout, rateLimit time.Duration) *Client {
	return &Client{
		apiKey:    apiKey,
		baseURL:   baseURL,
		rateLimit: rateLimit,
		client:    &http.Client{Timeout: timeout},
	}
}

// SeriesInfo fetches metadata for a series.
func (c *Client) SeriesInfo(ctx context.Context, seriesID string) (*SeriesInfo, error) {
	var result struct {
		Seriess []SeriesInfo `json:"seriess"`
	}
	params := url.Values{"series_id": {seriesID}}
	if err := c.get(ctx, "series", params, &result); err != nil {
		return nil, err
	}
	if len(result.Seriess) == 0 {
		return nil, &NotFoundError{SeriesID: seriesID}
	}
	return &result.Seriess[0], nil
}

// Observations fetches observations for a series from startDate onward
// (all available history when startDate is empty). The provider's "."
// sentinel is normalized to a nil value here and nowhere else.
func (c *Client) Observations(ctx context.Context, seriesID, startDate string) ([]Observation, error) {
	var result struct {
		Observations []struct {
			Date  string `json:"date"`
			Value string `json:"value"`
		} `json:"observations"`
	}

	params := url.Values{"series_id": {seriesID}}
	if startDate != "" {
		params.Set("observation_start", startDate)
	}
	if err := c.get(ctx, "series/observations", params, &result); err != nil {
		return nil, err
	}

	obs := make([]Observation, 0, len(result.Observations))
	for _, o := range result.Observations {
		value, err := parseValue(o.Value)
		if err != nil {
			return nil, &RequestError{
				Endpoint: "series/observations",
				Err:      fmt.Errorf("series %s date %s: %w", seriesID, o.Date, err),
			}
		}
		obs = append(obs, Observation{Date: o.Date, Value: value})
	}
	return obs, nil
}

// Search finds series matching the given text, most relevant first.
func (c *Client) Search(ctx context.Context, text string, limit int) ([]SeriesInfo, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var result struct {
		Seriess []SeriesInfo `json:"seriess"`
	}
	params := url.Values{
		"search_text": {text},
		"limit":       {strconv.Itoa(limit)},
	}
	if err := c.get(ctx, "series/search", params, &result); err != nil {
		return nil, err
	}
	return result.Seriess, nil
}

// get performs one rate-limited API request and decodes the JSON response.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	// FRED enforces per-key request caps; every request waits its turn.
	if c.rateLimit > 0 {
		select {
		case <-time.After(c.rateLimit):
		case <-ctx.Done():
			return &RequestError{Endpoint: endpoint, Err: ctx.Err()}
		}
	}

	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return &RequestError{Endpoint: endpoint, Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &RequestError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &RequestError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Endpoint: endpoint, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// parseValue converts a raw observation value, mapping the "." missing-data
// sentinel (and an empty string) to nil.
func parseValue(raw string) (*float64, error) {
	if raw == "." || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing value %q: %w", raw, err)
	}
	return &v, nil
}
