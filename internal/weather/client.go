// Package weather fetches the optional informational forecast for the
// current position.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"road-monitor/internal/domain"
)

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a forecast client. The forecast is purely
// informational: callers absorb fetch errors without surfacing them.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a forecast endpoint is set.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// FetchForecast queries the forecast for (lat, lon).
func (c *Client) FetchForecast(ctx context.Context, lat, lon float64) (*domain.WeatherForecast, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("weather endpoint not configured")
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/weather-forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build forecast request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("forecast service returned HTTP %d", resp.StatusCode)
	}

	var fc domain.WeatherForecast
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}

	return &fc, nil
}
