// Package risk queries the external risk-scoring service and decides when
// queries are allowed to fire.
package risk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"road-monitor/internal/domain"
)

// DefaultSpeedKmh is used for manual point-of-interest checks when no
// live speed estimate exists.
const DefaultSpeedKmh = 40

// ErrNotConfigured is returned when no service endpoint is configured.
// Fatal to risk queries, but not to position/speed tracking.
var ErrNotConfigured = errors.New("risk service endpoint not configured")

// StatusError reports an HTTP-level failure from the scoring service.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("risk service returned HTTP %d", e.StatusCode)
}

// FailureKind buckets query failures into the user-legible states the UI
// distinguishes. None of them end a tracking session; the next throttle
// window retries independently.
type FailureKind string

const (
	FailureNone    FailureKind = ""
	FailureConfig  FailureKind = "not_configured"
	FailureHTTP    FailureKind = "http_error"
	FailureNetwork FailureKind = "unreachable"
)

// Classify maps a FetchReport error to its failure kind.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrNotConfigured):
		return FailureConfig
	default:
		var se *StatusError
		if errors.As(err, &se) {
			return FailureHTTP
		}
		return FailureNetwork
	}
}

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a scoring-service client. An empty baseURL is valid;
// every fetch then fails with ErrNotConfigured. The timeout covers the
// scoring backend's cold-start latency.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchReport queries the service for (lat, lon, speed) and decodes the
// risk report. Speed is sent as a rounded integer in km/h.
func (c *Client) FetchReport(ctx context.Context, lat, lon float64, speedKmh int) (*domain.RiskReport, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("speed", strconv.Itoa(speedKmh))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/risk?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build risk request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("risk request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var report domain.RiskReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode risk report: %w", err)
	}

	return &report, nil
}
