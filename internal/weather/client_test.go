package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/weather-forecast", r.URL.Path)
		assert.Equal(t, "26.9", r.URL.Query().Get("lat"))
		assert.Equal(t, "75.78", r.URL.Query().Get("lon"))
		w.Write([]byte(`{"temp": 31.4, "description": "scattered clouds", "time": "2025-10-02T14:00:00Z", "wind_speed": 4.2, "visibility": 8000}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	require.True(t, c.Configured())

	fc, err := c.FetchForecast(context.Background(), 26.9, 75.78)
	require.NoError(t, err)
	assert.InDelta(t, 31.4, fc.Temp, 1e-9)
	assert.Equal(t, "scattered clouds", fc.Description)
	assert.InDelta(t, 4.2, fc.WindSpeed, 1e-9)
	assert.InDelta(t, 8000.0, fc.Visibility, 1e-9)
}

func TestFetchForecastNotConfigured(t *testing.T) {
	c := NewClient("", time.Second)
	assert.False(t, c.Configured())

	_, err := c.FetchForecast(context.Background(), 26.9, 75.78)
	require.Error(t, err)
}

func TestFetchForecastHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.FetchForecast(context.Background(), 26.9, 75.78)
	require.Error(t, err)
}
