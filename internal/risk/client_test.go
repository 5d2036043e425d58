package risk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"road-monitor/internal/domain"
	"road-monitor/internal/timeutil"
)

func TestFetchReportDecodesResponse(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/risk", r.URL.Path)
		gotQuery = map[string]string{
			"lat":   r.URL.Query().Get("lat"),
			"lon":   r.URL.Query().Get("lon"),
			"speed": r.URL.Query().Get("speed"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"overall_risk_score": 90,
			"risk_level": "Bad",
			"factors": {
				"accident_hotspot": {"score": 95, "label": "Very High", "message": "18 accidents reported nearby"},
				"weather": {"score": 40, "description": "Light rain"},
				"current_speed": {"score": 80, "speed_kmh": 95, "message": "Excessive speed"}
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	report, err := c.FetchReport(context.Background(), 26.9124, 75.7873, 62)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"lat":   "26.9124",
		"lon":   "75.7873",
		"speed": "62",
	}, gotQuery)

	want := &domain.RiskReport{
		OverallRiskScore: 90,
		RiskLevel:        "Bad",
		Factors: domain.RiskFactors{
			AccidentHotspot: domain.HotspotFactor{Score: 95, Label: "Very High", Message: "18 accidents reported nearby"},
			Weather:         domain.WeatherFactor{Score: 40, Description: "Light rain"},
			CurrentSpeed:    domain.SpeedFactor{Score: 80, SpeedKmh: 95, Message: "Excessive speed"},
		},
	}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchReportNotConfigured(t *testing.T) {
	c := NewClient("", time.Second)
	_, err := c.FetchReport(context.Background(), 26.9, 75.78, 40)
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, FailureConfig, Classify(err))
}

func TestFetchReportHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.FetchReport(context.Background(), 26.9, 75.78, 40)
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, FailureHTTP, Classify(err))
}

func TestFetchReportUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL, time.Second)
	_, err := c.FetchReport(context.Background(), 26.9, 75.78, 40)
	require.Error(t, err)
	assert.Equal(t, FailureNetwork, Classify(err))
}

func TestClassifyNil(t *testing.T) {
	assert.Equal(t, FailureNone, Classify(nil))
}

func TestThrottleWindow(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1_700_000_000, 0))
	th := NewThrottle(clock, QueryWindow)

	// t=0 fires, t=2s suppressed, t=6s fires.
	assert.True(t, th.Allow())
	clock.Advance(2 * time.Second)
	assert.False(t, th.Allow())
	clock.Advance(4 * time.Second)
	assert.True(t, th.Allow())
}

func TestThrottleExactBoundarySuppressed(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1_700_000_000, 0))
	th := NewThrottle(clock, QueryWindow)

	require.True(t, th.Allow())
	clock.Advance(QueryWindow)
	// Window must be strictly exceeded.
	assert.False(t, th.Allow())
	clock.Advance(time.Millisecond)
	assert.True(t, th.Allow())
}

func TestThrottleReset(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1_700_000_000, 0))
	th := NewThrottle(clock, QueryWindow)

	require.True(t, th.Allow())
	require.False(t, th.Allow())

	th.Reset()
	assert.True(t, th.Allow())
}

func TestSuppressedAttemptDoesNotAdvanceWindow(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1_700_000_000, 0))
	th := NewThrottle(clock, QueryWindow)

	require.True(t, th.Allow())
	clock.Advance(3 * time.Second)
	require.False(t, th.Allow())
	clock.Advance(2*time.Second + time.Millisecond)
	// 5.001 s after the last *fired* query, not after the suppressed one.
	assert.True(t, th.Allow())
}
