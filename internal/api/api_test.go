package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/dealbook/config"
	"github.com/rustyeddy/dealbook/deal"
	"github.com/rustyeddy/dealbook/internal/metrics"
	"github.com/rustyeddy/dealbook/internal/service"
)

type fakeSource struct {
	deals     []deal.Deal
	positions []deal.OpenPosition
	err       error
}

func (f *fakeSource) FetchDeals(context.Context, time.Time, time.Time) ([]deal.Deal, error) {
	return f.deals, f.err
}

func (f *fakeSource) FetchPositions(context.Context) ([]deal.OpenPosition, error) {
	return f.positions, f.err
}

var testNow = time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)

func at(day, hour int) time.Time {
	return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
}

func sampleSource() *fakeSource {
	return &fakeSource{
		deals: []deal.Deal{
			{ID: 1, Time: at(1, 0), Type: deal.BalanceChange, Profit: 1000},
			{ID: 2, PositionID: 10, Time: at(4, 9), Type: deal.Buy, Entry: deal.In, Symbol: "EURUSD", Magic: 7, Volume: 1, Price: 1.1},
			{ID: 3, PositionID: 10, Time: at(4, 11), Type: deal.Sell, Entry: deal.Out, Symbol: "EURUSD", Volume: 1, Price: 1.105, Profit: 50},
			{ID: 4, PositionID: 11, Time: at(4, 12), Type: deal.Sell, Entry: deal.In, Symbol: "GBPUSD", Magic: 8, Volume: 1, Price: 1.27},
			{ID: 5, PositionID: 11, Time: at(4, 13), Type: deal.Buy, Entry: deal.Out, Symbol: "GBPUSD", Magic: 8, Volume: 1, Price: 1.28, Profit: -20},
		},
		positions: []deal.OpenPosition{
			{Ticket: 30, Symbol: "USDJPY", Type: deal.Sell, Magic: 7, Profit: 10.3},
		},
	}
}

type harness struct {
	srv     *Server
	metrics *metrics.Metrics
}

func newHarness(t *testing.T, src *fakeSource) harness {
	t.Helper()

	cfg := config.Default()
	cfg.Time.LocalTimeshiftHours = 0
	reports := service.New(cfg, src,
		service.WithPositions(src),
		service.WithClock(func() time.Time { return testNow }),
	)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	srv, err := NewServer(Deps{Config: cfg, Reports: reports, Metrics: m, Gatherer: reg})
	require.NoError(t, err)
	return harness{srv: srv, metrics: m}
}

func (h harness) get(t *testing.T, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(w, req)

	var body map[string]any
	if w.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	}
	return w, body
}

func TestNewServerRequiresReports(t *testing.T) {
	t.Parallel()

	_, err := NewServer(Deps{})
	assert.ErrorIs(t, err, ErrNoReports)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	w, body := newHarness(t, sampleSource()).get(t, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestProfits(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sampleSource())
	w, body := h.get(t, "/api/42/profits?sort=magics")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, "60", w.Header().Get("Refresh"))
	assert.Equal(t, "42", body["account"])
	assert.Equal(t, "individual", body["view"])
	assert.Equal(t, 30.0, body["total"])
	assert.Equal(t, 1000.0, body["start_balance"])
	assert.Equal(t, 10.3, body["floating"])
	assert.NotEmpty(t, body["id"])

	rows, ok := body["rows"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 2)
	first := rows[0].(map[string]any)
	assert.Equal(t, 7.0, first["id"])
	assert.Equal(t, 50.0, first["value"])

	assert.Equal(t, 1.0, testutil.ToFloat64(
		h.metrics.HTTPRequests.WithLabelValues("/api/{account}/profits", "200")))
}

func TestProfitsBadRequests(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sampleSource())
	tests := []struct {
		name   string
		target string
	}{
		{"unknown sort", "/api/42/profits?sort=size"},
		{"unknown view", "/api/42/profits?view=stacked"},
		{"unknown preset", "/api/42/profits?preset=yesterday"},
		{"bad date", "/api/42/profits?from=last-week"},
		{"reversed window", "/api/42/profits?from=2024-03-05&to=2024-03-04"},
		{"reversed hours window", "/api/42/hours?from=2024-03-05&to=2024-03-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := h.get(t, tt.target)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "bad_request", body["code"])
		})
	}
}

func TestProfitsFetchFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &fakeSource{err: errors.New("pipe closed")})
	w, body := h.get(t, "/api/42/profits")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "fetch_failed", body["code"])
}

func TestProfitsExplicitWindow(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sampleSource())
	w, body := h.get(t, "/api/42/profits?from=2024-03-04&to=2024-03-04%2012:00:00")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50.0, body["total"])

	// A bare end date covers the whole day.
	_, body = h.get(t, "/api/42/profits?from=2024-03-04&to=2024-03-04")
	assert.Equal(t, 30.0, body["total"])
}

func TestSymbols(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sampleSource())
	w, body := h.get(t, "/api/42/profits/magic/8/symbols")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "magic:8", body["key"])

	symbols := body["symbols"].([]any)
	require.Len(t, symbols, 1)
	assert.Equal(t, "GBPUSD", symbols[0].(map[string]any)["symbol"])

	w, _ = h.get(t, "/api/42/profits/position/8/symbols")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimeline(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sampleSource())
	w, body := h.get(t, "/api/42/timeline?magics=7")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	periods := body["periods"].([]any)
	require.Len(t, periods, 3)
	open := periods[1].(map[string]any)
	positions := open["positions"].([]any)
	require.Len(t, positions, 1)
	pos := positions[0].(map[string]any)
	assert.Equal(t, 10.0, pos["position_id"])
	assert.Equal(t, "Buy", pos["type"])
	assert.Equal(t, 1050.0, periods[2].(map[string]any)["balance"])

	w, _ = h.get(t, "/api/42/timeline?magics=7,x")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBalance(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sampleSource())

	_, body := h.get(t, "/api/42/balance?at=2024-03-04T12:00:00&mode=start_of_day")
	assert.Equal(t, 1000.0, body["balance"])
	assert.Equal(t, "start_of_day", body["mode"])

	_, body = h.get(t, "/api/42/balance")
	assert.Equal(t, 1030.0, body["balance"])
	assert.Equal(t, "exact", body["mode"])

	w, _ := h.get(t, "/api/42/balance?mode=noon")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHours(t *testing.T) {
	t.Parallel()

	_, body := newHarness(t, sampleSource()).get(t, "/api/42/hours")
	hours := body["hours"].([]any)
	require.Len(t, hours, 24)
	assert.Equal(t, 1.0, hours[9])
	assert.Equal(t, 0.0, hours[0])
}

func TestFloating(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sampleSource())
	w, body := h.get(t, "/api/42/floating?magic=7")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 10.3, body["total"])
	assert.Equal(t, 1.0, body["pct"])
	assert.Equal(t, "lime", body["color"])
	breakdown := body["breakdown"].([]any)
	require.Len(t, breakdown, 1)
	assert.Equal(t, "Sell", breakdown[0].(map[string]any)["type"])

	w, _ = h.get(t, "/api/42/floating?magic=seven")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sampleSource())
	h.get(t, "/healthz")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	out, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(out), `dealbook_api_requests_total{code="200",route="/healthz"} 1`)
}
