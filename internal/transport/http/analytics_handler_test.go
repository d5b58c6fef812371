package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepulse/internal/exporter"
	"storepulse/internal/forecast"
	"storepulse/internal/loader"
	"storepulse/internal/services"
	"storepulse/pkg/contracts/domain"
)

type staticSource struct {
	records []domain.Record
	err     error
}

func (s *staticSource) Fetch(ctx context.Context) ([]domain.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func (s *staticSource) Location() string { return "static" }

type staticForecaster struct {
	points []forecast.Point
	err    error
}

func (f *staticForecaster) Forecast(ctx context.Context, series []forecast.Observation, horizon int) ([]forecast.Point, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.points, nil
}

func handlerRecords() []domain.Record {
	base := time.Date(2023, time.January, 10, 0, 0, 0, 0, time.UTC)
	return []domain.Record{
		{OrderID: "O-1", CustomerID: "C-1", OrderDate: base,
			Region: "East", State: "New York", City: "Buffalo", Segment: "Consumer",
			Category: "Technology", SubCategory: "Phones", Sales: 500, Profit: 100, Quantity: 1},
		{OrderID: "O-2", CustomerID: "C-2", OrderDate: base.AddDate(0, 1, 5),
			Region: "West", State: "California", City: "Los Angeles", Segment: "Corporate",
			Category: "Furniture", SubCategory: "Tables", Sales: 300, Profit: -50, Quantity: 2},
	}
}

func newTestHandler(t *testing.T, src loader.Source) *AnalyticsHandler {
	t.Helper()
	cache := loader.NewCache(src, time.Hour)
	csv := exporter.NewCSVWriter(t.TempDir(), true)
	f := &staticForecaster{points: []forecast.Point{
		{Timestamp: time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC), Estimate: 400, Lower: 350, Upper: 450},
	}}
	svc := services.NewAnalyticsService(cache, f, csv, nil, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAnalyticsHandler(svc, logger)
}

func TestGetDashboard(t *testing.T) {
	h := newTestHandler(t, &staticSource{records: handlerRecords()})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var view services.DashboardView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 2, view.RecordCount)
	assert.InDelta(t, 800.0, view.Summary.TotalSales, 1e-9)
}

func TestGetDashboardWithFilters(t *testing.T) {
	h := newTestHandler(t, &staticSource{records: handlerRecords()})

	req := httptest.NewRequest(http.MethodGet, "/dashboard?region=East&start=2023-01-01&end=2023-12-31", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var view services.DashboardView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 1, view.RecordCount)
}

func TestGetDashboardInvalidDate(t *testing.T) {
	h := newTestHandler(t, &staticSource{records: handlerRecords()})

	req := httptest.NewRequest(http.MethodGet, "/dashboard?start=01-02-2023", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDashboardInvertedRange(t *testing.T) {
	h := newTestHandler(t, &staticSource{records: handlerRecords()})

	req := httptest.NewRequest(http.MethodGet, "/dashboard?start=2023-12-01&end=2023-01-01", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDashboardSourceUnavailable(t *testing.T) {
	h := newTestHandler(t, &staticSource{err: loader.ErrSourceUnavailable})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetRFMInsufficientData(t *testing.T) {
	h := newTestHandler(t, &staticSource{records: handlerRecords()})

	req := httptest.NewRequest(http.MethodGet, "/rfm", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestReportLifecycle(t *testing.T) {
	h := newTestHandler(t, &staticSource{records: handlerRecords()})
	router := h.Routes()

	req := httptest.NewRequest(http.MethodPost, "/report", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID       string `json:"id"`
		Markdown string `json:"markdown"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Contains(t, created.Markdown, "Automated Sales & Profit Analysis Report")

	req = httptest.NewRequest(http.MethodGet, "/report/"+created.ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/report/"+created.ID+"/pdf", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Superstore_Analysis_Report.pdf")
	assert.Equal(t, "%PDF", rec.Body.String()[:4])
}

func TestGetReportNotFound(t *testing.T) {
	h := newTestHandler(t, &staticSource{records: handlerRecords()})

	req := httptest.NewRequest(http.MethodGet, "/report/unknown-id", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunForecast(t *testing.T) {
	h := newTestHandler(t, &staticSource{records: handlerRecords()})

	body := strings.NewReader(`{"periods": 3}`)
	req := httptest.NewRequest(http.MethodPost, "/forecast", body)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Points []forecast.Point `json:"points"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Points, 1)
	assert.Equal(t, 400.0, resp.Points[0].Estimate)
}

func TestRunForecastInvalidPeriods(t *testing.T) {
	h := newTestHandler(t, &staticSource{records: handlerRecords()})

	for _, body := range []string{`{"periods": 0}`, `{"periods": 13}`, `{}`} {
		req := httptest.NewRequest(http.MethodPost, "/forecast", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

func TestRunForecastUpstreamFailure(t *testing.T) {
	cache := loader.NewCache(&staticSource{records: handlerRecords()}, time.Hour)
	csv := exporter.NewCSVWriter(t.TempDir(), true)
	f := &staticForecaster{err: fmt.Errorf("%w: status 500", forecast.ErrForecasterUnavailable)}
	svc := services.NewAnalyticsService(cache, f, csv, nil, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewAnalyticsHandler(svc, logger)

	req := httptest.NewRequest(http.MethodPost, "/forecast", strings.NewReader(`{"periods": 3}`))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORECASTER_FAILED")
}

func TestDownloadTable(t *testing.T) {
	h := newTestHandler(t, &staticSource{records: handlerRecords()})

	req := httptest.NewRequest(http.MethodGet, "/download/category_sales", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "category_sales.csv")
	assert.Contains(t, rec.Body.String(), "Technology,500.00")
}

func TestDownloadUnknownTable(t *testing.T) {
	h := newTestHandler(t, &staticSource{records: handlerRecords()})

	req := httptest.NewRequest(http.MethodGet, "/download/bogus", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHealthHandler(logger, "1.0.0")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "1.0.0", resp["version"])
}
