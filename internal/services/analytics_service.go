package services

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"storepulse/internal/analytics"
	"storepulse/internal/exporter"
	"storepulse/internal/forecast"
	"storepulse/internal/infrastructure"
	"storepulse/internal/loader"
	"storepulse/internal/report"
	"storepulse/pkg/contracts/domain"
)

// AnalyticsService is the application core: it loads the order dataset,
// applies the hierarchical filters, and derives dashboards, customer
// segmentation, narrative reports, forecasts and exports.
type AnalyticsService struct {
	cache      *loader.Cache
	forecaster forecast.Forecaster
	reports    *ReportStore
	csv        *exporter.CSVWriter
	metrics    *infrastructure.BusinessMetrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewAnalyticsService wires the analytics core together. metrics may be nil
// when OTel is disabled; forecaster may be nil when no forecasting endpoint
// is configured.
func NewAnalyticsService(cache *loader.Cache, forecaster forecast.Forecaster,
	csv *exporter.CSVWriter, metrics *infrastructure.BusinessMetrics,
	logger *slog.Logger) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsService{
		cache:      cache,
		forecaster: forecaster,
		reports:    NewReportStore(),
		csv:        csv,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// FilterOptions lists the values available for each hierarchy level given
// the current working set, so clients can cascade their filter choices.
type FilterOptions struct {
	Regions []string `json:"regions"`
	States  []string `json:"states"`
	Cities  []string `json:"cities"`
}

// DashboardView bundles everything the dashboard shows for one filter
// state.
type DashboardView struct {
	Summary           domain.KPISummary      `json:"summary"`
	CategorySales     []domain.GroupTotal    `json:"category_sales"`
	RegionSales       []domain.GroupTotal    `json:"region_sales"`
	SegmentSales      []domain.GroupTotal    `json:"segment_sales"`
	SubCategoryProfit []domain.GroupTotal    `json:"sub_category_profit"`
	MonthlySales      []domain.GroupTotal    `json:"monthly_sales"`
	SubCategoryPivot  analytics.MonthlyPivot `json:"sub_category_pivot"`
	Filters           FilterOptions          `json:"filters"`
	RecordCount       int                    `json:"record_count"`
}

// RFMView is the customer segmentation result for one filter state.
type RFMView struct {
	Customers     []domain.CustomerSegment `json:"customers"`
	SegmentCounts []domain.GroupTotal      `json:"segment_counts"`
}

// workingSet loads the dataset through the cache and applies the filters.
func (s *AnalyticsService) workingSet(ctx context.Context, p analytics.FilterParams) (domain.WorkingSet, error) {
	records, err := s.cache.Records(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.ApplyFilters(records, p)
}

// Dashboard derives the KPI summary and every dashboard aggregate for the
// given filters.
func (s *AnalyticsService) Dashboard(ctx context.Context, p analytics.FilterParams) (*DashboardView, error) {
	ws, err := s.workingSet(ctx, p)
	if err != nil {
		return nil, err
	}

	view := &DashboardView{
		Summary:           analytics.Summarize(ws),
		CategorySales:     analytics.CategorySales(ws),
		RegionSales:       analytics.RegionSales(ws),
		SegmentSales:      analytics.SegmentSales(ws),
		SubCategoryProfit: analytics.SubCategoryProfit(ws),
		MonthlySales:      analytics.MonthlySeries(ws),
		SubCategoryPivot:  analytics.SubCategoryMonthlyPivot(ws),
		Filters: FilterOptions{
			Regions: analytics.DistinctValues(ws, func(r domain.Record) string { return r.Region }),
			States:  analytics.DistinctValues(ws, func(r domain.Record) string { return r.State }),
			Cities:  analytics.DistinctValues(ws, func(r domain.Record) string { return r.City }),
		},
		RecordCount: len(ws),
	}

	s.logger.DebugContext(ctx, "dashboard derived",
		slog.Int("records", len(ws)),
		slog.Float64("total_sales", view.Summary.TotalSales))
	return view, nil
}

// RFM segments the filtered customers by recency, frequency and monetary
// quartile scores.
func (s *AnalyticsService) RFM(ctx context.Context, p analytics.FilterParams) (*RFMView, error) {
	ws, err := s.workingSet(ctx, p)
	if err != nil {
		return nil, err
	}

	customers, err := analytics.SegmentCustomers(ws)
	if err != nil {
		return nil, err
	}
	return &RFMView{
		Customers:     customers,
		SegmentCounts: analytics.SegmentCounts(customers),
	}, nil
}

// GenerateReport derives the narrative report for the given filters and
// stores it for later PDF export.
func (s *AnalyticsService) GenerateReport(ctx context.Context, p analytics.FilterParams) (*report.Narrative, error) {
	ws, err := s.workingSet(ctx, p)
	if err != nil {
		return nil, err
	}

	narrative := report.Generate(ws, s.now().UTC())
	s.reports.Save(narrative)
	if s.metrics != nil {
		s.metrics.ReportsGenerated.Add(ctx, 1)
	}

	s.logger.InfoContext(ctx, "report generated",
		slog.String("report_id", narrative.ID),
		slog.Int("records", len(ws)))
	return narrative, nil
}

// Report returns a previously generated narrative by ID.
func (s *AnalyticsService) Report(ctx context.Context, id string) (*report.Narrative, error) {
	return s.reports.Get(id)
}

// ReportPDF renders a previously generated narrative as PDF bytes.
func (s *AnalyticsService) ReportPDF(ctx context.Context, id string) ([]byte, error) {
	narrative, err := s.reports.Get(id)
	if err != nil {
		return nil, err
	}

	data, err := report.ToPDF(ctx, narrative)
	if err != nil {
		return nil, fmt.Errorf("exporting report %s: %w", id, err)
	}
	if s.metrics != nil {
		s.metrics.PDFExportsTotal.Add(ctx, 1)
	}
	return data, nil
}

// Forecast projects the filtered monthly sales series horizon months
// ahead using the configured forecasting service.
func (s *AnalyticsService) Forecast(ctx context.Context, p analytics.FilterParams, horizon int) ([]forecast.Point, error) {
	if s.forecaster == nil {
		return nil, fmt.Errorf("%w: no forecaster configured", ErrInvalidInput)
	}
	if err := forecast.ValidateHorizon(horizon); err != nil {
		return nil, err
	}

	ws, err := s.workingSet(ctx, p)
	if err != nil {
		return nil, err
	}

	series, err := forecast.Reshape(analytics.MonthlySeries(ws))
	if err != nil {
		return nil, err
	}

	points, err := s.forecaster.Forecast(ctx, series, horizon)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ForecastRunsTotal.Add(ctx, 1)
	}
	return points, nil
}

// DownloadCSV renders one export table as CSV bytes for an HTTP download.
func (s *AnalyticsService) DownloadCSV(ctx context.Context, p analytics.FilterParams, table exporter.TableName) ([]byte, error) {
	ws, err := s.workingSet(ctx, p)
	if err != nil {
		return nil, err
	}

	t, err := exporter.BuildTable(table, ws)
	if err != nil {
		return nil, err
	}
	return s.csv.Render(t)
}

// ExportAll writes every export table to the CSV output directory and
// returns the written paths. Tables that cannot be derived from the
// current data, such as RFM on a too-small population, are skipped with
// a warning.
func (s *AnalyticsService) ExportAll(ctx context.Context, p analytics.FilterParams) ([]string, error) {
	ws, err := s.workingSet(ctx, p)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, name := range exporter.TableNames() {
		t, err := exporter.BuildTable(name, ws)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping export table",
				slog.String("table", string(name)),
				slog.String("error", err.Error()))
			continue
		}
		path, err := s.csv.WriteTable(string(name), t)
		if err != nil {
			return nil, fmt.Errorf("writing table %s: %w", name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
