package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"storepulse/internal/analytics"
	apierrors "storepulse/internal/errors"
	"storepulse/internal/exporter"
	"storepulse/internal/forecast"
	"storepulse/internal/loader"
	"storepulse/internal/report"
	"storepulse/internal/services"
)

// filterDateLayout is the wire format for the start and end query
// parameters.
const filterDateLayout = "2006-01-02"

// AnalyticsHandler exposes the analytics core over HTTP.
type AnalyticsHandler struct {
	service  *services.AnalyticsService
	logger   *slog.Logger
	validate *validator.Validate
}

// NewAnalyticsHandler creates the analytics handler.
func NewAnalyticsHandler(service *services.AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:  service,
		logger:   logger.With(slog.String("component", "analytics_handler")),
		validate: validator.New(),
	}
}

// Routes returns the analytics routes.
func (h *AnalyticsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/dashboard", h.GetDashboard)
	r.Get("/rfm", h.GetRFM)

	r.Post("/report", h.GenerateReport)
	r.Route("/report/{reportID}", func(r chi.Router) {
		r.Get("/", h.GetReport)
		r.Get("/pdf", h.DownloadReportPDF)
	})

	r.Post("/forecast", h.RunForecast)
	r.Get("/download/{table}", h.DownloadTable)

	return r
}

// filterParams reads the shared filter query parameters: start and end
// dates plus repeated region, state and city selections.
func filterParams(r *http.Request) (analytics.FilterParams, error) {
	q := r.URL.Query()
	p := analytics.FilterParams{
		Regions: q["region"],
		States:  q["state"],
		Cities:  q["city"],
	}

	if s := q.Get("start"); s != "" {
		t, err := time.Parse(filterDateLayout, s)
		if err != nil {
			return p, fmt.Errorf("invalid start date %q: %w", s, err)
		}
		p.Start = t
	}
	if s := q.Get("end"); s != "" {
		t, err := time.Parse(filterDateLayout, s)
		if err != nil {
			return p, fmt.Errorf("invalid end date %q: %w", s, err)
		}
		p.End = t
	}
	return p, nil
}

// GetDashboard handles GET /api/dashboard
func (h *AnalyticsHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	p, err := filterParams(r)
	if err != nil {
		h.renderError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	view, err := h.service.Dashboard(r.Context(), p)
	if err != nil {
		h.renderError(w, r, h.mapError(r, err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, view)
}

// GetRFM handles GET /api/rfm
func (h *AnalyticsHandler) GetRFM(w http.ResponseWriter, r *http.Request) {
	p, err := filterParams(r)
	if err != nil {
		h.renderError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	view, err := h.service.RFM(r.Context(), p)
	if err != nil {
		h.renderError(w, r, h.mapError(r, err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, view)
}

// reportResponse pairs the structured narrative with its markdown
// rendering so clients can show either form.
type reportResponse struct {
	*report.Narrative
	Markdown string `json:"markdown"`
}

// GenerateReport handles POST /api/report
func (h *AnalyticsHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	p, err := filterParams(r)
	if err != nil {
		h.renderError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	narrative, err := h.service.GenerateReport(r.Context(), p)
	if err != nil {
		h.renderError(w, r, h.mapError(r, err))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, reportResponse{Narrative: narrative, Markdown: narrative.Markdown()})
}

// GetReport handles GET /api/report/{reportID}
func (h *AnalyticsHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	narrative, err := h.service.Report(r.Context(), chi.URLParam(r, "reportID"))
	if err != nil {
		h.renderError(w, r, h.mapError(r, err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, reportResponse{Narrative: narrative, Markdown: narrative.Markdown()})
}

// DownloadReportPDF handles GET /api/report/{reportID}/pdf
func (h *AnalyticsHandler) DownloadReportPDF(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ReportPDF(r.Context(), chi.URLParam(r, "reportID"))
	if err != nil {
		h.renderError(w, r, h.mapError(r, err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", report.PDFFilename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// forecastRequest is the POST /api/forecast body.
type forecastRequest struct {
	Periods int `json:"periods" validate:"required,min=1,max=12"`
}

// RunForecast handles POST /api/forecast
func (h *AnalyticsHandler) RunForecast(w http.ResponseWriter, r *http.Request) {
	p, err := filterParams(r)
	if err != nil {
		h.renderError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	var req forecastRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.renderError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.renderError(w, r, apierrors.ErrValidation("periods",
			fmt.Sprintf("periods must be between %d and %d", forecast.MinHorizon, forecast.MaxHorizon)))
		return
	}

	points, err := h.service.Forecast(r.Context(), p, req.Periods)
	if err != nil {
		h.renderError(w, r, h.mapError(r, err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]interface{}{"points": points})
}

// DownloadTable handles GET /api/download/{table}
func (h *AnalyticsHandler) DownloadTable(w http.ResponseWriter, r *http.Request) {
	p, err := filterParams(r)
	if err != nil {
		h.renderError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	table := exporter.TableName(chi.URLParam(r, "table"))
	if !validTable(table) {
		h.renderError(w, r, apierrors.ErrValidation("table",
			fmt.Sprintf("unknown export table %q", table)))
		return
	}

	data, err := h.service.DownloadCSV(r.Context(), p, table)
	if err != nil {
		h.renderError(w, r, h.mapError(r, err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", string(table)+".csv"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func validTable(name exporter.TableName) bool {
	for _, t := range exporter.TableNames() {
		if t == name {
			return true
		}
	}
	return false
}

// mapError converts service-layer errors to API errors.
func (h *AnalyticsHandler) mapError(r *http.Request, err error) *apierrors.APIError {
	switch {
	case errors.Is(err, analytics.ErrInvalidRange):
		return apierrors.ErrInvalidDateRange
	case errors.Is(err, forecast.ErrInvalidHorizon):
		return apierrors.InvalidRequestWithError(err)
	case errors.Is(err, services.ErrReportNotFound):
		return apierrors.NotFoundError("report")
	case errors.Is(err, analytics.ErrInsufficientData),
		errors.Is(err, forecast.ErrSeriesTooShort):
		return apierrors.InsufficientDataError(err.Error())
	case errors.Is(err, loader.ErrSourceUnavailable):
		return apierrors.DataSourceError(err)
	case errors.Is(err, services.ErrInvalidInput):
		return apierrors.InvalidRequestWithError(err)
	case errors.Is(err, forecast.ErrForecasterUnavailable):
		return apierrors.ForecasterError(err)
	default:
		h.logger.ErrorContext(r.Context(), "unhandled service error",
			slog.String("error", err.Error()))
		return apierrors.ErrInternalServer
	}
}

func (h *AnalyticsHandler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	if err := render.Render(w, r, apierrors.NewErrorResponse(apiErr)); err != nil {
		apierrors.WriteError(w, apiErr)
	}
}
