package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"storepulse/internal/config"
	"storepulse/internal/exporter"
	"storepulse/internal/forecast"
	"storepulse/internal/infrastructure"
	"storepulse/internal/loader"
	customMiddleware "storepulse/internal/middleware"
	"storepulse/internal/services"
	handlers "storepulse/internal/transport/http"
)

const (
	Version = "1.0.0"
	AppName = "StorePulse - Superstore Sales Analytics"
)

// Application is the assembled service: configuration, wiring and the HTTP
// server.
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Analytics     *services.AnalyticsService
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
}

// NewApplication loads configuration and wires every component together.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", Version))

	otelCfg := infrastructure.DefaultOTelConfig()
	otelCfg.ServiceVersion = Version
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	source, err := buildSource(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}
	cache := loader.NewCache(source, cfg.DataSource.CacheTTL)
	cache.SetMetrics(metrics)

	var forecaster forecast.Forecaster
	if cfg.Forecast.Endpoint != "" {
		forecaster = forecast.NewHTTPForecaster(cfg.Forecast.Endpoint, cfg.Forecast.Timeout)
	} else {
		logger.Warn("no forecast endpoint configured, forecasting disabled")
	}

	csv := exporter.NewCSVWriter(cfg.Export.OutputDir, cfg.Export.CSVBOM)
	analytics := services.NewAnalyticsService(cache, forecaster, csv, metrics, logger)

	app := &Application{
		Config:        cfg,
		Analytics:     analytics,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
	}
	app.Router = app.buildRouter()
	app.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        app.Router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}
	return app, nil
}

// buildSource picks the order data source: a Google Sheets spreadsheet when
// configured, otherwise the local workbook.
func buildSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (loader.Source, error) {
	ds := cfg.DataSource
	if ds.SpreadsheetID != "" {
		logger.Info("using Google Sheets data source",
			slog.String("spreadsheet_id", ds.SpreadsheetID),
			slog.String("sheet", ds.SheetName))
		source, err := loader.NewSheetsSource(ctx, ds.SpreadsheetID, ds.SheetName, ds.APIKey, ds.FetchTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets source: %w", err)
		}
		return source, nil
	}

	logger.Info("using workbook data source",
		slog.String("path", ds.WorkbookPath),
		slog.String("sheet", ds.SheetName))
	return loader.NewWorkbookSource(ds.WorkbookPath, ds.SheetName), nil
}

func (app *Application) buildRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(app.Logger))
	r.Use(customMiddleware.Recoverer(app.Logger))
	r.Use(customMiddleware.Metrics(app.Metrics))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(60 * time.Second))

	if app.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins:   app.Config.Security.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
			Logger:           app.Logger,
		}))
	}
	if app.Config.Security.RateLimit.Enabled {
		limiter := customMiddleware.NewRateLimiter(
			app.Config.Security.RateLimit.RPS,
			app.Config.Security.RateLimit.Burst,
			app.Logger)
		r.Use(limiter.Handler)
	}

	analyticsHandler := handlers.NewAnalyticsHandler(app.Analytics, app.Logger)
	healthHandler := handlers.NewHealthHandler(app.Logger, Version)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/", analyticsHandler.Routes())
		r.Mount("/health", healthHandler.Routes())
	})
	if app.OTelProviders != nil && app.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", app.OTelProviders.PrometheusHTTP)
	}
	return r
}

// Run starts the HTTP server and blocks until shutdown completes. SIGINT
// and SIGTERM trigger a graceful drain bounded by the configured timeout.
func (app *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.Logger.Info("HTTP server listening", slog.String("addr", app.Server.Addr))
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		app.Logger.Info("shutting down",
			slog.Duration("timeout", app.Config.Server.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := app.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		if app.OTelProviders != nil {
			if err := app.OTelProviders.Shutdown(shutdownCtx); err != nil {
				app.Logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
			}
		}
		infrastructure.CloseLogFile()
		return nil
	})

	return g.Wait()
}
