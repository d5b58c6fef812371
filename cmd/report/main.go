package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"storepulse/internal/analytics"
	"storepulse/internal/config"
	"storepulse/internal/exporter"
	"storepulse/internal/infrastructure"
	"storepulse/internal/loader"
	"storepulse/internal/report"
	"storepulse/pkg/contracts/domain"
)

// cmd/report runs the analysis pipeline offline: it loads the order
// dataset, applies the requested filters, and writes the narrative report
// PDF plus every export table to the output directory.
func main() {
	outputDir := flag.String("out", "", "output directory (defaults to the configured export directory)")
	start := flag.String("start", "", "start of the order date range, YYYY-MM-DD")
	end := flag.String("end", "", "end of the order date range, YYYY-MM-DD")
	regions := flag.String("regions", "", "comma-separated region filter")
	states := flag.String("states", "", "comma-separated state filter")
	cities := flag.String("cities", "", "comma-separated city filter")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}

	if *outputDir == "" {
		*outputDir = cfg.Export.OutputDir
	}

	params, err := buildFilterParams(*start, *end, *regions, *states, *cities)
	if err != nil {
		logger.Error("Invalid filter arguments", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	source := loader.NewWorkbookSource(cfg.DataSource.WorkbookPath, cfg.DataSource.SheetName)
	records, err := source.Fetch(ctx)
	if err != nil {
		logger.Error("Failed to load order data", "error", err)
		os.Exit(1)
	}

	ws, err := analytics.ApplyFilters(records, params)
	if err != nil {
		logger.Error("Failed to apply filters", "error", err)
		os.Exit(1)
	}
	logger.Info("Working set ready",
		slog.Int("records", len(ws)),
		slog.Int("total", len(records)))

	narrative := report.Generate(ws, time.Now().UTC())
	pdfData, err := report.ToPDF(ctx, narrative)
	if err != nil {
		logger.Error("Failed to render PDF", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		logger.Error("Failed to create output directory", "error", err)
		os.Exit(1)
	}
	pdfPath := filepath.Join(*outputDir, report.PDFFilename)
	if err := os.WriteFile(pdfPath, pdfData, 0644); err != nil {
		logger.Error("Failed to write PDF", "error", err)
		os.Exit(1)
	}
	logger.Info("Report written", slog.String("path", pdfPath))

	writeTables(logger, ws, *outputDir, cfg.Export.CSVBOM)
}

func writeTables(logger *slog.Logger, ws domain.WorkingSet, outputDir string, bom bool) {
	csv := exporter.NewCSVWriter(outputDir, bom)
	for _, name := range exporter.TableNames() {
		table, err := exporter.BuildTable(name, ws)
		if err != nil {
			logger.Warn("Skipping export table",
				slog.String("table", string(name)),
				slog.String("error", err.Error()))
			continue
		}
		path, err := csv.WriteTable(string(name), table)
		if err != nil {
			logger.Error("Failed to write table",
				slog.String("table", string(name)), "error", err)
			os.Exit(1)
		}
		logger.Info("Table written", slog.String("path", path))
	}
}

func buildFilterParams(start, end, regions, states, cities string) (analytics.FilterParams, error) {
	p := analytics.FilterParams{
		Regions: splitList(regions),
		States:  splitList(states),
		Cities:  splitList(cities),
	}

	const layout = "2006-01-02"
	if start != "" {
		t, err := time.Parse(layout, start)
		if err != nil {
			return p, err
		}
		p.Start = t
	}
	if end != "" {
		t, err := time.Parse(layout, end)
		if err != nil {
			return p, err
		}
		p.End = t
	}
	return p, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
