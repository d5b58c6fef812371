package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"log/slog"
)

// utf8BOM helps Excel recognize the file encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes exported tables as CSV files under a fixed output
// directory.
type CSVWriter struct {
	outputDir string
	bomPrefix bool
}

// NewCSVWriter creates a CSV writer rooted at outputDir. When bomPrefix is
// set every file starts with a UTF-8 BOM.
func NewCSVWriter(outputDir string, bomPrefix bool) *CSVWriter {
	return &CSVWriter{outputDir: outputDir, bomPrefix: bomPrefix}
}

// WriteTable writes a table to <outputDir>/<name>.csv, replacing any
// existing file.
func (w *CSVWriter) WriteTable(name string, table Table) (string, error) {
	fullPath := filepath.Join(w.outputDir, name+".csv")

	slog.Info("Writing CSV file",
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(table.Rows)))

	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if w.bomPrefix {
		if _, err := file.Write(utf8BOM); err != nil {
			return "", fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(table.Headers); err != nil {
		return "", fmt.Errorf("failed to write headers: %w", err)
	}
	for i, record := range table.Rows {
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return fullPath, nil
}

// Render serializes a table to CSV bytes for in-memory use, e.g. an HTTP
// download response. The BOM setting applies the same way as for files.
func (w *CSVWriter) Render(table Table) ([]byte, error) {
	var buf bytes.Buffer
	if w.bomPrefix {
		buf.Write(utf8BOM)
	}

	writer := csv.NewWriter(&buf)
	if err := writer.Write(table.Headers); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}
	for i, record := range table.Rows {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
