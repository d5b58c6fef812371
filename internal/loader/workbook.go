package loader

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"storepulse/internal/infrastructure"
	"storepulse/pkg/contracts/domain"
)

// WorkbookSource reads the order dataset from a local Excel workbook.
type WorkbookSource struct {
	path  string
	sheet string
}

// NewWorkbookSource returns a source backed by the workbook at path. The
// named sheet is tried first; if it does not exist the first sheet in the
// workbook is used instead.
func NewWorkbookSource(path, sheet string) *WorkbookSource {
	return &WorkbookSource{path: path, sheet: sheet}
}

func (s *WorkbookSource) Location() string {
	return s.path
}

func (s *WorkbookSource) Fetch(ctx context.Context) ([]domain.Record, error) {
	logger := infrastructure.LoggerFromContext(ctx)

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrSourceUnavailable, s.path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(s.sheet)
	if err != nil {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook %s has no sheets", ErrSourceUnavailable, s.path)
		}
		logger.Warn("configured sheet not found, falling back to first sheet",
			"configured", s.sheet, "fallback", sheets[0])
		rows, err = f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrSourceUnavailable, s.path, err)
		}
	}

	records, err := parseRows(rows, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, s.path, err)
	}
	logger.Info("loaded orders from workbook",
		"path", s.path, "rows", len(records))
	return records, nil
}
