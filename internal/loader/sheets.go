package loader

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"storepulse/internal/infrastructure"
	"storepulse/pkg/contracts/domain"
)

// SheetsSource reads the order dataset from a Google Sheets spreadsheet
// using the public Sheets v4 API.
type SheetsSource struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	fetchTimeout  time.Duration
}

// NewSheetsSource builds a Sheets-backed source. With an API key the sheet
// must be link-readable; without one unauthenticated access is attempted.
func NewSheetsSource(ctx context.Context, spreadsheetID, sheetName, apiKey string, fetchTimeout time.Duration) (*SheetsSource, error) {
	opts := []option.ClientOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	} else {
		opts = append(opts, option.WithoutAuthentication())
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &SheetsSource{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		fetchTimeout:  fetchTimeout,
	}, nil
}

func (s *SheetsSource) Location() string {
	return "spreadsheet:" + s.spreadsheetID
}

func (s *SheetsSource) Fetch(ctx context.Context) ([]domain.Record, error) {
	logger := infrastructure.LoggerFromContext(ctx)

	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: fetching spreadsheet %s: %v", ErrSourceUnavailable, s.spreadsheetID, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprint(v)
		}
		rows = append(rows, cells)
	}

	records, err := parseRows(rows, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: spreadsheet %s: %v", ErrSourceUnavailable, s.spreadsheetID, err)
	}
	logger.Info("loaded orders from spreadsheet",
		"spreadsheet_id", s.spreadsheetID, "rows", len(records))
	return records, nil
}
