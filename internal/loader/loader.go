package loader

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"storepulse/pkg/contracts/domain"
)

// ErrSourceUnavailable indicates the configured order data source could not
// be reached or read. Callers map it to a service-unavailable response.
var ErrSourceUnavailable = errors.New("order data source unavailable")

// Source fetches the full order dataset from a backing store. Fetch always
// returns a wholesale snapshot; incremental loads are not supported.
type Source interface {
	Fetch(ctx context.Context) ([]domain.Record, error)
	// Location identifies the source for logging and cache keying, e.g. a
	// file path or spreadsheet ID.
	Location() string
}

// dateLayouts are the order-date formats accepted from source rows, in the
// order they are tried.
var dateLayouts = []string{
	"1/2/2006",
	"01/02/2006",
	"2006-01-02",
	"1/2/06",
	"02-01-2006",
}

// requiredColumns must all be present in the header row for a sheet to be
// usable as an order dataset.
var requiredColumns = []string{
	"order id", "order date", "customer id", "region", "state", "city",
	"category", "sub-category", "segment", "sales", "profit",
}

// parseRows converts raw sheet rows into order records. The first row is
// the header; columns are located by name so source column order does not
// matter. Rows with an unparseable order date or malformed numeric cell are
// dropped and counted rather than failing the whole load.
func parseRows(rows [][]string, logger *slog.Logger) ([]domain.Record, error) {
	if len(rows) < 2 {
		return nil, errors.New("sheet has no data rows")
	}

	columns := make(map[string]int)
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, errors.New("missing required column: " + name)
		}
	}

	cell := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	records := make([]domain.Record, 0, len(rows)-1)
	dropped := 0
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}

		orderDate, err := parseDate(cell(row, "order date"))
		if err != nil {
			dropped++
			continue
		}
		sales, err := parseFloat(cell(row, "sales"))
		if err != nil {
			dropped++
			continue
		}
		profit, err := parseFloat(cell(row, "profit"))
		if err != nil {
			dropped++
			continue
		}

		// Quantity and discount columns are optional. A missing column or
		// empty cell defaults to zero, but a cell that is present and
		// malformed drops the row like any other parse failure.
		var quantity int
		if s := cell(row, "quantity"); s != "" {
			if quantity, err = strconv.Atoi(s); err != nil {
				dropped++
				continue
			}
		}
		var discount float64
		if s := cell(row, "discount"); s != "" {
			if discount, err = parseFloat(s); err != nil {
				dropped++
				continue
			}
		}

		rec := domain.Record{
			OrderID:     cell(row, "order id"),
			CustomerID:  cell(row, "customer id"),
			OrderDate:   orderDate,
			Region:      cell(row, "region"),
			State:       cell(row, "state"),
			City:        cell(row, "city"),
			Category:    cell(row, "category"),
			SubCategory: cell(row, "sub-category"),
			Segment:     cell(row, "segment"),
			Sales:       sales,
			Profit:      profit,
			Quantity:    quantity,
			Discount:    discount,
		}
		if !rec.IsValid() {
			dropped++
			continue
		}
		records = append(records, rec)
	}

	if dropped > 0 {
		logger.Warn("dropped malformed order rows",
			slog.Int("dropped", dropped),
			slog.Int("loaded", len(records)))
	}
	if len(records) == 0 {
		return nil, errors.New("no parseable order rows")
	}
	return records, nil
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func parseFloat(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	return strconv.ParseFloat(s, 64)
}
