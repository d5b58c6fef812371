package loader

import (
	"context"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepulse/pkg/contracts/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func header() []string {
	return []string{
		"Order ID", "Order Date", "Customer ID", "Segment", "Region",
		"State", "City", "Category", "Sub-Category", "Sales", "Profit",
		"Quantity", "Discount",
	}
}

func TestParseRows(t *testing.T) {
	rows := [][]string{
		header(),
		{"CA-2023-1001", "11/8/2023", "CG-12520", "Consumer", "South",
			"Kentucky", "Henderson", "Furniture", "Bookcases", "261.96", "41.91", "2", "0"},
		{"CA-2023-1002", "2023-06-12", "DV-13045", "Corporate", "West",
			"California", "Los Angeles", "Office Supplies", "Labels", "$1,414.89", "-6.87", "3", "0.2"},
	}

	records, err := parseRows(rows, discardLogger())
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "CA-2023-1001", first.OrderID)
	assert.Equal(t, "CG-12520", first.CustomerID)
	assert.Equal(t, time.Date(2023, time.November, 8, 0, 0, 0, 0, time.UTC), first.OrderDate)
	assert.Equal(t, "South", first.Region)
	assert.Equal(t, "Bookcases", first.SubCategory)
	assert.InDelta(t, 261.96, first.Sales, 1e-9)
	assert.Equal(t, 2, first.Quantity)

	// Currency formatting and ISO dates both parse.
	second := records[1]
	assert.InDelta(t, 1414.89, second.Sales, 1e-9)
	assert.InDelta(t, -6.87, second.Profit, 1e-9)
	assert.Equal(t, time.Date(2023, time.June, 12, 0, 0, 0, 0, time.UTC), second.OrderDate)
}

func TestParseRowsColumnOrderIndependent(t *testing.T) {
	rows := [][]string{
		{"Sales", "Order Date", "Order ID", "Customer ID", "Region", "State",
			"City", "Category", "Sub-Category", "Segment", "Profit"},
		{"99.50", "1/15/2023", "O-1", "C-1", "East", "New York",
			"Buffalo", "Technology", "Phones", "Consumer", "10"},
	}

	records, err := parseRows(rows, discardLogger())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "O-1", records[0].OrderID)
	assert.InDelta(t, 99.50, records[0].Sales, 1e-9)
}

func TestParseRowsDropsMalformedRows(t *testing.T) {
	rows := [][]string{
		header(),
		{"O-1", "not-a-date", "C-1", "Consumer", "East", "NY", "Buffalo",
			"Technology", "Phones", "100", "10", "1", "0"},
		{"O-2", "1/15/2023", "C-2", "Consumer", "East", "NY", "Buffalo",
			"Technology", "Phones", "abc", "10", "1", "0"},
		{"O-3", "1/15/2023", "C-3", "Consumer", "East", "NY", "Buffalo",
			"Technology", "Phones", "100", "10", "1", "0"},
	}

	records, err := parseRows(rows, discardLogger())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "O-3", records[0].OrderID)
}

func TestParseRowsDropsMalformedOptionalCells(t *testing.T) {
	rows := [][]string{
		header(),
		{"O-1", "1/15/2023", "C-1", "Consumer", "East", "NY", "Buffalo",
			"Technology", "Phones", "100", "10", "two", "0"},
		{"O-2", "1/15/2023", "C-2", "Consumer", "East", "NY", "Buffalo",
			"Technology", "Phones", "100", "10", "1", "lots"},
		{"O-3", "1/15/2023", "C-3", "Consumer", "East", "NY", "Buffalo",
			"Technology", "Phones", "100", "10", "", ""},
	}

	records, err := parseRows(rows, discardLogger())
	require.NoError(t, err)

	// Malformed quantity and discount cells drop their rows; empty cells
	// default to zero.
	require.Len(t, records, 1)
	assert.Equal(t, "O-3", records[0].OrderID)
	assert.Equal(t, 0, records[0].Quantity)
	assert.Zero(t, records[0].Discount)
}

func TestParseRowsMissingRequiredColumn(t *testing.T) {
	rows := [][]string{
		{"Order ID", "Customer ID", "Sales"},
		{"O-1", "C-1", "100"},
	}

	_, err := parseRows(rows, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order date")
}

func TestParseRowsNoDataRows(t *testing.T) {
	_, err := parseRows([][]string{header()}, discardLogger())
	require.Error(t, err)
}

// countingSource returns a canned dataset and counts fetches.
type countingSource struct {
	fetches int
	err     error
}

func (s *countingSource) Fetch(ctx context.Context) ([]domain.Record, error) {
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Record{{OrderID: "O-1", CustomerID: "C-1",
		OrderDate: time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), Sales: 1}}, nil
}

func (s *countingSource) Location() string { return "test" }

func TestCacheServesWithinTTL(t *testing.T) {
	src := &countingSource{}
	cache := NewCache(src, 10*time.Minute)

	now := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	_, err := cache.Records(context.Background())
	require.NoError(t, err)

	now = now.Add(9 * time.Minute)
	_, err = cache.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.fetches)
}

func TestCacheRefetchesAfterTTL(t *testing.T) {
	src := &countingSource{}
	cache := NewCache(src, 10*time.Minute)

	now := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	_, err := cache.Records(context.Background())
	require.NoError(t, err)

	now = now.Add(10 * time.Minute)
	_, err = cache.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.fetches)
}

func TestCacheInvalidate(t *testing.T) {
	src := &countingSource{}
	cache := NewCache(src, time.Hour)

	_, err := cache.Records(context.Background())
	require.NoError(t, err)
	cache.Invalidate()
	_, err = cache.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.fetches)
}

func TestCacheDoesNotCacheErrors(t *testing.T) {
	src := &countingSource{err: ErrSourceUnavailable}
	cache := NewCache(src, time.Hour)

	_, err := cache.Records(context.Background())
	require.ErrorIs(t, err, ErrSourceUnavailable)
	_, err = cache.Records(context.Background())
	require.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Equal(t, 2, src.fetches)
}
