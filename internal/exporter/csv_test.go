package exporter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepulse/internal/analytics"
	"storepulse/pkg/contracts/domain"
)

func exportRecords() domain.WorkingSet {
	base := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	return domain.WorkingSet{
		{OrderID: "O-1", CustomerID: "C-1", OrderDate: base,
			Region: "East", Segment: "Consumer", Category: "Technology",
			SubCategory: "Phones", Sales: 500, Profit: 100, Quantity: 1},
		{OrderID: "O-2", CustomerID: "C-2", OrderDate: base.AddDate(0, 1, 0),
			Region: "West", Segment: "Corporate", Category: "Furniture",
			SubCategory: "Tables", Sales: 300, Profit: -50, Quantity: 2},
	}
}

func TestWriteTableCreatesFileWithBOM(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, true)

	table, err := BuildTable(TableCategorySales, exportRecords())
	require.NoError(t, err)

	path, err := w.WriteTable(string(TableCategorySales), table)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "category_sales.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "\xEF\xBB\xBF"))
	assert.Contains(t, string(data), "Category,Sales")
	assert.Contains(t, string(data), "Furniture,300.00")
	assert.Contains(t, string(data), "Technology,500.00")
}

func TestWriteTableWithoutBOM(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, false)

	path, err := w.WriteTable("plain", Table{
		Headers: []string{"A", "B"},
		Rows:    [][]string{{"1", "2"}},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "A,B"))
}

func TestRenderInMemory(t *testing.T) {
	w := NewCSVWriter("", true)

	table, err := BuildTable(TableRegionSales, exportRecords())
	require.NoError(t, err)

	data, err := w.Render(table)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "\xEF\xBB\xBF"))
	assert.Contains(t, text, "Region,Sales")
	assert.Contains(t, text, "East,500.00")
	assert.Contains(t, text, "West,300.00")
}

func TestBuildTableMonthly(t *testing.T) {
	table, err := BuildTable(TableMonthlySales, exportRecords())
	require.NoError(t, err)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"2023 : Jun", "500.00"}, table.Rows[0])
	assert.Equal(t, []string{"2023 : Jul", "300.00"}, table.Rows[1])
}

func TestBuildTableSegment(t *testing.T) {
	table, err := BuildTable(TableSegmentSales, exportRecords())
	require.NoError(t, err)
	assert.Equal(t, []string{"Consumer", "500.00"}, table.Rows[0])
	assert.Equal(t, []string{"Corporate", "300.00"}, table.Rows[1])
}

func TestBuildTableRFMInsufficientData(t *testing.T) {
	// Two customers cannot produce four distinct quartile boundaries.
	_, err := BuildTable(TableRFMSegments, exportRecords())
	require.ErrorIs(t, err, analytics.ErrInsufficientData)
}

func TestBuildTableUnknown(t *testing.T) {
	_, err := BuildTable(TableName("bogus"), exportRecords())
	require.Error(t, err)
}
