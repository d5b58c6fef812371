package exporter

import (
	"fmt"
	"strconv"

	"storepulse/internal/analytics"
	"storepulse/pkg/contracts/domain"
)

// Table is a rectangular export: a header row plus data rows, ready for
// CSV serialization.
type Table struct {
	Headers []string
	Rows    [][]string
}

// TableName identifies one of the exportable tables.
type TableName string

const (
	TableCategorySales TableName = "category_sales"
	TableRegionSales   TableName = "region_sales"
	TableSegmentSales  TableName = "segment_sales"
	TableMonthlySales  TableName = "monthly_sales"
	TableRFMSegments   TableName = "rfm_segments"
)

// TableNames lists every exportable table.
func TableNames() []TableName {
	return []TableName{
		TableCategorySales, TableRegionSales, TableSegmentSales,
		TableMonthlySales, TableRFMSegments,
	}
}

// BuildTable derives the named table from the working set. RFM tables need
// the full segmentation run and return its insufficient-data error
// unchanged.
func BuildTable(name TableName, ws domain.WorkingSet) (Table, error) {
	switch name {
	case TableCategorySales:
		return groupTable("Category", "Sales", analytics.CategorySales(ws)), nil
	case TableRegionSales:
		return groupTable("Region", "Sales", analytics.RegionSales(ws)), nil
	case TableSegmentSales:
		return groupTable("Segment", "Sales", analytics.SegmentSales(ws)), nil
	case TableMonthlySales:
		return groupTable("Month", "Sales", analytics.MonthlySeries(ws)), nil
	case TableRFMSegments:
		return rfmTable(ws)
	default:
		return Table{}, fmt.Errorf("unknown export table: %s", name)
	}
}

func groupTable(keyHeader, valueHeader string, groups []domain.GroupTotal) Table {
	t := Table{Headers: []string{keyHeader, valueHeader}}
	for _, g := range groups {
		t.Rows = append(t.Rows, []string{g.Key, formatAmount(g.Total)})
	}
	return t
}

func rfmTable(ws domain.WorkingSet) (Table, error) {
	segments, err := analytics.SegmentCustomers(ws)
	if err != nil {
		return Table{}, err
	}

	t := Table{Headers: []string{
		"Customer ID", "Recency", "Frequency", "Monetary",
		"R", "F", "M", "Segment",
	}}
	for _, cs := range segments {
		t.Rows = append(t.Rows, []string{
			cs.CustomerID,
			strconv.Itoa(cs.Recency),
			strconv.Itoa(cs.Frequency),
			formatAmount(cs.Monetary),
			strconv.Itoa(cs.R),
			strconv.Itoa(cs.F),
			strconv.Itoa(cs.M),
			string(cs.Segment),
		})
	}
	return t, nil
}

// formatAmount renders monetary values with two decimals, matching the
// precision shown on screen.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
