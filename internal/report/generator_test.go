package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepulse/pkg/contracts/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func reportRecords() domain.WorkingSet {
	return domain.WorkingSet{
		{OrderID: "O-1", CustomerID: "C-1", OrderDate: day(2023, time.January, 5),
			Region: "East", State: "New York", City: "New York City",
			Category: "Technology", SubCategory: "Phones", Sales: 900, Profit: 200, Quantity: 2},
		{OrderID: "O-2", CustomerID: "C-2", OrderDate: day(2023, time.March, 12),
			Region: "West", State: "California", City: "Los Angeles",
			Category: "Furniture", SubCategory: "Tables", Sales: 400, Profit: -120, Quantity: 1},
		{OrderID: "O-3", CustomerID: "C-1", OrderDate: day(2023, time.March, 20),
			Region: "East", State: "New York", City: "Buffalo",
			Category: "Office Supplies", SubCategory: "Binders", Sales: 150, Profit: 40, Quantity: 4},
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		want   string
	}{
		{"zero", 0, "$0.00"},
		{"small", 9.5, "$9.50"},
		{"hundreds", 123.456, "$123.46"},
		{"thousands", 1234.5, "$1,234.50"},
		{"millions", 1234567.891, "$1,234,567.89"},
		{"negative", -1234.5, "-$1,234.50"},
		{"negative small", -0.01, "-$0.01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(tt.amount))
		})
	}
}

func TestGenerateEmptyWorkingSet(t *testing.T) {
	n := Generate(nil, day(2024, time.January, 1))

	require.Len(t, n.Sections, 1)
	assert.Equal(t, "No Data", n.Sections[0].Title)
	assert.Contains(t, n.Sections[0].Lines[0], "No data to analyze")
	assert.NotEmpty(t, n.ID)
}

func TestGenerateNarrativeContent(t *testing.T) {
	at := day(2024, time.February, 1)
	n := Generate(reportRecords(), at)

	require.Len(t, n.Sections, 2)
	assert.Equal(t, at, n.GeneratedAt)

	md := n.Markdown()
	assert.Contains(t, md, "Automated Sales & Profit Analysis Report")
	assert.Contains(t, md, "**Total Sales:** **$1,450.00**")
	assert.Contains(t, md, "**Total Profit:** **$120.00**")
	assert.Contains(t, md, "**Total Orders:** **3**")
	// 120 / 1450 * 100
	assert.Contains(t, md, "**Overall Profit Margin:** **8.28%**")

	assert.Contains(t, md, "**Best Sales Category:** **Technology** ($900.00)")
	assert.Contains(t, md, "**Most Profitable Sub-Category:** **Phones**")
	assert.Contains(t, md, "**Least Profitable Sub-Category:** **Tables**")
	assert.Contains(t, md, "**East** was the top-performing region")
	assert.Contains(t, md, "peaked in **January 2023**")
}

func TestGenerateTiesResolveToFirstAscendingKey(t *testing.T) {
	ws := domain.WorkingSet{
		{OrderID: "O-1", CustomerID: "C-1", OrderDate: day(2023, time.May, 1),
			Region: "South", Category: "Furniture", SubCategory: "Chairs", Sales: 100, Profit: 10},
		{OrderID: "O-2", CustomerID: "C-2", OrderDate: day(2023, time.June, 1),
			Region: "West", Category: "Technology", SubCategory: "Phones", Sales: 100, Profit: 10},
	}

	md := Generate(ws, day(2024, time.January, 1)).Markdown()

	// Categories tie at 100; "Furniture" sorts before "Technology".
	assert.Contains(t, md, "**Best Sales Category:** **Furniture**")
	// Months tie; the earlier month wins.
	assert.Contains(t, md, "peaked in **May 2023**")
}
