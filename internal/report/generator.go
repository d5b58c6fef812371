package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"storepulse/internal/analytics"
	"storepulse/pkg/contracts/domain"
)

// Section is one block of the narrative report: a title and
// already-formatted text lines.
type Section struct {
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

// Narrative is the generated analysis report. It is immutable once
// generated; its lifetime is bound to the user session that triggered it.
type Narrative struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`
	Sections    []Section `json:"sections"`
}

// FormatCurrency renders a monetary amount as USD text. Non-negative values
// render as $X,XXX.XX; negative values move the sign outside the currency
// symbol and format the absolute value. This is the single source of truth
// for monetary text anywhere in the system.
func FormatCurrency(amount float64) string {
	if math.IsNaN(amount) {
		return "$0.00"
	}
	if amount < 0 {
		return "-$" + groupThousands(fmt.Sprintf("%.2f", -amount))
	}
	return "$" + groupThousands(fmt.Sprintf("%.2f", amount))
}

// groupThousands inserts comma separators into the integer part of a
// fixed-point decimal string.
func groupThousands(s string) string {
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	if fracPart != "" {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}

// Generate derives the narrative report from a working set. It is a pure
// function of the KPI summary and grouped aggregates; an empty working set
// yields a single "no data" section rather than an error.
func Generate(ws domain.WorkingSet, at time.Time) *Narrative {
	narrative := &Narrative{
		ID:          uuid.NewString(),
		GeneratedAt: at,
	}

	if ws.IsEmpty() {
		narrative.Sections = []Section{{
			Title: "No Data",
			Lines: []string{"No data to analyze for the current filters."},
		}}
		return narrative
	}

	summary := analytics.Summarize(ws)
	bestCategory, bestCategorySales := maxGroup(analytics.CategorySales(ws))
	bestRegion, _ := maxGroup(analytics.RegionSales(ws))
	subProfit := analytics.SubCategoryProfit(ws)
	mostProfitableSub, _ := maxGroup(subProfit)
	leastProfitableSub, _ := minGroup(subProfit)
	peakMonth := peakSalesMonth(analytics.MonthlySeries(ws))

	narrative.Sections = []Section{
		{
			Title: "Executive Summary",
			Lines: []string{
				fmt.Sprintf("* **Total Sales:** **%s**", FormatCurrency(summary.TotalSales)),
				fmt.Sprintf("* **Total Profit:** **%s**", FormatCurrency(summary.TotalProfit)),
				fmt.Sprintf("* **Overall Profit Margin:** **%.2f%%**", summary.ProfitMargin),
				fmt.Sprintf("* **Total Orders:** **%d**", summary.OrderCount),
				"",
				fmt.Sprintf("The analysis reveals that **%s** was the top-performing region. "+
					"The primary driver of sales was the **%s** category, contributing **%s**.",
					bestRegion, bestCategory, FormatCurrency(bestCategorySales)),
			},
		},
		{
			Title: "Detailed Insights",
			Lines: []string{
				"* **Top Performers:**",
				fmt.Sprintf("    * **Best Sales Category:** **%s** (%s).", bestCategory, FormatCurrency(bestCategorySales)),
				fmt.Sprintf("    * **Most Profitable Sub-Category:** **%s**.", mostProfitableSub),
				"* **Areas for Improvement:**",
				fmt.Sprintf("    * **Least Profitable Sub-Category:** **%s**. This sub-category should be "+
					"reviewed for potential cost-saving measures or pricing adjustments.", leastProfitableSub),
				"* **Temporal Trends:**",
				fmt.Sprintf("    * The sales performance peaked in **%s**, indicating a potential seasonal "+
					"high or a successful sales campaign during that period.", peakMonth),
			},
		},
	}
	return narrative
}

// Markdown renders the narrative in its on-screen markdown form.
func (n *Narrative) Markdown() string {
	var b strings.Builder
	b.WriteString("### **Automated Sales & Profit Analysis Report**\n")
	b.WriteString("Here is a summary of the data based on your current filters.\n")
	for _, s := range n.Sections {
		b.WriteString("---\n")
		fmt.Fprintf(&b, "#### **%s:**\n", s.Title)
		for _, line := range s.Lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// maxGroup returns the key and total of the largest group. Ties resolve to
// the group encountered first, which under the ascending key ordering of
// the aggregates makes "best" selections deterministic.
func maxGroup(groups []domain.GroupTotal) (string, float64) {
	if len(groups) == 0 {
		return "N/A", 0
	}
	best := groups[0]
	for _, g := range groups[1:] {
		if g.Total > best.Total {
			best = g
		}
	}
	return best.Key, best.Total
}

// minGroup returns the key and total of the smallest group, first
// encountered on ties.
func minGroup(groups []domain.GroupTotal) (string, float64) {
	if len(groups) == 0 {
		return "N/A", 0
	}
	worst := groups[0]
	for _, g := range groups[1:] {
		if g.Total < worst.Total {
			worst = g
		}
	}
	return worst.Key, worst.Total
}

// peakSalesMonth finds the calendar month with the highest sales and renders
// it as a full month name with year.
func peakSalesMonth(series []domain.GroupTotal) string {
	key, _ := maxGroup(series)
	if key == "N/A" {
		return key
	}
	t, err := time.Parse(analytics.MonthBucketLayout, key)
	if err != nil {
		return key
	}
	return t.Format("January 2006")
}
