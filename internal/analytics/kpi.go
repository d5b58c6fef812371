package analytics

import (
	"sort"
	"time"

	"storepulse/pkg/contracts/domain"
)

// MonthBucketLayout is the textual key for monthly time buckets. The label
// doubles as the grouping key: every order date is truncated to its calendar
// month and rendered with this layout, so records sharing a month and year
// collapse into one bucket regardless of day.
const MonthBucketLayout = "2006 : Jan"

// Measure selects the numeric field a grouped sum accumulates.
type Measure func(domain.Record) float64

// MeasureSales sums the sales amount
func MeasureSales(r domain.Record) float64 { return r.Sales }

// MeasureProfit sums the profit
func MeasureProfit(r domain.Record) float64 { return r.Profit }

// Summarize computes the scalar KPI summary for a working set. An empty
// working set yields the zero summary; in particular the profit margin is
// defined as 0 when total sales is 0.
func Summarize(ws domain.WorkingSet) domain.KPISummary {
	var summary domain.KPISummary

	orders := make(map[string]struct{})
	for _, r := range ws {
		summary.TotalSales += r.Sales
		summary.TotalProfit += r.Profit
		orders[r.OrderID] = struct{}{}
	}
	summary.OrderCount = len(orders)

	if summary.TotalSales > 0 {
		summary.ProfitMargin = summary.TotalProfit / summary.TotalSales * 100
	}

	return summary
}

// GroupSum groups the working set by the given key, sums the measure, and
// returns the groups in ascending key order. This is the ordering contract
// for the category, sub-category, region and segment tables.
func GroupSum(ws domain.WorkingSet, key func(domain.Record) string, measure Measure) []domain.GroupTotal {
	totals := make(map[string]float64)
	for _, r := range ws {
		totals[key(r)] += measure(r)
	}

	out := make([]domain.GroupTotal, 0, len(totals))
	for k, v := range totals {
		out = append(out, domain.GroupTotal{Key: k, Total: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// CategorySales returns sales totals per category, ascending by category.
func CategorySales(ws domain.WorkingSet) []domain.GroupTotal {
	return GroupSum(ws, func(r domain.Record) string { return r.Category }, MeasureSales)
}

// RegionSales returns sales totals per region, ascending by region.
func RegionSales(ws domain.WorkingSet) []domain.GroupTotal {
	return GroupSum(ws, func(r domain.Record) string { return r.Region }, MeasureSales)
}

// SegmentSales returns sales totals per source customer segment,
// ascending by segment name.
func SegmentSales(ws domain.WorkingSet) []domain.GroupTotal {
	return GroupSum(ws, func(r domain.Record) string { return r.Segment }, MeasureSales)
}

// SubCategoryProfit returns profit totals per sub-category, ascending by
// sub-category.
func SubCategoryProfit(ws domain.WorkingSet) []domain.GroupTotal {
	return GroupSum(ws, func(r domain.Record) string { return r.SubCategory }, MeasureProfit)
}

// MonthlySeries returns the monthly sales series in chronological order.
// Bucket labels follow MonthBucketLayout.
func MonthlySeries(ws domain.WorkingSet) []domain.GroupTotal {
	totals := make(map[time.Time]float64)
	for _, r := range ws {
		bucket := time.Date(r.OrderDate.Year(), r.OrderDate.Month(), 1, 0, 0, 0, 0, time.UTC)
		totals[bucket] += r.Sales
	}

	months := make([]time.Time, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	out := make([]domain.GroupTotal, 0, len(months))
	for _, m := range months {
		out = append(out, domain.GroupTotal{Key: m.Format(MonthBucketLayout), Total: totals[m]})
	}
	return out
}

// MonthlyPivot is the sub-category x calendar-month sales matrix backing the
// monthly summary table.
type MonthlyPivot struct {
	Months        []string             `json:"months"`         // calendar month names, Jan..Dec order, only months present
	SubCategories []string             `json:"sub_categories"` // ascending
	Cells         map[string][]float64 `json:"cells"`          // sub-category -> totals aligned with Months
}

// SubCategoryMonthlyPivot builds the month-wise sub-category sales summary.
func SubCategoryMonthlyPivot(ws domain.WorkingSet) MonthlyPivot {
	type cell struct {
		sub   string
		month time.Month
	}

	totals := make(map[cell]float64)
	monthsPresent := make(map[time.Month]struct{})
	subsPresent := make(map[string]struct{})
	for _, r := range ws {
		c := cell{sub: r.SubCategory, month: r.OrderDate.Month()}
		totals[c] += r.Sales
		monthsPresent[c.month] = struct{}{}
		subsPresent[c.sub] = struct{}{}
	}

	var months []time.Month
	for m := time.January; m <= time.December; m++ {
		if _, ok := monthsPresent[m]; ok {
			months = append(months, m)
		}
	}

	subs := make([]string, 0, len(subsPresent))
	for s := range subsPresent {
		subs = append(subs, s)
	}
	sort.Strings(subs)

	pivot := MonthlyPivot{
		SubCategories: subs,
		Cells:         make(map[string][]float64, len(subs)),
	}
	for _, m := range months {
		pivot.Months = append(pivot.Months, m.String())
	}
	for _, s := range subs {
		row := make([]float64, len(months))
		for i, m := range months {
			row[i] = totals[cell{sub: s, month: m}]
		}
		pivot.Cells[s] = row
	}
	return pivot
}
