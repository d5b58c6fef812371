package domain

import (
	"time"
)

// Record represents a single transaction line from the Superstore dataset.
type Record struct {
	OrderID     string    `json:"order_id"`
	CustomerID  string    `json:"customer_id"`
	OrderDate   time.Time `json:"order_date"`
	Region      string    `json:"region"`
	State       string    `json:"state"`
	City        string    `json:"city"`
	Category    string    `json:"category"`
	SubCategory string    `json:"sub_category"`
	// Segment is the customer segment column carried by the source data
	// (Consumer, Corporate, Home Office). It is unrelated to the RFM
	// behavioral segment derived by the analytics engine.
	Segment  string  `json:"segment"`
	Sales    float64 `json:"sales"`
	Profit   float64 `json:"profit"`
	Quantity int     `json:"quantity"`
	Discount float64 `json:"discount"`
}

// IsValid checks if the record satisfies the dataset invariants.
func (r Record) IsValid() bool {
	return r.OrderID != "" && r.CustomerID != "" && !r.OrderDate.IsZero() &&
		r.Sales >= 0 && r.Quantity >= 0 &&
		r.Discount >= 0 && r.Discount <= 1
}

// WorkingSet is the record subset surviving the date-range and hierarchical
// filters. It is an immutable snapshot: filter stages return a new WorkingSet
// and never mutate the records they were given.
type WorkingSet []Record

// IsEmpty reports whether the working set holds no records.
func (ws WorkingSet) IsEmpty() bool {
	return len(ws) == 0
}

// LatestOrderDate returns the maximum order date in the set and false when
// the set is empty.
func (ws WorkingSet) LatestOrderDate() (time.Time, bool) {
	if len(ws) == 0 {
		return time.Time{}, false
	}
	latest := ws[0].OrderDate
	for _, r := range ws[1:] {
		if r.OrderDate.After(latest) {
			latest = r.OrderDate
		}
	}
	return latest, true
}

// KPISummary contains the scalar summary statistics for a working set.
// All values are derived and recomputed on demand; an empty working set
// yields the zero summary (profit margin 0, never a division error).
type KPISummary struct {
	TotalSales   float64 `json:"total_sales"`
	TotalProfit  float64 `json:"total_profit"`
	ProfitMargin float64 `json:"profit_margin"` // percent
	OrderCount   int     `json:"order_count"`   // distinct order IDs
}

// GroupTotal is one row of a grouped-sum aggregate.
type GroupTotal struct {
	Key   string  `json:"key"`
	Total float64 `json:"total"`
}
