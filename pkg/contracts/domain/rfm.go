package domain

// RFMRecord holds the raw Recency/Frequency/Monetary metrics for one
// customer within a working set. Recency is measured in whole days from the
// customer's last order to the snapshot date (one day after the working
// set's latest order date).
type RFMRecord struct {
	CustomerID string  `json:"customer_id"`
	Recency    int     `json:"recency"`
	Frequency  int     `json:"frequency"`
	Monetary   float64 `json:"monetary"`
}

// RFMScore holds the three ordinal quartile scores for one customer.
// Each score is in 1..4. Recency scoring is inverted: the most recent
// quartile scores 4. The monetary score is computed and exposed but does
// not participate in segment classification.
type RFMScore struct {
	R int `json:"r_score"`
	F int `json:"f_score"`
	M int `json:"m_score"`
}

// Segment is one of the eight named behavioral customer classes derived
// from the recency and frequency scores.
type Segment string

const (
	SegmentHibernating       Segment = "Hibernating"
	SegmentAtRisk            Segment = "At-Risk"
	SegmentNeedsAttention    Segment = "Needs Attention"
	SegmentAboutToSleep      Segment = "About to Sleep"
	SegmentLoyalCustomers    Segment = "Loyal Customers"
	SegmentPromising         Segment = "Promising"
	SegmentPotentialLoyalist Segment = "Potential Loyalists"
	SegmentChampions         Segment = "Champions"
)

// Segments lists all behavioral segments in classification priority order.
func Segments() []Segment {
	return []Segment{
		SegmentChampions,
		SegmentPotentialLoyalist,
		SegmentPromising,
		SegmentLoyalCustomers,
		SegmentAboutToSleep,
		SegmentNeedsAttention,
		SegmentAtRisk,
		SegmentHibernating,
	}
}

// CustomerSegment is one row of a segmentation run: the raw metrics, their
// quartile scores and the resulting behavioral segment for one customer.
type CustomerSegment struct {
	RFMRecord
	RFMScore
	Segment Segment `json:"segment"`
}
