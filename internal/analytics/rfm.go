package analytics

import (
	"fmt"
	"sort"
	"time"

	"storepulse/pkg/contracts/domain"
)

// minDistinctForQuartiles is the smallest number of distinct values a
// dimension needs before quartile boundaries are well defined.
const minDistinctForQuartiles = 4

// SegmentCustomers runs RFM segmentation over the working set.
//
// The snapshot date is one day after the latest order date in the set. Each
// distinct customer gets Recency/Frequency/Monetary metrics, a 1-4 quartile
// score per dimension, and a behavioral segment derived from the recency and
// frequency scores. The monetary score is computed and returned but takes no
// part in classification.
//
// Quartile boundaries are computed from the current population only; callers
// must re-run segmentation whenever the working set changes. Populations too
// small or too homogeneous for quartile binning return ErrInsufficientData.
func SegmentCustomers(ws domain.WorkingSet) ([]domain.CustomerSegment, error) {
	latest, ok := ws.LatestOrderDate()
	if !ok {
		return nil, fmt.Errorf("empty working set: %w", ErrInsufficientData)
	}
	snapshot := latest.AddDate(0, 0, 1)

	profiles := buildProfiles(ws, snapshot)

	recency := make([]float64, len(profiles))
	frequency := make([]float64, len(profiles))
	monetary := make([]float64, len(profiles))
	for i, p := range profiles {
		recency[i] = float64(p.Recency)
		frequency[i] = float64(p.Frequency)
		monetary[i] = p.Monetary
	}

	rBins, err := quartileBins(recency)
	if err != nil {
		return nil, fmt.Errorf("recency: %w", err)
	}
	// Frequency values are highly discrete, so ties are broken by the
	// customers' first-seen ordinal rank before binning. The ranks are all
	// distinct, which makes the binning deterministic, but the underlying
	// frequency values must still carry enough spread for quartiles to
	// mean anything.
	if distinctCount(frequency) < minDistinctForQuartiles {
		return nil, fmt.Errorf("frequency: %d distinct values: %w",
			distinctCount(frequency), ErrInsufficientData)
	}
	fBins, err := quartileBins(rankFirstSeen(frequency))
	if err != nil {
		return nil, fmt.Errorf("frequency: %w", err)
	}
	mBins, err := quartileBins(monetary)
	if err != nil {
		return nil, fmt.Errorf("monetary: %w", err)
	}

	out := make([]domain.CustomerSegment, len(profiles))
	for i, p := range profiles {
		score := domain.RFMScore{
			R: 5 - rBins[i], // inverted: most recent quartile scores 4
			F: fBins[i],
			M: mBins[i],
		}
		segment, err := ClassifySegment(score.R, score.F)
		if err != nil {
			return nil, err
		}
		out[i] = domain.CustomerSegment{
			RFMRecord: p,
			RFMScore:  score,
			Segment:   segment,
		}
	}
	return out, nil
}

// buildProfiles groups the working set by customer in first-seen order and
// computes the raw RFM metrics against the snapshot date.
func buildProfiles(ws domain.WorkingSet, snapshot time.Time) []domain.RFMRecord {
	type acc struct {
		lastOrder time.Time
		orders    map[string]struct{}
		monetary  float64
	}

	index := make(map[string]int)
	accs := make([]*acc, 0)
	order := make([]string, 0)

	for _, r := range ws {
		i, ok := index[r.CustomerID]
		if !ok {
			i = len(accs)
			index[r.CustomerID] = i
			accs = append(accs, &acc{orders: make(map[string]struct{})})
			order = append(order, r.CustomerID)
		}
		a := accs[i]
		if r.OrderDate.After(a.lastOrder) {
			a.lastOrder = r.OrderDate
		}
		a.orders[r.OrderID] = struct{}{}
		a.monetary += r.Sales
	}

	profiles := make([]domain.RFMRecord, len(accs))
	for i, a := range accs {
		profiles[i] = domain.RFMRecord{
			CustomerID: order[i],
			Recency:    int(snapshot.Sub(a.lastOrder).Hours() / 24),
			Frequency:  len(a.orders),
			Monetary:   a.monetary,
		}
	}
	return profiles
}

// quartileBins assigns each value to a quartile bin 1-4 using boundaries
// computed from the population itself (linear-interpolation quantiles).
// Returns ErrInsufficientData when the population has fewer than four
// distinct values or the computed boundaries collapse.
func quartileBins(values []float64) ([]int, error) {
	if distinctCount(values) < minDistinctForQuartiles {
		return nil, fmt.Errorf("%d distinct values: %w", distinctCount(values), ErrInsufficientData)
	}

	q1 := quantile(values, 0.25)
	q2 := quantile(values, 0.50)
	q3 := quantile(values, 0.75)
	if !(q1 < q2 && q2 < q3) {
		// Enough distinct values but heavy ties collapsed the boundaries;
		// bin membership would be ambiguous.
		return nil, fmt.Errorf("degenerate quartile boundaries: %w", ErrInsufficientData)
	}

	bins := make([]int, len(values))
	for i, v := range values {
		switch {
		case v <= q1:
			bins[i] = 1
		case v <= q2:
			bins[i] = 2
		case v <= q3:
			bins[i] = 3
		default:
			bins[i] = 4
		}
	}
	return bins, nil
}

// quantile computes the p-quantile of values with linear interpolation
// between closest ranks.
func quantile(values []float64, p float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	h := p * float64(len(sorted)-1)
	lo := int(h)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// rankFirstSeen converts values to 1-based ordinal ranks, breaking ties by
// position: of two equal values, the one seen earlier gets the lower rank.
func rankFirstSeen(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	ranks := make([]float64, len(values))
	for rank, i := range idx {
		ranks[i] = float64(rank + 1)
	}
	return ranks
}

// distinctCount returns the number of distinct values
func distinctCount(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// segmentRule is one (predicate, label) classification rule
type segmentRule struct {
	matches func(r, f int) bool
	segment domain.Segment
}

// segmentRules is the ordered classification table. Rules are evaluated
// top to bottom and the first match wins; exact score pairs come before the
// broader range patterns so that a customer scoring 4 on both recency and
// frequency lands in Champions, not in the wider promising/loyal buckets.
// The table is total over all sixteen (recency, frequency) score pairs.
var segmentRules = []segmentRule{
	{func(r, f int) bool { return r == 4 && f == 4 }, domain.SegmentChampions},
	{func(r, f int) bool { return r == 4 && f == 3 }, domain.SegmentPotentialLoyalist},
	{func(r, f int) bool { return r == 4 && f <= 2 }, domain.SegmentPromising},
	{func(r, f int) bool { return r >= 3 && f == 4 }, domain.SegmentLoyalCustomers},
	{func(r, f int) bool { return r == 3 && f == 3 }, domain.SegmentAboutToSleep},
	{func(r, f int) bool { return r == 3 && f <= 2 }, domain.SegmentNeedsAttention},
	{func(r, f int) bool { return r <= 2 && f >= 3 }, domain.SegmentAtRisk},
	{func(r, f int) bool { return r <= 2 && f <= 2 }, domain.SegmentHibernating},
}

// ClassifySegment maps a (recency, frequency) score pair onto its behavioral
// segment. Score pairs outside 1..4 per dimension, or pairs no rule covers,
// are reported as a defect rather than silently defaulted.
func ClassifySegment(r, f int) (domain.Segment, error) {
	if r < 1 || r > 4 || f < 1 || f > 4 {
		return "", fmt.Errorf("score pair (%d,%d) out of range: %w", r, f, ErrUnmatchedSegmentKey)
	}
	for _, rule := range segmentRules {
		if rule.matches(r, f) {
			return rule.segment, nil
		}
	}
	return "", fmt.Errorf("score pair (%d,%d): %w", r, f, ErrUnmatchedSegmentKey)
}

// SegmentCounts tallies customers per behavioral segment, in classification
// priority order, for the segment distribution chart.
func SegmentCounts(rows []domain.CustomerSegment) []domain.GroupTotal {
	counts := make(map[domain.Segment]int)
	for _, row := range rows {
		counts[row.Segment]++
	}

	out := make([]domain.GroupTotal, 0, len(counts))
	for _, s := range domain.Segments() {
		if n, ok := counts[s]; ok {
			out = append(out, domain.GroupTotal{Key: string(s), Total: float64(n)})
		}
	}
	return out
}
