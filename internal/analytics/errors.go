package analytics

import "errors"

var (
	// ErrInvalidRange reports a date filter whose start falls after its end.
	// The range is surfaced to the caller for correction, never auto-swapped.
	ErrInvalidRange = errors.New("invalid date range: start date is after end date")

	// ErrInsufficientData reports a customer population too small or too
	// homogeneous for quartile binning. Behavior below four distinct values
	// per dimension is deliberately undefined, so the engine refuses rather
	// than inventing degenerate bins.
	ErrInsufficientData = errors.New("insufficient data for quartile binning")

	// ErrUnmatchedSegmentKey reports a score pair no classification rule
	// covers. The rule table is total over {1..4}x{1..4}, so hitting this
	// is a defect in the table, not a data condition.
	ErrUnmatchedSegmentKey = errors.New("rfm score pair matched no segment rule")
)
