package services

import "errors"

// Analytics service errors
var (
	// Report errors
	ErrReportNotFound = errors.New("report not found")

	// Export errors
	ErrUnknownTable = errors.New("unknown export table")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
)
