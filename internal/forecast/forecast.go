package forecast

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"storepulse/internal/analytics"
	"storepulse/pkg/contracts/domain"
)

// Errors returned by the forecasting boundary.
var (
	// ErrSeriesTooShort indicates the filtered data produced too few
	// monthly observations to fit a model.
	ErrSeriesTooShort = errors.New("monthly series too short to forecast")
	// ErrInvalidHorizon indicates a requested horizon outside the
	// supported range.
	ErrInvalidHorizon = errors.New("forecast horizon out of range")
	// ErrForecasterUnavailable indicates the external forecasting
	// service could not be reached or returned an unusable response.
	ErrForecasterUnavailable = errors.New("forecaster unavailable")
)

// Horizon bounds, in months.
const (
	MinHorizon = 1
	MaxHorizon = 12
)

// minObservations is the smallest monthly series a model can be fit on.
const minObservations = 2

// Observation is one month of historical sales handed to the forecaster.
type Observation struct {
	Timestamp time.Time `json:"ds"`
	Value     float64   `json:"y"`
}

// Point is one forecast month: the central estimate with its uncertainty
// interval.
type Point struct {
	Timestamp time.Time `json:"ds"`
	Estimate  float64   `json:"yhat"`
	Lower     float64   `json:"yhat_lower"`
	Upper     float64   `json:"yhat_upper"`
}

// Forecaster fits a model to a monthly sales series and projects it the
// requested number of months ahead.
type Forecaster interface {
	Forecast(ctx context.Context, series []Observation, horizon int) ([]Point, error)
}

// Reshape converts the labelled monthly sales series into time-indexed
// observations in chronological order.
func Reshape(series []domain.GroupTotal) ([]Observation, error) {
	obs := make([]Observation, 0, len(series))
	for _, g := range series {
		t, err := time.Parse(analytics.MonthBucketLayout, g.Key)
		if err != nil {
			return nil, fmt.Errorf("parsing month bucket %q: %w", g.Key, err)
		}
		obs = append(obs, Observation{Timestamp: t, Value: g.Total})
	}
	sort.Slice(obs, func(i, j int) bool { return obs[i].Timestamp.Before(obs[j].Timestamp) })

	if len(obs) < minObservations {
		return nil, fmt.Errorf("%w: have %d months, need at least %d",
			ErrSeriesTooShort, len(obs), minObservations)
	}
	return obs, nil
}

// ValidateHorizon rejects horizons outside [MinHorizon, MaxHorizon].
func ValidateHorizon(horizon int) error {
	if horizon < MinHorizon || horizon > MaxHorizon {
		return fmt.Errorf("%w: %d not in [%d, %d]",
			ErrInvalidHorizon, horizon, MinHorizon, MaxHorizon)
	}
	return nil
}
