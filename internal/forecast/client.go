package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"storepulse/internal/infrastructure"
)

// HTTPForecaster delegates model fitting to an external forecasting service
// over a JSON POST API. The service receives the historical observations and
// horizon and returns the projected points.
type HTTPForecaster struct {
	endpoint string
	client   *http.Client
}

// NewHTTPForecaster builds a client for the forecasting service at endpoint.
// Requests are bounded by timeout.
func NewHTTPForecaster(endpoint string, timeout time.Duration) *HTTPForecaster {
	return &HTTPForecaster{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type forecastRequest struct {
	Series  []Observation `json:"series"`
	Periods int           `json:"periods"`
}

type forecastResponse struct {
	Points []Point `json:"points"`
}

func (f *HTTPForecaster) Forecast(ctx context.Context, series []Observation, horizon int) ([]Point, error) {
	if err := ValidateHorizon(horizon); err != nil {
		return nil, err
	}
	if len(series) < minObservations {
		return nil, fmt.Errorf("%w: have %d months, need at least %d",
			ErrSeriesTooShort, len(series), minObservations)
	}

	body, err := json.Marshal(forecastRequest{Series: series, Periods: horizon})
	if err != nil {
		return nil, fmt.Errorf("encoding forecast request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building forecast request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: calling service: %w", ErrForecasterUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrForecasterUnavailable, resp.StatusCode, string(payload))
	}

	var out forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrForecasterUnavailable, err)
	}
	if len(out.Points) == 0 {
		return nil, fmt.Errorf("%w: empty point set", ErrForecasterUnavailable)
	}

	infrastructure.LoggerFromContext(ctx).Info("forecast completed",
		"observations", len(series),
		"horizon", horizon,
		"points", len(out.Points),
		"duration", time.Since(start).String())
	return out.Points, nil
}
