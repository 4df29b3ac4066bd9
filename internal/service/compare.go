package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/weatherglass/weatherglass/internal/client"
	"github.com/weatherglass/weatherglass/internal/models"
	"github.com/weatherglass/weatherglass/internal/observability"
)

// MaxCompareCities bounds a comparison batch.
const MaxCompareCities = 5

// ErrNoCities is returned when a comparison request carries no cities.
var ErrNoCities = errors.New("at least one city is required")

// ErrTooManyCities is returned when a comparison request exceeds MaxCompareCities.
var ErrTooManyCities = errors.New("at most 5 cities can be compared")

// Compare runs one weather lookup per city concurrently and returns a result
// slice positionally matched to the input, regardless of completion order.
// A failing leg (unresolvable city, upstream error, timeout) becomes an error
// entry at its position and never fails the batch; validation errors are the
// only top-level failure and occur before any upstream call.
func (s *WeatherService) Compare(ctx context.Context, cities []string) ([]models.ComparisonResult, error) {
	if len(cities) == 0 {
		return nil, ErrNoCities
	}
	if len(cities) > MaxCompareCities {
		return nil, fmt.Errorf("%w: got %d", ErrTooManyCities, len(cities))
	}
	// A missing credential is a request-wide defect, not a per-city failure:
	// fail the whole batch before any leg starts.
	if !s.client.Configured() {
		return nil, client.ErrNotConfigured
	}

	start := time.Now()
	logger := loggerFromContext(ctx)

	results := make([]models.ComparisonResult, len(cities))
	var wg sync.WaitGroup
	for i, city := range cities {
		wg.Add(1)
		go func(i int, city string) {
			defer wg.Done()
			results[i] = s.compareCity(ctx, city)
		}(i, city)
	}
	wg.Wait()

	failures := 0
	for _, r := range results {
		if r.Error != "" {
			failures++
		}
	}
	observability.CompareBatchSize.Observe(float64(len(cities)))
	if failures > 0 {
		observability.ComparePartialFailuresTotal.Add(float64(failures))
	}
	if logger != nil {
		logger.Debug("comparison complete",
			zap.Int("cities", len(cities)),
			zap.Int("failures", failures),
			zap.Duration("duration", time.Since(start)))
	}
	return results, nil
}

// compareCity runs one geocode-then-weather leg under the per-leg timeout and
// converts any failure into an error entry carrying the input city string.
func (s *WeatherService) compareCity(ctx context.Context, city string) models.ComparisonResult {
	legCtx := ctx
	if s.legTimeout > 0 {
		var cancel context.CancelFunc
		legCtx, cancel = context.WithTimeout(ctx, s.legTimeout)
		defer cancel()
	}

	loc, err := s.resolve(legCtx, city)
	if err != nil {
		return models.ComparisonResult{City: city, Error: legErrorMessage(err)}
	}
	conditions, err := s.client.CurrentWeather(legCtx, loc.Coordinates[0], loc.Coordinates[1])
	if err != nil {
		return models.ComparisonResult{City: city, Error: legErrorMessage(err)}
	}

	return models.ComparisonResult{
		City:        city,
		Country:     loc.Country,
		Temperature: &conditions.Temperature,
		Description: conditions.Description,
		Humidity:    &conditions.Humidity,
		WindSpeed:   &conditions.WindSpeed,
	}
}

// legErrorMessage maps an upstream error to a user-safe description for one
// comparison entry.
func legErrorMessage(err error) string {
	switch {
	case errors.Is(err, client.ErrCityNotFound):
		return "city not found"
	case errors.Is(err, client.ErrNotConfigured):
		return "weather service not configured"
	case errors.Is(err, context.DeadlineExceeded):
		return "weather lookup timed out"
	default:
		return "unable to fetch weather data"
	}
}
