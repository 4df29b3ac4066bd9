package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/weatherglass/weatherglass/internal/client"
	"github.com/weatherglass/weatherglass/internal/forecast"
	"github.com/weatherglass/weatherglass/internal/models"
)

// geocodeSearchLimit caps candidate results on the city search endpoint.
const geocodeSearchLimit = 5

// WeatherService resolves city names through the geocoding upstream and
// composes weather, forecast, search and comparison responses.
type WeatherService struct {
	client     client.WeatherClient
	legTimeout time.Duration
}

// NewWeatherService creates a WeatherService. legTimeout bounds each per-city
// lookup inside a comparison so one stalled city cannot stall the batch.
func NewWeatherService(client client.WeatherClient, legTimeout time.Duration) *WeatherService {
	return &WeatherService{
		client:     client,
		legTimeout: legTimeout,
	}
}

// loggerFromContext extracts a zap.Logger from request context if present.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// resolve maps a city name to its best geocoding match.
func (s *WeatherService) resolve(ctx context.Context, city string) (models.Location, error) {
	locations, err := s.client.Geocode(ctx, city, 1)
	if err != nil {
		return models.Location{}, fmt.Errorf("resolve %s: %w", city, err)
	}
	// Geocode contracts zero matches to an error; guard anyway so a
	// permissive implementation cannot panic the handler.
	if len(locations) == 0 {
		return models.Location{}, fmt.Errorf("resolve %s: %w", city, client.ErrCityNotFound)
	}
	return locations[0], nil
}

// Current returns current conditions for the named city.
func (s *WeatherService) Current(ctx context.Context, city string) (models.WeatherReport, error) {
	start := time.Now()
	loc, err := s.resolve(ctx, city)
	if err != nil {
		return models.WeatherReport{}, err
	}

	conditions, err := s.client.CurrentWeather(ctx, loc.Coordinates[0], loc.Coordinates[1])
	if err != nil {
		return models.WeatherReport{}, fmt.Errorf("current weather for %s: %w", city, err)
	}

	if logger := loggerFromContext(ctx); logger != nil {
		logger.Debug("current weather served",
			zap.String("city", city),
			zap.Duration("duration", time.Since(start)))
	}
	return models.WeatherReport{
		Location:  loc,
		Current:   conditions,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Forecast returns up to five daily summaries for the named city, bucketed
// from the upstream 3-hourly feed.
func (s *WeatherService) Forecast(ctx context.Context, city string) (models.ForecastReport, error) {
	loc, err := s.resolve(ctx, city)
	if err != nil {
		return models.ForecastReport{}, err
	}

	samples, err := s.client.Forecast(ctx, loc.Coordinates[0], loc.Coordinates[1])
	if err != nil {
		return models.ForecastReport{}, fmt.Errorf("forecast for %s: %w", city, err)
	}

	return models.ForecastReport{
		Location:  loc,
		Forecast:  forecast.Aggregate(samples),
		Timestamp: time.Now().UTC(),
	}, nil
}

// SearchCities returns geocoding candidates for a free-form query.
func (s *WeatherService) SearchCities(ctx context.Context, query string) ([]models.Location, error) {
	locations, err := s.client.Geocode(ctx, query, geocodeSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", query, err)
	}
	return locations, nil
}
