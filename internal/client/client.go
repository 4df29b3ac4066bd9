package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/weatherglass/weatherglass/internal/models"
	"github.com/weatherglass/weatherglass/internal/observability"
)

// WeatherClient is the upstream provider contract consumed by the service layer.
// Geocode returns at least one location on success: zero matches must be
// reported as an error wrapping ErrCityNotFound, never as an empty slice.
type WeatherClient interface {
	Geocode(ctx context.Context, query string, limit int) ([]models.Location, error)
	CurrentWeather(ctx context.Context, lat, lon float64) (models.CurrentConditions, error)
	Forecast(ctx context.Context, lat, lon float64) ([]models.ForecastSample, error)
	Configured() bool
}

var (
	ErrNotConfigured       = errors.New("weather API key not configured")
	ErrInvalidAPIKey       = errors.New("invalid API key")
	ErrCityNotFound        = errors.New("city not found")
	ErrUpstreamFailure     = errors.New("upstream failure")
	ErrUpstreamRateLimited = errors.New("upstream rate limited")
)

// OpenWeatherClient talks to the OpenWeather geocoding and weather APIs.
// Outbound calls pass through an optional x/time rate limiter and an optional
// circuit breaker; there is no retry logic, failures surface immediately.
type OpenWeatherClient struct {
	apiKey      string
	geoURL      string
	weatherURL  string
	forecastURL string
	timeout     time.Duration
	client      *http.Client
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
}

// NewOpenWeatherClient returns a client for the given endpoints. An empty
// apiKey is allowed: the process still serves, every weather endpoint then
// short-circuits with a configuration error via Configured.
func NewOpenWeatherClient(apiKey, geoURL, weatherURL, forecastURL string, timeout time.Duration) *OpenWeatherClient {
	return &OpenWeatherClient{
		apiKey:      apiKey,
		geoURL:      geoURL,
		weatherURL:  weatherURL,
		forecastURL: forecastURL,
		timeout:     timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetRateLimiter throttles outbound upstream calls. Waits (bounded by the
// request context) rather than failing when the limit is hit.
func (c *OpenWeatherClient) SetRateLimiter(l *rate.Limiter) {
	c.limiter = l
}

// SetCircuitBreaker routes all upstream calls through cb.
func (c *OpenWeatherClient) SetCircuitBreaker(cb *gobreaker.CircuitBreaker) {
	c.breaker = cb
}

// Configured reports whether an API credential is present.
func (c *OpenWeatherClient) Configured() bool {
	return c.apiKey != ""
}

type geocodeEntry struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state"`
}

type currentResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Visibility int `json:"visibility"`
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			TempMin  float64 `json:"temp_min"`
			TempMax  float64 `json:"temp_max"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Rain struct {
			ThreeHour float64 `json:"3h"`
		} `json:"rain"`
	} `json:"list"`
}

// Geocode resolves a free-form place query to candidate locations. Zero
// upstream matches map to ErrCityNotFound.
func (c *OpenWeatherClient) Geocode(ctx context.Context, query string, limit int) ([]models.Location, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	var entries []geocodeEntry
	if err := c.getJSON(ctx, "geocode", c.geoURL, params, &entries); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCityNotFound, query)
	}

	locations := make([]models.Location, 0, len(entries))
	for _, e := range entries {
		locations = append(locations, models.Location{
			Name:        e.Name,
			Country:     e.Country,
			State:       e.State,
			Coordinates: [2]float64{e.Lat, e.Lon},
		})
	}
	return locations, nil
}

// CurrentWeather fetches current conditions for the given coordinates.
func (c *OpenWeatherClient) CurrentWeather(ctx context.Context, lat, lon float64) (models.CurrentConditions, error) {
	if !c.Configured() {
		return models.CurrentConditions{}, ErrNotConfigured
	}
	var resp currentResponse
	if err := c.getJSON(ctx, "current", c.weatherURL, coordParams(lat, lon), &resp); err != nil {
		return models.CurrentConditions{}, err
	}

	conditions := models.CurrentConditions{
		Temperature:   resp.Main.Temp,
		FeelsLike:     resp.Main.FeelsLike,
		Humidity:      resp.Main.Humidity,
		Pressure:      resp.Main.Pressure,
		Visibility:    resp.Visibility,
		WindSpeed:     resp.Wind.Speed,
		WindDirection: resp.Wind.Deg,
		Cloudiness:    resp.Clouds.All,
	}
	if len(resp.Weather) > 0 {
		conditions.Description = resp.Weather[0].Description
		conditions.Icon = resp.Weather[0].Icon
	}
	return conditions, nil
}

// Forecast fetches the 3-hourly forecast feed for the given coordinates in
// upstream order. Aggregation into daily summaries is the caller's concern.
func (c *OpenWeatherClient) Forecast(ctx context.Context, lat, lon float64) ([]models.ForecastSample, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	var resp forecastResponse
	if err := c.getJSON(ctx, "forecast", c.forecastURL, coordParams(lat, lon), &resp); err != nil {
		return nil, err
	}

	samples := make([]models.ForecastSample, 0, len(resp.List))
	for _, item := range resp.List {
		s := models.ForecastSample{
			Timestamp:     time.Unix(item.Dt, 0).UTC(),
			TempMin:       item.Main.TempMin,
			TempMax:       item.Main.TempMax,
			Humidity:      item.Main.Humidity,
			WindSpeed:     item.Wind.Speed,
			Precipitation: item.Rain.ThreeHour,
		}
		if len(item.Weather) > 0 {
			s.Description = item.Weather[0].Description
			s.Icon = item.Weather[0].Icon
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func coordParams(lat, lon float64) url.Values {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("units", "metric")
	return params
}

// getJSON performs one upstream GET and decodes the JSON body into out.
// Applies the outbound rate limiter and circuit breaker when configured.
func (c *OpenWeatherClient) getJSON(ctx context.Context, operation, base string, params url.Values, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("outbound limiter: %w", err)
		}
	}
	if c.breaker != nil {
		_, err := c.breaker.Execute(func() (interface{}, error) {
			return nil, c.doCall(ctx, operation, base, params, out)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: circuit open", ErrUpstreamFailure)
		}
		return err
	}
	return c.doCall(ctx, operation, base, params, out)
}

func (c *OpenWeatherClient) doCall(ctx context.Context, operation, base string, params url.Values, out interface{}) error {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, base, params)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(operation, "error").Inc()
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.UpstreamCallsTotal.WithLabelValues(operation, "error").Inc()
		observability.UpstreamCallDuration.WithLabelValues(operation, "error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("request timeout: %w", err)
		}
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.UpstreamCallsTotal.WithLabelValues(operation, status).Inc()
	observability.UpstreamCallDuration.WithLabelValues(operation, status).Observe(duration)

	if err := c.handleErrorResponse(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *OpenWeatherClient) buildRequest(ctx context.Context, base string, params url.Values) (*http.Request, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	params.Set("appid", c.apiKey)
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if corrID := extractCorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}
	return req, nil
}

func (c *OpenWeatherClient) handleErrorResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: upstream rejected credential", ErrInvalidAPIKey)
	case http.StatusNotFound:
		return fmt.Errorf("%w", ErrCityNotFound)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w", ErrUpstreamRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}
	return nil
}

func extractCorrelationID(ctx context.Context) string {
	if v := ctx.Value("correlation_id"); v != nil {
		if corrID, ok := v.(string); ok {
			return corrID
		}
	}
	return ""
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
