package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/weatherglass/weatherglass/internal/client"
	"github.com/weatherglass/weatherglass/internal/models"
)

func multiCityMock() map[string]mockCity {
	cities := map[string]mockCity{}
	coords := map[string][2]float64{
		"Toronto": {43.65, -79.38},
		"Paris":   {48.85, 2.35},
		"Tokyo":   {35.68, 139.69},
		"Lima":    {-12.04, -77.04},
		"Oslo":    {59.91, 10.75},
	}
	temps := map[string]float64{"Toronto": 21.5, "Paris": 18.0, "Tokyo": 27.3, "Lima": 16.2, "Oslo": 11.9}
	for name, c := range coords {
		cities[name] = mockCity{
			location: models.Location{Name: name, Country: "XX", Coordinates: c},
			conditions: models.CurrentConditions{
				Temperature: temps[name],
				Humidity:    50,
				WindSpeed:   3.1,
				Description: "clear sky",
			},
		}
	}
	return cities
}

// TestCompare_PreservesInputOrder verifies output positions match the input
// even when the last requested city resolves first.
func TestCompare_PreservesInputOrder(t *testing.T) {
	cities := multiCityMock()
	// Toronto is slowest, Oslo instant: completion order is the reverse of
	// input order.
	slow := cities["Toronto"]
	slow.delay = 80 * time.Millisecond
	cities["Toronto"] = slow
	mid := cities["Paris"]
	mid.delay = 40 * time.Millisecond
	cities["Paris"] = mid

	mock := newMockClient(cities)
	svc := NewWeatherService(mock, time.Second)

	input := []string{"Toronto", "Paris", "Oslo"}
	results, err := svc.Compare(context.Background(), input)
	if err != nil {
		t.Fatalf("Compare() error: %v", err)
	}
	if len(results) != len(input) {
		t.Fatalf("Compare() returned %d results, want %d", len(results), len(input))
	}
	for i, city := range input {
		if results[i].City != city {
			t.Errorf("results[%d].City = %q, want %q", i, results[i].City, city)
		}
		if results[i].Error != "" {
			t.Errorf("results[%d].Error = %q, want success", i, results[i].Error)
		}
	}
	if *results[0].Temperature != 21.5 || *results[2].Temperature != 11.9 {
		t.Errorf("temperatures out of position: %v, %v", *results[0].Temperature, *results[2].Temperature)
	}
}

// TestCompare_RunsConcurrently verifies legs are not executed sequentially:
// total latency is bounded by the slowest leg, not the sum.
func TestCompare_RunsConcurrently(t *testing.T) {
	cities := multiCityMock()
	for _, name := range []string{"Toronto", "Paris", "Tokyo", "Lima", "Oslo"} {
		c := cities[name]
		c.delay = 60 * time.Millisecond
		cities[name] = c
	}
	mock := newMockClient(cities)
	svc := NewWeatherService(mock, time.Second)

	start := time.Now()
	results, err := svc.Compare(context.Background(), []string{"Toronto", "Paris", "Tokyo", "Lima", "Oslo"})
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Compare() error: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("Compare() returned %d results, want 5", len(results))
	}
	// Sequential execution would take >= 300ms.
	if elapsed > 200*time.Millisecond {
		t.Errorf("Compare() took %s, expected concurrent execution", elapsed)
	}
}

// TestCompare_PartialFailureIsolation verifies a failing city yields an error
// entry at its position while siblings succeed and no top-level error occurs.
func TestCompare_PartialFailureIsolation(t *testing.T) {
	mock := newMockClient(multiCityMock())
	svc := NewWeatherService(mock, time.Second)

	results, err := svc.Compare(context.Background(), []string{"Toronto", "Nonexistent City", "Paris"})
	if err != nil {
		t.Fatalf("Compare() error: %v, want nil despite failing leg", err)
	}
	if len(results) != 3 {
		t.Fatalf("Compare() returned %d results, want 3", len(results))
	}

	if results[0].Error != "" || results[0].Temperature == nil {
		t.Errorf("results[0] = %+v, want success", results[0])
	}
	if results[1].City != "Nonexistent City" || results[1].Error != "city not found" {
		t.Errorf("results[1] = %+v, want not-found error entry", results[1])
	}
	if results[1].Temperature != nil {
		t.Error("failed entry carries a temperature")
	}
	if results[2].Error != "" || results[2].Temperature == nil {
		t.Errorf("results[2] = %+v, want success", results[2])
	}
}

// TestCompare_TimeoutBecomesErrorEntry verifies a stalled leg resolves to a
// failure entry instead of stalling or failing the batch.
func TestCompare_TimeoutBecomesErrorEntry(t *testing.T) {
	cities := multiCityMock()
	stalled := cities["Tokyo"]
	stalled.delay = 500 * time.Millisecond
	cities["Tokyo"] = stalled

	mock := newMockClient(cities)
	svc := NewWeatherService(mock, 50*time.Millisecond)

	results, err := svc.Compare(context.Background(), []string{"Toronto", "Tokyo"})
	if err != nil {
		t.Fatalf("Compare() error: %v", err)
	}
	if results[0].Error != "" {
		t.Errorf("results[0].Error = %q, want success", results[0].Error)
	}
	if results[1].Error != "weather lookup timed out" {
		t.Errorf("results[1].Error = %q, want timeout message", results[1].Error)
	}
}

// TestCompare_ValidationBeforeUpstream verifies empty and oversized inputs are
// rejected without any upstream call.
func TestCompare_ValidationBeforeUpstream(t *testing.T) {
	mock := newMockClient(multiCityMock())
	svc := NewWeatherService(mock, time.Second)

	if _, err := svc.Compare(context.Background(), nil); !errors.Is(err, ErrNoCities) {
		t.Errorf("Compare(nil) err = %v, want ErrNoCities", err)
	}
	six := []string{"a", "b", "c", "d", "e", "f"}
	if _, err := svc.Compare(context.Background(), six); !errors.Is(err, ErrTooManyCities) {
		t.Errorf("Compare(6 cities) err = %v, want ErrTooManyCities", err)
	}

	if geo, weather := mock.calls(); geo != 0 || weather != 0 {
		t.Errorf("upstream calls = (%d, %d), want none before validation", geo, weather)
	}
}

// TestCompare_NotConfiguredFailsBatch verifies a missing credential fails the
// whole comparison up front instead of producing per-city error entries.
func TestCompare_NotConfiguredFailsBatch(t *testing.T) {
	mock := newMockClient(multiCityMock())
	mock.configured = false
	svc := NewWeatherService(mock, time.Second)

	_, err := svc.Compare(context.Background(), []string{"Toronto", "Paris"})
	if !errors.Is(err, client.ErrNotConfigured) {
		t.Fatalf("Compare() err = %v, want ErrNotConfigured", err)
	}
	if geo, weather := mock.calls(); geo != 0 || weather != 0 {
		t.Errorf("upstream calls = (%d, %d), want none when not configured", geo, weather)
	}
}

// TestCompare_LengthsOneThroughFive verifies output length equals input length
// across the allowed range.
func TestCompare_LengthsOneThroughFive(t *testing.T) {
	all := []string{"Toronto", "Paris", "Tokyo", "Lima", "Oslo"}
	mock := newMockClient(multiCityMock())
	svc := NewWeatherService(mock, time.Second)

	for n := 1; n <= 5; n++ {
		results, err := svc.Compare(context.Background(), all[:n])
		if err != nil {
			t.Fatalf("Compare(%d cities) error: %v", n, err)
		}
		if len(results) != n {
			t.Errorf("Compare(%d cities) returned %d results", n, len(results))
		}
	}
}
