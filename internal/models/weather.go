package models

import "time"

// Location identifies a resolved place as returned by the geocoding upstream.
type Location struct {
	Name        string     `json:"name"`
	Country     string     `json:"country"`
	State       string     `json:"state,omitempty"`
	Coordinates [2]float64 `json:"coordinates"` // [lat, lon]
}

// CurrentConditions holds current weather for a resolved location.
type CurrentConditions struct {
	Temperature   float64 `json:"temperature"`
	FeelsLike     float64 `json:"feelsLike"`
	Humidity      int     `json:"humidity"`
	Pressure      int     `json:"pressure"`
	Visibility    int     `json:"visibility"`
	Description   string  `json:"description"`
	Icon          string  `json:"icon"`
	WindSpeed     float64 `json:"windSpeed"`
	WindDirection int     `json:"windDirection"`
	Cloudiness    int     `json:"cloudiness"`
}

// ForecastSample is one upstream 3-hour forecast data point. The upstream
// embeds the day's min/max temperature in every sample.
type ForecastSample struct {
	Timestamp     time.Time `json:"timestamp"`
	TempMin       float64   `json:"tempMin"`
	TempMax       float64   `json:"tempMax"`
	Description   string    `json:"description"`
	Icon          string    `json:"icon"`
	Humidity      int       `json:"humidity"`
	WindSpeed     float64   `json:"windSpeed"`
	Precipitation float64   `json:"precipitation"` // mm over the 3-hour bucket
}

// TemperatureRange is a min/max pair for one calendar day.
type TemperatureRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DailySummary is one aggregated forecast day.
type DailySummary struct {
	Date          string           `json:"date"` // YYYY-MM-DD, from the sample's own epoch
	DayName       string           `json:"dayName"`
	Temperature   TemperatureRange `json:"temperature"`
	Description   string           `json:"description"`
	Icon          string           `json:"icon"`
	Humidity      int              `json:"humidity"`
	WindSpeed     float64          `json:"windSpeed"`
	Precipitation float64          `json:"precipitation"`
}

// ComparisonResult is one entry of a multi-city comparison. Either the data
// fields or Error is set, never both. City always echoes the request input so
// positions stay attributable even on failure.
type ComparisonResult struct {
	City        string   `json:"city"`
	Country     string   `json:"country,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Description string   `json:"description,omitempty"`
	Humidity    *int     `json:"humidity,omitempty"`
	WindSpeed   *float64 `json:"windSpeed,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// WeatherReport is the response payload for the current-weather endpoint.
type WeatherReport struct {
	Location  Location          `json:"location"`
	Current   CurrentConditions `json:"current"`
	Timestamp time.Time         `json:"timestamp"`
}

// ForecastReport is the response payload for the forecast endpoint.
type ForecastReport struct {
	Location  Location       `json:"location"`
	Forecast  []DailySummary `json:"forecast"`
	Timestamp time.Time      `json:"timestamp"`
}
