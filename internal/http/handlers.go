package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/weatherglass/weatherglass/internal/client"
	"github.com/weatherglass/weatherglass/internal/lifecycle"
	"github.com/weatherglass/weatherglass/internal/service"
	"github.com/weatherglass/weatherglass/internal/validation"
)

var validate = validator.New()

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	weatherService *service.WeatherService
	logger         *zap.Logger
	version        string
}

// NewHandler returns a new Handler.
func NewHandler(weatherService *service.WeatherService, logger *zap.Logger, version string) *Handler {
	return &Handler{
		weatherService: weatherService,
		logger:         logger,
		version:        version,
	}
}

// GetHealth handles GET /health. Reports shutting-down with 503 while the
// process is draining so load balancers stop routing new traffic.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	statusCode := http.StatusOK
	if lifecycle.IsShuttingDown() {
		status = "shutting-down"
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
	})
}

// GetCurrentWeather handles GET /api/weather/current/{city}.
func (h *Handler) GetCurrentWeather(w http.ResponseWriter, r *http.Request) {
	city, err := validation.ValidateCity(mux.Vars(r)["city"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Validation Error", err.Error())
		return
	}

	report, err := h.weatherService.Current(r.Context(), city)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetForecast handles GET /api/weather/forecast/{city}.
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	city, err := validation.ValidateCity(mux.Vars(r)["city"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Validation Error", err.Error())
		return
	}

	report, err := h.weatherService.Forecast(r.Context(), city)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// compareRequest is the POST /api/weather/compare body.
type compareRequest struct {
	Cities []string `json:"cities" validate:"required,min=1,max=5,dive,required"`
}

// PostCompare handles POST /api/weather/compare. Validation happens before any
// upstream call; a failing city becomes an error entry at its position and the
// request still returns 200.
func (h *Handler) PostCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation Error", "request body must be JSON with a cities array of strings")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation Error", "cities must contain between 1 and 5 non-empty city names")
		return
	}

	results, err := h.weatherService.Compare(r.Context(), req.Cities)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"comparison": results,
		"timestamp":  time.Now().UTC(),
	})
}

// SearchCities handles GET /api/cities/search/{query}.
func (h *Handler) SearchCities(w http.ResponseWriter, r *http.Request) {
	query, err := validation.ValidateSearchQuery(mux.Vars(r)["query"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Validation Error", err.Error())
		return
	}

	cities, err := h.weatherService.SearchCities(r.Context(), query)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cities":    cities,
		"query":     query,
		"timestamp": time.Now().UTC(),
	})
}

// NotFound handles unmatched routes with the JSON error shape.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not Found", "route not found: "+r.URL.Path)
}

// writeServiceError maps a service or upstream error onto the response
// taxonomy. Bodies stay user-safe; the underlying error goes to the log only.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, label, message := mapError(err)
	writeError(w, status, label, message)

	logger := h.logger
	if l, ok := r.Context().Value("logger").(*zap.Logger); ok && l != nil {
		logger = l
	}
	if logger != nil {
		logger.Debug("request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.String("category", string(client.CategorizeError(err))),
			zap.Error(err))
	}
}

// mapError resolves an error to (status, category label, user-safe message).
func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrNoCities), errors.Is(err, service.ErrTooManyCities):
		return http.StatusBadRequest, "Validation Error", err.Error()
	case errors.Is(err, client.ErrCityNotFound):
		return http.StatusNotFound, "Not Found", "city could not be resolved"
	case errors.Is(err, client.ErrNotConfigured):
		return http.StatusInternalServerError, "Configuration Error", "weather API key not configured"
	case errors.Is(err, client.ErrInvalidAPIKey):
		return http.StatusInternalServerError, "Upstream Error", "weather provider rejected the API credential"
	case errors.Is(err, client.ErrUpstreamRateLimited):
		return http.StatusInternalServerError, "Upstream Error", "weather provider rate limit reached"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusInternalServerError, "Upstream Error", "weather provider timed out"
	default:
		return http.StatusInternalServerError, "Upstream Error", "unable to fetch weather data"
	}
}

// writeJSON writes a JSON response with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the standard {error, message} body.
func writeError(w http.ResponseWriter, status int, label, message string) {
	writeJSON(w, status, map[string]string{
		"error":   label,
		"message": message,
	})
}
