package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/weatherglass/weatherglass/internal/observability"
	"github.com/weatherglass/weatherglass/internal/ratelimit"
)

// NewRouter wires all routes and the middleware chain. The per-IP rate limit
// gates every route, including /health and unmatched paths, before any
// business logic runs.
func NewRouter(handler *Handler, logger *zap.Logger, limiter *ratelimit.Limiter, requestTimeout time.Duration) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.Use(RateLimitMiddleware(limiter))

	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler()).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(TimeoutMiddleware(requestTimeout))
	api.HandleFunc("/weather/current/{city}", handler.GetCurrentWeather).Methods("GET")
	api.HandleFunc("/weather/forecast/{city}", handler.GetForecast).Methods("GET")
	api.HandleFunc("/weather/compare", handler.PostCompare).Methods("POST")
	api.HandleFunc("/cities/search/{query}", handler.SearchCities).Methods("GET")

	router.NotFoundHandler = notFoundChain(handler, logger, limiter)
	return router
}

// notFoundChain keeps correlation IDs, metrics and the quota on unmatched
// routes; mux does not run router middleware for the NotFoundHandler.
func notFoundChain(handler *Handler, logger *zap.Logger, limiter *ratelimit.Limiter) http.Handler {
	var h http.Handler = http.HandlerFunc(handler.NotFound)
	h = RateLimitMiddleware(limiter)(h)
	h = MetricsMiddleware(h)
	h = CorrelationIDMiddleware(logger)(h)
	return h
}
