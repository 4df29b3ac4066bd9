package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/weatherglass/weatherglass/internal/client"
	"github.com/weatherglass/weatherglass/internal/config"
	httphandler "github.com/weatherglass/weatherglass/internal/http"
	"github.com/weatherglass/weatherglass/internal/lifecycle"
	"github.com/weatherglass/weatherglass/internal/observability"
	"github.com/weatherglass/weatherglass/internal/ratelimit"
	"github.com/weatherglass/weatherglass/internal/service"
)

const version = "1.0.0"

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	if cfg.WeatherAPIKey == "" {
		logger.Warn("WEATHER_API_KEY not set; weather endpoints will return configuration errors")
	}

	weatherClient := client.NewOpenWeatherClient(
		cfg.WeatherAPIKey,
		cfg.GeoURL,
		cfg.WeatherURL,
		cfg.ForecastURL,
		cfg.UpstreamTimeout,
	)
	weatherClient.SetRateLimiter(rate.NewLimiter(rate.Limit(cfg.UpstreamRPS), cfg.UpstreamBurst))

	if cfg.CircuitBreakerEnabled {
		failureThreshold := cfg.CircuitBreakerFailureThreshold
		cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "openweather",
			Timeout: cfg.CircuitBreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Info("circuit breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
		weatherClient.SetCircuitBreaker(cb)
		logger.Info("circuit breaker enabled",
			zap.Uint32("failure_threshold", failureThreshold),
			zap.Duration("timeout", cfg.CircuitBreakerTimeout))
	}

	weatherService := service.NewWeatherService(weatherClient, cfg.UpstreamTimeout)
	limiter := ratelimit.NewDefault()
	handler := httphandler.NewHandler(weatherService, logger, version)
	router := httphandler.NewRouter(handler, logger, limiter, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", ":"+cfg.ServerPort),
			zap.String("version", version),
			zap.Int("rate_limit_capacity", limiter.Capacity()),
			zap.Duration("rate_limit_window", limiter.Window()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed",
			zap.Error(err),
			zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
