package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/finsight/internal/app"
	"github.com/noah-isme/finsight/internal/insights"
	"github.com/noah-isme/finsight/internal/insights/gemini"
	insightshttp "github.com/noah-isme/finsight/internal/insights/http"
	"github.com/noah-isme/finsight/internal/observability"
	"github.com/noah-isme/finsight/internal/platform/cache"
)

const shutdownGrace = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var redisClient *redis.Client
	if cfg.CacheEnabled() {
		redisClient, err = cache.New(ctx, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Warn("insights cache disabled", slog.Any("error", err))
		}
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	provider := gemini.NewProvider(logger, gemini.Options{BaseURL: cfg.GeminiBaseURL})
	insightsService := insights.NewService(cfg.Insights(), provider, insights.ServiceOptions{
		Logger:   logger,
		Recorder: metrics,
		Cache:    insights.NewCache(redisClient, cfg.InsightsCacheTTL),
	})
	if !insightsService.Configured() {
		logger.Warn("GEMINI_API_KEY is not set, AI insights requests will fail")
	}
	insightsHandler := insightshttp.NewHandler(logger, insightsService, insightshttp.Options{
		MaxBodyBytes: cfg.InsightsMaxBodyBytes,
		RateLimit:    cfg.InsightsRateLimit,
	})

	frontend, err := app.NewFrontend(cfg, logger)
	if err != nil {
		logger.Error("build frontend", slog.Any("error", err))
		os.Exit(1)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		InsightsHandler: insightsHandler,
		Frontend:        frontend,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("env", cfg.AppEnv),
			slog.Bool("gemini", cfg.HasGemini()),
			slog.Bool("cache", redisClient != nil),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
