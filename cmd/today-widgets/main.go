package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	httpapi "github.com/i474232898/today-widgets/internal/api/http"
	"github.com/i474232898/today-widgets/internal/cache"
	"github.com/i474232898/today-widgets/internal/collector"
	"github.com/i474232898/today-widgets/internal/config"
	"github.com/i474232898/today-widgets/internal/dashboard"
	"github.com/i474232898/today-widgets/internal/observability"
	"github.com/i474232898/today-widgets/internal/scheduler"
	"github.com/i474232898/today-widgets/internal/store"
	"github.com/i474232898/today-widgets/internal/weather"
	"github.com/i474232898/today-widgets/internal/weather/providers"
)

// widgetStore is satisfied by both the Mongo and the in-memory store.
type widgetStore interface {
	dashboard.WidgetStore
	collector.WidgetWriter
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("service stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()

	table, err := weather.LookupTable(cfg.TimeLabelTable)
	if err != nil {
		return err
	}
	summarizer := weather.NewSummarizer(table)

	// Widget store.
	var st widgetStore
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("using in-memory widget store; documents are lost on restart")
		st = store.NewMemoryStore()
	default:
		mongoStore, err := store.NewMongoStore(ctx, store.MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
			Timeout:    cfg.MongoTimeout,
		})
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := mongoStore.Close(closeCtx); err != nil {
				logger.Error("closing mongo client", "error", err)
			}
		}()
		st = mongoStore
	}

	// Payload cache.
	var payloadCache cache.Cache
	switch {
	case cfg.CacheTTL <= 0:
	case cfg.RedisAddr != "":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		payloadCache = cache.NewRedis(rdb, "today-widgets:")
	default:
		payloadCache = cache.NewMemory(nil)
	}

	service := dashboard.NewService(st, summarizer, payloadCache, dashboard.Config{
		WeatherWidget: cfg.WeatherWidgetID,
		Passthrough:   cfg.PassthroughWidgets,
		CacheTTL:      cfg.CacheTTL,
	}, metrics, logger)

	// Forecast collector keeps the weather widget fresh.
	if cfg.CollectorEnabled() {
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		source := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, cfg.OpenWeatherUnits, cfg.Location)
		coll := collector.New(source, st, cfg.WeatherWidgetID, summarizer, service, metrics, logger)

		sched := scheduler.New(coll, cfg.FetchInterval, cfg.HTTPTimeout*3, logger)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
		logger.Info("forecast collector started",
			"location", cfg.Location.Key(),
			"interval", cfg.FetchInterval.String(),
		)
	} else {
		logger.Info("forecast collector disabled; OPENWEATHER_API_KEY not set")
	}

	app := httpapi.NewApp(service, httpapi.Options{
		AllowOrigins: cfg.CORSAllowOrigins,
		AccessLog:    true,
		Logger:       logger,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "port", cfg.Port, "time_labels", table.Name())
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
	return nil
}
