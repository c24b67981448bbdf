// Command weather-summary prints the five-entry summary of the stored
// weather widget as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/i474232898/today-widgets/internal/config"
	"github.com/i474232898/today-widgets/internal/dashboard"
	"github.com/i474232898/today-widgets/internal/observability"
	"github.com/i474232898/today-widgets/internal/store"
	"github.com/i474232898/today-widgets/internal/weather"
)

func main() {
	table := flag.String("table", "", "time label table ("+strings.Join(weather.TableNames(), ", ")+"); defaults to TIME_LABEL_TABLE")
	pretty := flag.Bool("pretty", false, "indent the JSON output")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "weather-summary:", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	if *table == "" {
		*table = cfg.TimeLabelTable
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoTimeout)
	defer cancel()

	if cfg.StoreDriver != "mongo" {
		logger.Error("weather-summary reads the mongo widget store", "store_driver", cfg.StoreDriver)
		os.Exit(1)
	}
	st, err := store.NewMongoStore(ctx, store.MongoConfig{
		URI:        cfg.MongoURI,
		Database:   cfg.MongoDatabase,
		Collection: cfg.MongoCollection,
		Timeout:    cfg.MongoTimeout,
	})
	if err != nil {
		logger.Error("connect widget store", "error", err)
		os.Exit(1)
	}
	defer st.Close(context.Background())

	if err := printSummary(ctx, os.Stdout, st, cfg.WeatherWidgetID, *table, *pretty, logger); err != nil {
		logger.Error("weather summary failed", "widget", cfg.WeatherWidgetID, "error", err)
		cancel()
		os.Exit(1)
	}
}

// printSummary summarizes the weather widget with the named label table and
// writes the result to w.
func printSummary(ctx context.Context, w io.Writer, st dashboard.WidgetStore, widgetID, tableName string, pretty bool, logger *slog.Logger) error {
	table, err := weather.LookupTable(tableName)
	if err != nil {
		return err
	}

	svc := dashboard.NewService(st, weather.NewSummarizer(table), nil, dashboard.Config{
		WeatherWidget: widgetID,
	}, observability.NewUnregisteredMetrics(), logger)

	summary, err := svc.WeatherSummary(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(summary)
}
