// Package collector keeps the stored weather widget current by copying the
// upstream forecast into the widgets collection.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/i474232898/today-widgets/internal/observability"
	"github.com/i474232898/today-widgets/internal/weather"
)

// ForecastSource returns the upstream forecast as JSON.
type ForecastSource interface {
	Name() string
	FetchForecast(ctx context.Context) ([]byte, error)
}

// WidgetWriter is the write side of the widgets collection.
type WidgetWriter interface {
	UpsertWidget(ctx context.Context, id string, doc bson.Raw) error
}

// PayloadInvalidator drops data derived from the stored widgets, such as
// the cached dashboard payload.
type PayloadInvalidator interface {
	InvalidatePayload(ctx context.Context) error
}

// Collector refreshes one forecast widget.
type Collector struct {
	source      ForecastSource
	store       WidgetWriter
	widgetID    string
	summarizer  *weather.Summarizer
	invalidator PayloadInvalidator
	metrics     *observability.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// New creates a Collector writing the forecast under widgetID. The
// summarizer is used to reject forecasts the dashboard could not serve.
// After each stored refresh the invalidator, if not nil, is told to drop
// the cached payload.
func New(
	source ForecastSource,
	store WidgetWriter,
	widgetID string,
	summarizer *weather.Summarizer,
	invalidator PayloadInvalidator,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Collector {
	return &Collector{
		source:      source,
		store:       store,
		widgetID:    widgetID,
		summarizer:  summarizer,
		invalidator: invalidator,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// Refresh fetches the forecast and replaces the stored widget. When the
// fetch fails or the forecast cannot be summarized, the last good document
// stays in place and the error is returned.
func (c *Collector) Refresh(ctx context.Context) error {
	body, err := c.source.FetchForecast(ctx)
	if err != nil {
		c.metrics.CollectorRuns.WithLabelValues("fetch_error").Inc()
		return fmt.Errorf("fetch forecast from %s: %w", c.source.Name(), err)
	}

	doc, err := c.buildDocument(body)
	if err != nil {
		c.metrics.CollectorRuns.WithLabelValues("invalid").Inc()
		return err
	}

	if err := c.store.UpsertWidget(ctx, c.widgetID, doc); err != nil {
		c.metrics.CollectorRuns.WithLabelValues("store_error").Inc()
		return fmt.Errorf("store forecast: %w", err)
	}

	if c.invalidator != nil {
		if err := c.invalidator.InvalidatePayload(ctx); err != nil {
			// The stale payload expires with its TTL.
			c.logger.Warn("payload cache invalidation failed", "error", err)
		}
	}

	c.metrics.CollectorRuns.WithLabelValues("ok").Inc()
	c.logger.Info("weather widget refreshed", "widget", c.widgetID, "source", c.source.Name(), "bytes", len(doc))
	return nil
}

// buildDocument converts the upstream JSON into a widget document keyed by
// the widget id, checking that it summarizes cleanly.
func (c *Collector) buildDocument(body []byte) (bson.Raw, error) {
	var fields bson.D
	if err := bson.UnmarshalExtJSON(body, false, &fields); err != nil {
		return nil, fmt.Errorf("%w: forecast is not a JSON object: %v", weather.ErrMalformedInput, err)
	}

	doc := bson.D{{Key: "_id", Value: c.widgetID}}
	for _, f := range fields {
		if f.Key == "_id" || f.Key == "fetched_at" {
			continue
		}
		doc = append(doc, f)
	}
	doc = append(doc, bson.E{Key: "fetched_at", Value: c.now().UTC()})

	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode forecast: %w", err)
	}

	rec, err := weather.DecodeRecord(raw)
	if err != nil {
		return nil, err
	}
	if _, err := c.summarizer.Summarize(rec); err != nil {
		return nil, fmt.Errorf("forecast rejected: %w", err)
	}
	return raw, nil
}
