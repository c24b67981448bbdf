package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/i474232898/today-widgets/internal/cache"
	"github.com/i474232898/today-widgets/internal/observability"
	"github.com/i474232898/today-widgets/internal/store"
	"github.com/i474232898/today-widgets/internal/weather"
)

// WeatherKey is the payload key the weather summary is published under,
// regardless of the stored document's id.
const WeatherKey = "weather"

const payloadCacheKey = "dashboard"

// ErrUnknownWidget is returned for widget ids the service does not publish.
var ErrUnknownWidget = errors.New("unknown widget")

// WidgetStore is the read side of the widgets collection.
type WidgetStore interface {
	FetchWidget(ctx context.Context, id string) (bson.Raw, error)
	Ping(ctx context.Context) error
}

// Config selects which widget documents make up the payload.
type Config struct {
	WeatherWidget string
	Passthrough   []string
	CacheTTL      time.Duration
}

// Service assembles the dashboard payload from the stored widgets.
type Service struct {
	store      WidgetStore
	summarizer *weather.Summarizer
	cache      cache.Cache
	cfg        Config
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewService creates a new Service. A nil cache disables payload caching.
func NewService(
	st WidgetStore,
	summarizer *weather.Summarizer,
	c cache.Cache,
	cfg Config,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:      st,
		summarizer: summarizer,
		cache:      c,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
	}
}

// Payload returns the dashboard document as JSON:
// {"weather": [5 summaries], "<passthrough id>": <stored doc or null>, ...}.
func (s *Service) Payload(ctx context.Context) ([]byte, error) {
	if body, ok := s.cached(ctx); ok {
		return body, nil
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		docs    = make(map[string]json.RawMessage, len(s.cfg.Passthrough)+1)
		errs    []error
		summary []weather.Summary
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		sum, err := s.WeatherSummary(ctx)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, err)
			return
		}
		summary = sum
	}()

	for _, id := range s.cfg.Passthrough {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := s.passthrough(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			docs[id] = doc
		}()
	}

	wg.Wait()

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	weatherJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}
	docs[WeatherKey] = weatherJSON

	body, err := json.Marshal(docs)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cfg.CacheTTL > 0 {
		if err := s.cache.Set(ctx, payloadCacheKey, body, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("payload cache write failed", "error", err)
		}
	}
	return body, nil
}

// WeatherSummary fetches the forecast widget and summarizes it.
func (s *Service) WeatherSummary(ctx context.Context) ([]weather.Summary, error) {
	doc, err := s.fetch(ctx, s.cfg.WeatherWidget)
	if err != nil {
		return nil, fmt.Errorf("weather widget %q: %w", s.cfg.WeatherWidget, err)
	}

	rec, err := weather.DecodeRecord(doc)
	if err == nil {
		var sum []weather.Summary
		sum, err = s.summarizer.Summarize(rec)
		if err == nil {
			return sum, nil
		}
	}

	reason := "malformed"
	if errors.Is(err, weather.ErrUnknownTimeLabel) {
		reason = "unknown_time"
	}
	s.metrics.SummarizeErrors.WithLabelValues(reason).Inc()
	s.logger.Error("weather widget cannot be summarized", "widget", s.cfg.WeatherWidget, "error", err)
	return nil, fmt.Errorf("weather widget %q: %w", s.cfg.WeatherWidget, err)
}

// Widget returns one passthrough widget as JSON.
func (s *Service) Widget(ctx context.Context, id string) (json.RawMessage, error) {
	if !slices.Contains(s.cfg.Passthrough, id) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWidget, id)
	}
	doc, err := s.fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("widget %q: %w", id, err)
	}
	return toJSON(doc)
}

// InvalidatePayload drops the cached payload so the next request rebuilds
// it from the store.
func (s *Service) InvalidatePayload(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, payloadCacheKey)
}

// CheckReadiness reports whether the widget store is reachable.
func (s *Service) CheckReadiness(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// passthrough fetches a verbatim widget; a missing document becomes null.
func (s *Service) passthrough(ctx context.Context, id string) (json.RawMessage, error) {
	doc, err := s.fetch(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("passthrough widget missing", "widget", id)
		return json.RawMessage("null"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("widget %q: %w", id, err)
	}
	return toJSON(doc)
}

func (s *Service) fetch(ctx context.Context, id string) (bson.Raw, error) {
	start := time.Now()
	doc, err := s.store.FetchWidget(ctx, id)
	s.metrics.WidgetFetchDuration.WithLabelValues(id).Observe(time.Since(start).Seconds())

	outcome := "ok"
	switch {
	case errors.Is(err, store.ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	s.metrics.WidgetFetches.WithLabelValues(id, outcome).Inc()
	return doc, err
}

func (s *Service) cached(ctx context.Context) ([]byte, bool) {
	if s.cache == nil || s.cfg.CacheTTL <= 0 {
		return nil, false
	}
	body, ok, err := s.cache.Get(ctx, payloadCacheKey)
	switch {
	case err != nil:
		s.metrics.PayloadCache.WithLabelValues("error").Inc()
		s.logger.Warn("payload cache read failed", "error", err)
		return nil, false
	case !ok:
		s.metrics.PayloadCache.WithLabelValues("miss").Inc()
		return nil, false
	}
	s.metrics.PayloadCache.WithLabelValues("hit").Inc()
	return body, true
}

// toJSON renders a stored document as relaxed extended JSON, which is plain
// JSON for strings, numbers, arrays and objects.
func toJSON(doc bson.Raw) (json.RawMessage, error) {
	b, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return nil, fmt.Errorf("render widget: %w", err)
	}
	return json.RawMessage(b), nil
}
