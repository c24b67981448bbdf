package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/today-widgets/internal/observability"
	"github.com/i474232898/today-widgets/internal/store"
	"github.com/i474232898/today-widgets/internal/weather"
)

type fakeSource struct {
	body []byte
	err  error
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchForecast(context.Context) ([]byte, error) { return f.body, f.err }

func forecastJSON(n int) []byte {
	entries := make([]string, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, fmt.Sprintf(
			`{"dt":%d,"main":{"temp":%d.6},"weather":[{"id":%d,"main":"Clouds"}],"dt_txt":"2024-04-26 %s"}`,
			1714089600+i*10800, 60+i, 801+i, weather.TimeKeys[i%len(weather.TimeKeys)]))
	}
	return []byte(`{"cod":"200","_id":"upstream","list":[` + strings.Join(entries, ",") + `],"city":{"name":"Princeton"}}`)
}

type fakeInvalidator struct {
	calls int
	err   error
}

func (f *fakeInvalidator) InvalidatePayload(context.Context) error {
	f.calls++
	return f.err
}

func newCollector(t *testing.T, src *fakeSource, st *store.MemoryStore, inv ...PayloadInvalidator) (*Collector, *observability.Metrics) {
	t.Helper()
	table, err := weather.LookupTable(weather.TableUTCMinus5)
	require.NoError(t, err)
	var invalidator PayloadInvalidator
	if len(inv) > 0 {
		invalidator = inv[0]
	}
	m := observability.NewMetricsForTesting()
	c := New(src, st, "weather", weather.NewSummarizer(table), invalidator, m, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.now = func() time.Time { return time.Date(2024, 4, 26, 1, 0, 0, 0, time.UTC) }
	return c, m
}

func TestRefresh(t *testing.T) {
	st := store.NewMemoryStore()
	c, m := newCollector(t, &fakeSource{body: forecastJSON(40)}, st)

	require.NoError(t, c.Refresh(context.Background()))

	doc, err := st.FetchWidget(context.Background(), "weather")
	require.NoError(t, err)
	assert.Equal(t, "weather", doc.Lookup("_id").StringValue())
	assert.Equal(t, "Princeton", doc.Lookup("city", "name").StringValue())
	assert.Equal(t, time.Date(2024, 4, 26, 1, 0, 0, 0, time.UTC), doc.Lookup("fetched_at").Time().UTC())

	rec, err := weather.DecodeRecord(doc)
	require.NoError(t, err)
	assert.Len(t, rec.List, 40)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CollectorRuns.WithLabelValues("ok")))
}

func TestRefresh_FetchErrorKeepsLastGood(t *testing.T) {
	st := store.NewMemoryStore()
	src := &fakeSource{body: forecastJSON(8)}
	c, m := newCollector(t, src, st)
	require.NoError(t, c.Refresh(context.Background()))

	src.body, src.err = nil, errors.New("upstream down")
	err := c.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")

	_, err = st.FetchWidget(context.Background(), "weather")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CollectorRuns.WithLabelValues("fetch_error")))
}

func TestRefresh_RejectsUnsummarizableForecast(t *testing.T) {
	st := store.NewMemoryStore()
	src := &fakeSource{body: forecastJSON(8)}
	c, m := newCollector(t, src, st)
	require.NoError(t, c.Refresh(context.Background()))
	before, err := st.FetchWidget(context.Background(), "weather")
	require.NoError(t, err)

	for _, body := range [][]byte{forecastJSON(3), []byte(`[1,2,3]`), []byte(`not json`)} {
		src.body = body
		require.ErrorIs(t, c.Refresh(context.Background()), weather.ErrMalformedInput)
	}

	after, err := st.FetchWidget(context.Background(), "weather")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CollectorRuns.WithLabelValues("invalid")))
}

func TestRefresh_InvalidatesPayloadOnlyAfterStore(t *testing.T) {
	st := store.NewMemoryStore()
	src := &fakeSource{body: forecastJSON(8)}
	inv := &fakeInvalidator{}
	c, _ := newCollector(t, src, st, inv)

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, 1, inv.calls)

	src.body = forecastJSON(3)
	require.Error(t, c.Refresh(context.Background()))
	assert.Equal(t, 1, inv.calls)

	src.body, src.err = nil, errors.New("upstream down")
	require.Error(t, c.Refresh(context.Background()))
	assert.Equal(t, 1, inv.calls)
}

func TestRefresh_InvalidationFailureIsNotFatal(t *testing.T) {
	st := store.NewMemoryStore()
	inv := &fakeInvalidator{err: errors.New("redis down")}
	c, m := newCollector(t, &fakeSource{body: forecastJSON(8)}, st, inv)

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, 1, inv.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CollectorRuns.WithLabelValues("ok")))
}
