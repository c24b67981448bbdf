package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/i474232898/today-widgets/internal/store"
	"github.com/i474232898/today-widgets/internal/weather"
)

func seedForecast(t *testing.T) *store.MemoryStore {
	t.Helper()
	list := bson.A{}
	for i, ts := range []string{"00:00:00", "03:00:00", "06:00:00", "09:00:00", "12:00:00"} {
		list = append(list, bson.M{
			"main":    bson.M{"temp": 60.7 - float64(i)},
			"dt_txt":  "2024-04-26 " + ts,
			"weather": bson.A{bson.M{"id": "500"}},
		})
	}
	doc, err := bson.Marshal(bson.M{"_id": "weather", "list": list})
	require.NoError(t, err)

	st := store.NewMemoryStore()
	require.NoError(t, st.UpsertWidget(context.Background(), "weather", doc))
	return st
}

func TestPrintSummary(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := seedForecast(t)

	var out bytes.Buffer
	require.NoError(t, printSummary(context.Background(), &out, st, "weather", weather.TableUTCMinus3, false, logger))
	assert.JSONEq(t, `[
		[60, "9 pm", "🌧"], [59, "12 am", "🌧"], [58, "3 am", "🌧"], [57, "6 am", "🌧"], [56, "9 am", "🌧"]
	]`, out.String())

	out.Reset()
	require.NoError(t, printSummary(context.Background(), &out, st, "weather", weather.TableUTCMinus5, true, logger))
	assert.Contains(t, out.String(), "\n  [\n")
	assert.Contains(t, out.String(), `"7 pm"`)
}

func TestPrintSummary_Errors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := printSummary(context.Background(), io.Discard, seedForecast(t), "weather", "utc+13", false, logger)
	require.Error(t, err)

	err = printSummary(context.Background(), io.Discard, store.NewMemoryStore(), "weather", weather.TableUTCMinus5, false, logger)
	require.ErrorIs(t, err, store.ErrNotFound)
}
