package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMemoryStore_FetchMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.FetchWidget(context.Background(), "weather")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UpsertAndFetch(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first, err := bson.Marshal(bson.M{"_id": "dhall", "menu": "soup"})
	require.NoError(t, err)
	require.NoError(t, s.UpsertWidget(ctx, "dhall", first))

	second, err := bson.Marshal(bson.M{"_id": "dhall", "menu": "pasta"})
	require.NoError(t, err)
	require.NoError(t, s.UpsertWidget(ctx, "dhall", second))

	got, err := s.FetchWidget(ctx, "dhall")
	require.NoError(t, err)
	assert.Equal(t, "pasta", got.Lookup("menu").StringValue())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	doc, err := bson.Marshal(bson.M{"_id": "prince", "title": "a"})
	require.NoError(t, err)
	require.NoError(t, s.UpsertWidget(ctx, "prince", doc))

	got, err := s.FetchWidget(ctx, "prince")
	require.NoError(t, err)
	for i := range got {
		got[i] = 0
	}

	again, err := s.FetchWidget(ctx, "prince")
	require.NoError(t, err)
	assert.Equal(t, "a", again.Lookup("title").StringValue())
}

func TestMemoryStore_RejectsInvalidDocument(t *testing.T) {
	s := NewMemoryStore()

	err := s.UpsertWidget(context.Background(), "weather", bson.Raw{0x01, 0x02})
	require.Error(t, err)
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FetchWidget(ctx, "weather")
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, s.Ping(ctx), context.Canceled)
}
