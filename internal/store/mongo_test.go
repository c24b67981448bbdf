package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMockMongoStore(mt *mtest.T) *MongoStore {
	return &MongoStore{client: mt.Client, coll: mt.Coll}
}

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("fetch existing widget", func(mt *mtest.T) {
		s := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "dhall"}, {Key: "open", Value: true}}))

		doc, err := s.FetchWidget(context.Background(), "dhall")
		require.NoError(mt, err)
		assert.Equal(mt, "dhall", doc.Lookup("_id").StringValue())
		assert.True(mt, doc.Lookup("open").Boolean())

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "find", started.CommandName)
		assert.Equal(mt, "dhall", started.Command.Lookup("filter", "_id").StringValue())
	})

	mt.Run("missing widget maps to ErrNotFound", func(mt *mtest.T) {
		s := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		_, err := s.FetchWidget(context.Background(), "prince")
		require.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("server error is not ErrNotFound", func(mt *mtest.T) {
		s := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "bad filter",
		}))

		_, err := s.FetchWidget(context.Background(), "weather")
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, ErrNotFound)
		assert.Contains(mt, err.Error(), `find widget "weather"`)
	})

	mt.Run("upsert replaces by id", func(mt *mtest.T) {
		s := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		doc, err := bson.Marshal(bson.D{{Key: "_id", Value: "weather"}, {Key: "list", Value: bson.A{}}})
		require.NoError(mt, err)
		require.NoError(mt, s.UpsertWidget(context.Background(), "weather", doc))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)
		update := started.Command.Lookup("updates", "0").Document()
		assert.Equal(mt, "weather", update.Lookup("q", "_id").StringValue())
		assert.True(mt, update.Lookup("upsert").Boolean())
		_, err = update.Lookup("u", "list").Array().Values()
		assert.NoError(mt, err)
	})

	mt.Run("upsert write error", func(mt *mtest.T) {
		s := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key",
		}))

		doc, err := bson.Marshal(bson.D{{Key: "_id", Value: "weather"}})
		require.NoError(mt, err)
		err = s.UpsertWidget(context.Background(), "weather", doc)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), `upsert widget "weather"`)
	})

	mt.Run("ping", func(mt *mtest.T) {
		s := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, s.Ping(context.Background()))

		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "not authorized",
		}))
		require.Error(mt, s.Ping(context.Background()))
	})
}
