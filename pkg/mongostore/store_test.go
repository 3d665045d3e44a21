package mongostore

import (
	"context"
	"errors"
	"testing"

	analytic "github.com/goliatone/go-analytics-embed/components/analytic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestNewRequiresCollection(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestMapError(t *testing.T) {
	assert.True(t, analytic.IsNotFound(mapError("a-1", "load", mongo.ErrNoDocuments)))

	err := mapError("a-1", "load", errors.New("socket closed"))
	assert.False(t, analytic.IsNotFound(err))
	assert.Contains(t, err.Error(), "mongostore: load a-1")
}

func TestStoreAgainstMockDeployment(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("load decodes the stored analytic", func(mt *mtest.T) {
		store, err := New(mt.Coll)
		require.NoError(mt, err)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "a-1"},
			{Key: "name", Value: "Global Reach"},
			{Key: "data", Value: bson.D{
				{Key: "colorScheme", Value: "dark"},
				{Key: "embedOption", Value: "both"},
				{Key: "width", Value: 800},
			}},
		}))

		record, err := store.Load(context.Background(), "a-1")
		require.NoError(mt, err)
		assert.Equal(mt, "Global Reach", record.Name)
		assert.Equal(mt, analytic.SchemeDark, record.Config.ColorScheme)
		assert.Equal(mt, analytic.EmbedBoth, record.Config.EmbedOption)
		assert.Equal(mt, 800, record.Config.Width)
	})

	mt.Run("load maps a missing document", func(mt *mtest.T) {
		store, err := New(mt.Coll)
		require.NoError(mt, err)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err = store.Load(context.Background(), "missing")
		assert.True(mt, analytic.IsNotFound(err))
	})

	mt.Run("create inserts with a generated id", func(mt *mtest.T) {
		store, err := New(mt.Coll)
		require.NoError(mt, err)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		record, err := store.Create(context.Background(), "  Texas Map ", analytic.DefaultConfig())
		require.NoError(mt, err)
		assert.NotEmpty(mt, record.ID)
		assert.Equal(mt, "Texas Map", record.Name)
	})
}
