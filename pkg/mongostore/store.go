package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	analytic "github.com/goliatone/go-analytics-embed/components/analytic"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultCollection is the collection analytics are stored in.
const DefaultCollection = "analytics"

// document is the stored shape of an analytic.
type document struct {
	ID        string          `bson:"_id"`
	Name      string          `bson:"name"`
	Config    analytic.Config `bson:"data"`
	UpdatedAt time.Time       `bson:"updatedAt"`
}

func (d document) toAnalytic() analytic.Analytic {
	return analytic.Analytic{
		ID:        d.ID,
		Name:      d.Name,
		Config:    d.Config,
		UpdatedAt: d.UpdatedAt,
	}
}

// Store persists analytics in a MongoDB collection.
type Store struct {
	coll *mongo.Collection
	now  func() time.Time
}

var (
	_ analytic.ConfigStore     = (*Store)(nil)
	_ analytic.AnalyticCreator = (*Store)(nil)
)

// New wraps a collection.
func New(coll *mongo.Collection) (*Store, error) {
	if coll == nil {
		return nil, errors.New("mongostore: collection is required")
	}
	return &Store{coll: coll, now: time.Now}, nil
}

// Connect opens a client, pings it and returns a store on the named
// database and collection.
func Connect(ctx context.Context, uri, database, collection string) (*Store, *mongo.Client, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongostore: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongostore: ping: %w", err)
	}
	store, err := New(client.Database(database).Collection(collection))
	if err != nil {
		return nil, nil, err
	}
	return store, client, nil
}

// Create inserts a new analytic under a generated id.
func (s *Store) Create(ctx context.Context, name string, cfg analytic.Config) (analytic.Analytic, error) {
	doc := document{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Config:    cfg.Clone(),
		UpdatedAt: s.now().UTC(),
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return analytic.Analytic{}, fmt.Errorf("mongostore: insert %s: %w", doc.ID, err)
	}
	return doc.toAnalytic(), nil
}

// Load implements analytic.ConfigStore.
func (s *Store) Load(ctx context.Context, id string) (analytic.Analytic, error) {
	var doc document
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return analytic.Analytic{}, mapError(id, "load", err)
	}
	return doc.toAnalytic(), nil
}

// Update implements analytic.ConfigStore.
func (s *Store) Update(ctx context.Context, id string, cfg analytic.Config) (analytic.Analytic, error) {
	update := bson.M{"$set": bson.M{"data": cfg, "updatedAt": s.now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc document
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc); err != nil {
		return analytic.Analytic{}, mapError(id, "update", err)
	}
	return doc.toAnalytic(), nil
}

// List implements analytic.ConfigStore.
func (s *Store) List(ctx context.Context) ([]analytic.Analytic, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongostore: list: %w", err)
	}
	defer cursor.Close(ctx)
	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongostore: decode list: %w", err)
	}
	out := make([]analytic.Analytic, len(docs))
	for i, doc := range docs {
		out[i] = doc.toAnalytic()
	}
	return out, nil
}

func mapError(id, op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &analytic.NotFoundError{ID: id}
	}
	return fmt.Errorf("mongostore: %s %s: %w", op, id, err)
}
