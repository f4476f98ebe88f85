package store

import (
	"context"
	"fmt"

	"hooklog/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	DefaultMongoDatabase   = "webhook_db"
	DefaultMongoCollection = "events"
)

// MongoRepository keeps records as documents. ObjectIDs never leave this
// file: every record handed back carries the hex form.
type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type mongoRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	RequestID  string             `bson:"request_id"`
	Author     string             `bson:"author"`
	Action     string             `bson:"action"`
	FromBranch *string            `bson:"from_branch"`
	ToBranch   string             `bson:"to_branch"`
	Timestamp  string             `bson:"timestamp"`
}

// OpenMongoRepository connects and pings the deployment. The caller owns
// the returned repository and must Close it.
func OpenMongoRepository(ctx context.Context, uri, database, collection string) (*MongoRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return NewMongoRepository(client, database, collection), nil
}

func NewMongoRepository(client *mongo.Client, database, collection string) *MongoRepository {
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}
	return &MongoRepository{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}
}

func (m *MongoRepository) Insert(ctx context.Context, rec model.Record) (string, error) {
	if err := validateRecord(rec); err != nil {
		return "", err
	}
	res, err := m.collection.InsertOne(ctx, fromRecord(rec))
	if err != nil {
		return "", err
	}
	return insertedIDString(res.InsertedID), nil
}

func (m *MongoRepository) Recent(ctx context.Context, limit int) ([]model.StoredRecord, error) {
	limit = clampLimit(limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := m.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []mongoRecord
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.StoredRecord, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toStored())
	}
	return out, nil
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func fromRecord(rec model.Record) mongoRecord {
	return mongoRecord{
		RequestID:  rec.RequestID,
		Author:     rec.Author,
		Action:     string(rec.Action),
		FromBranch: rec.FromBranch,
		ToBranch:   rec.ToBranch,
		Timestamp:  rec.Timestamp,
	}
}

func (d mongoRecord) toStored() model.StoredRecord {
	return model.StoredRecord{
		ID: d.ID.Hex(),
		Record: model.Record{
			RequestID:  d.RequestID,
			Author:     d.Author,
			Action:     model.Action(d.Action),
			FromBranch: d.FromBranch,
			ToBranch:   d.ToBranch,
			Timestamp:  d.Timestamp,
		},
	}
}

func insertedIDString(id interface{}) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
