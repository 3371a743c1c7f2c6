package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dm3k/dm3k/pkg/document"
)

const (
	// DefaultMongoDatabase is used when no database name is given.
	DefaultMongoDatabase = "dm3k"

	// MongoCollection holds one BSON document per record.
	MongoCollection = "documents"

	mongoConnectTimeout = 10 * time.Second
)

// MongoStore keeps records in a MongoDB collection. The problem document is
// stored as a nested BSON document converted through extended JSON, so it
// stays queryable from the mongo shell.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// mongoRecord is the stored shape of a [Record].
type mongoRecord struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Document  bson.D    `bson:"document"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoStore connects to uri and verifies the connection. An empty
// database selects DefaultMongoDatabase.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return &MongoStore{client: client, coll: client.Database(database).Collection(MongoCollection)}, nil
}

func (s *MongoStore) Put(ctx context.Context, rec Record) (string, error) {
	var prev *Record
	if rec.ID != "" {
		p, err := s.Get(ctx, rec.ID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return "", err
		}
		prev = p
	}
	rec, err := stamp(rec, prev)
	if err != nil {
		return "", err
	}
	doc, err := documentToBSON(rec.Document)
	if err != nil {
		return "", err
	}

	stored := mongoRecord{
		ID:        rec.ID,
		Name:      rec.Name,
		Document:  doc,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, stored, options.Replace().SetUpsert(true))
	if err != nil {
		return "", fmt.Errorf("put %s: %w", rec.ID, err)
	}
	return rec.ID, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Record, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var stored mongoRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&stored)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	d, err := documentFromBSON(stored.Document)
	if err != nil {
		return nil, fmt.Errorf("parse record %s: %w", id, err)
	}
	return &Record{
		ID:        stored.ID,
		Name:      stored.Name,
		Document:  d,
		CreatedAt: stored.CreatedAt.UTC(),
		UpdatedAt: stored.UpdatedAt.UTC(),
	}, nil
}

func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"document": 0})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer cur.Close(ctx)

	out := []Summary{}
	for cur.Next(ctx) {
		var stored mongoRecord
		if err := cur.Decode(&stored); err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		out = append(out, Summary{
			ID:        stored.ID,
			Name:      stored.Name,
			CreatedAt: stored.CreatedAt.UTC(),
			UpdatedAt: stored.UpdatedAt.UTC(),
		})
	}
	return out, cur.Err()
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)

// documentToBSON converts d through its JSON form so field names match the
// document's wire format.
func documentToBSON(d document.Document) (bson.D, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var out bson.D
	if err := bson.UnmarshalExtJSON(data, false, &out); err != nil {
		return nil, fmt.Errorf("convert document: %w", err)
	}
	return out, nil
}

func documentFromBSON(doc bson.D) (document.Document, error) {
	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return document.Document{}, fmt.Errorf("convert document: %w", err)
	}
	var d document.Document
	if err := json.Unmarshal(data, &d); err != nil {
		return document.Document{}, fmt.Errorf("unmarshal document: %w", err)
	}
	return d, nil
}
