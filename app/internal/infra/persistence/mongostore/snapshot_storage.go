package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domcart "example.com/rocketshoes/app/internal/domain/cart"
)

const collectionName = "cart_snapshots"

type snapshotDocument struct {
	Key       string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type SnapshotStorage struct {
	collection *mongo.Collection
}

func NewSnapshotStorage(db *mongo.Database) *SnapshotStorage {
	return &SnapshotStorage{collection: db.Collection(collectionName)}
}

func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client.Database(database), nil
}

func (s *SnapshotStorage) Read(ctx context.Context, key string) ([]byte, error) {
	var doc snapshotDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domcart.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart snapshot: %w", err)
	}
	return doc.Data, nil
}

func (s *SnapshotStorage) Write(ctx context.Context, key string, data []byte) error {
	doc := snapshotDocument{Key: key, Data: data, UpdatedAt: time.Now().UTC()}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, opts); err != nil {
		return fmt.Errorf("failed to upsert cart snapshot: %w", err)
	}
	return nil
}
