package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions tunes the driver connection. Zero fields keep the driver's own
// defaults.
type MongoOptions struct {
	URI                    string
	Database               string
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	MaxPoolSize            uint64
	MinPoolSize            uint64
}

func (o MongoOptions) clientOptions() *options.ClientOptions {
	opts := options.Client().ApplyURI(o.URI)
	if o.ConnectTimeout > 0 {
		opts.SetConnectTimeout(o.ConnectTimeout)
	}
	if o.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(o.ServerSelectionTimeout)
	}
	if o.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(o.MaxPoolSize)
	}
	if o.MinPoolSize > 0 {
		opts.SetMinPoolSize(o.MinPoolSize)
	}
	return opts
}

// ConnectMongoDB opens a client and returns the cart database once the
// server answers a ping. The client is disconnected again if it does not.
func ConnectMongoDB(ctx context.Context, o MongoOptions) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, o.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("mongo ping %s: %w", o.Database, err)
	}
	return client.Database(o.Database), nil
}

// slotDocument stores the cart exactly as serialized, so an unparseable
// payload stays observable instead of failing inside the BSON decoder.
type slotDocument struct {
	Key       string    `bson:"_id"`
	Payload   string    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps each session's cart as one document in the "cart_slots" collection.
type MongoStore struct {
	collection *mongo.Collection
	key        string
}

func NewMongoStore(db *mongo.Database, sessionID, slot string) *MongoStore {
	return &MongoStore{
		collection: db.Collection("cart_slots"),
		key:        slotKey(sessionID, slot),
	}
}

func MongoProvider(db *mongo.Database, slot string) Provider {
	return func(sessionID string) CartStore {
		return NewMongoStore(db, sessionID, slot)
	}
}

func (m *MongoStore) Load(ctx context.Context) (LoadResult, error) {
	var doc slotDocument
	err := m.collection.FindOne(ctx, bson.M{"_id": m.key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return LoadResult{State: LoadEmpty}, nil
	}
	if err != nil {
		return LoadResult{}, fmt.Errorf("failed to get cart slot: %w", err)
	}
	return decodeCart([]byte(doc.Payload)), nil
}

func (m *MongoStore) Save(ctx context.Context, cart domain.Cart) error {
	data, err := encodeCart(cart)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{"payload": string(data), "updated_at": time.Now()}}
	opts := options.Update().SetUpsert(true)
	if _, err := m.collection.UpdateOne(ctx, bson.M{"_id": m.key}, update, opts); err != nil {
		return fmt.Errorf("failed to upsert cart slot: %w", err)
	}
	return nil
}

// Clear deletes the slot document; a missing document is not an error.
func (m *MongoStore) Clear(ctx context.Context) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"_id": m.key}); err != nil {
		return fmt.Errorf("failed to delete cart slot: %w", err)
	}
	return nil
}

// CreateIndexes expires slots nobody has touched for 90 days.
func CreateIndexes(ctx context.Context, db *mongo.Database) error {
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60),
	}
	if _, err := db.Collection("cart_slots").Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
