// Package store implements the document-store layer: the shared video
// catalog and the per-user engagement ledger, both backed by MongoDB.
package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

// Mongo wraps a mongo client and the application database. Connection
// establishment happens once at process start; the handle is then passed
// into request-scoped operations.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongo connects to the given URI and pings the server.
func NewMongo(uri, dbName string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	return &Mongo{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// Ping checks connectivity to the server.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

// Collection returns a handle to the named collection.
func (m *Mongo) Collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
