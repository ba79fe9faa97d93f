package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Database wraps the Mongo client and the application database handle.
type Database struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// New connects to the document store and verifies the connection with a
// bounded ping. Callers treat an error here as fatal.
func New(uri, name string) (*Database, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(25).
		SetConnectTimeout(10 * time.Second).
		SetSocketTimeout(45 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, err
	}

	return &Database{Client: client, DB: client.Database(name)}, nil
}

// EnsureIndexes creates the indexes the repositories rely on.
func (d *Database) EnsureIndexes(ctx context.Context) error {
	_, err := d.DB.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = d.DB.Collection("messages").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "chat", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	return err
}

// Close disconnects the underlying client.
func (d *Database) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}
