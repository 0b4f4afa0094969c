// Package mongodb stores products and users in MongoDB collections.
package mongodb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/niksmo/storefront/pkg/retry"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	productsCollection = "products"
	usersCollection    = "users"
)

type Database struct {
	cl *mongo.Client
	db *mongo.Database
}

func NewDatabase(
	ctx context.Context, uri, name string, retryCfg retry.RetryConfig,
) (Database, error) {
	const op = "mongodb.NewDatabase"
	log := slog.With("op", op)

	cl, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return Database{}, fmt.Errorf("%s: %w", op, err)
	}

	err = retry.Do(ctx, retryCfg, func() error {
		return cl.Ping(ctx, nil)
	})
	if err != nil {
		_ = cl.Disconnect(context.Background())
		return Database{}, fmt.Errorf("%s: database is unavailable: %w", op, err)
	}

	d := Database{cl: cl, db: cl.Database(name)}
	if err := d.ensureIndexes(ctx); err != nil {
		_ = cl.Disconnect(context.Background())
		return Database{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("database is available")
	return d, nil
}

func (d Database) ensureIndexes(ctx context.Context) error {
	_, err := d.db.Collection(productsCollection).Indexes().CreateMany(ctx,
		[]mongo.IndexModel{
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
		},
	)
	if err != nil {
		return fmt.Errorf("products indexes: %w", err)
	}

	_, err = d.db.Collection(usersCollection).Indexes().CreateOne(ctx,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	)
	if err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	return nil
}

func (d Database) Products() ProductsCollection {
	return ProductsCollection{d.db.Collection(productsCollection)}
}

func (d Database) Users() UsersCollection {
	return UsersCollection{d.db.Collection(usersCollection)}
}

func (d Database) Close(ctx context.Context) {
	const op = "mongodb.Database.Close"
	log := slog.With("op", op)

	log.Info("disconnecting mongodb...")
	if err := d.cl.Disconnect(ctx); err != nil {
		log.Error("failed to disconnect", "err", err)
		return
	}
	log.Info("mongodb is disconnected")
}
