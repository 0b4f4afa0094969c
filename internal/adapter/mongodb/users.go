package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ port.UsersStorage = (*UsersCollection)(nil)

type userDoc struct {
	ID         string `bson:"_id"`
	Name       string `bson:"name"`
	Email      string `bson:"email,omitempty"`
	Orders     int    `bson:"orders"`
	TotalSpent string `bson:"total_spent"`
}

func (d userDoc) toDomain() domain.User {
	return domain.User(d)
}

var firstUserSort = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

type UsersCollection struct {
	coll *mongo.Collection
}

func (c UsersCollection) ReadUsers(ctx context.Context) ([]domain.User, error) {
	const op = "UsersCollection.ReadUsers"

	cursor, err := c.coll.Find(ctx, bson.M{}, options.Find().SetSort(firstUserSort))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	vs := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		vs = append(vs, d.toDomain())
	}
	return vs, nil
}

func (c UsersCollection) ReadUser(
	ctx context.Context, id string,
) (domain.User, error) {
	const op = "UsersCollection.ReadUser"
	return c.findOne(ctx, op, bson.M{"_id": id})
}

func (c UsersCollection) ReadUserByEmail(
	ctx context.Context, email string,
) (domain.User, error) {
	const op = "UsersCollection.ReadUserByEmail"
	return c.findOne(ctx, op, emailFilter(email))
}

func (c UsersCollection) FirstUser(ctx context.Context) (domain.User, error) {
	const op = "UsersCollection.FirstUser"
	return c.findOne(ctx, op, bson.M{}, options.FindOne().SetSort(firstUserSort))
}

// StoreUser creates the user or merges the non-empty fields
// into the existing document.
func (c UsersCollection) StoreUser(ctx context.Context, v domain.User) error {
	const op = "UsersCollection.StoreUser"

	_, err := c.coll.UpdateOne(ctx,
		bson.M{"_id": v.ID},
		mergeUpdate(v, time.Now().UTC()),
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c UsersCollection) findOne(
	ctx context.Context, op string, filter any, opts ...*options.FindOneOptions,
) (domain.User, error) {
	var d userDoc
	err := c.coll.FindOne(ctx, filter, opts...).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.User{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return d.toDomain(), nil
}

func emailFilter(email string) bson.M {
	return bson.M{"email": email}
}

func mergeUpdate(v domain.User, now time.Time) bson.M {
	set := bson.M{"orders": v.Orders}
	if v.Name != "" {
		set["name"] = v.Name
	}
	if v.Email != "" {
		set["email"] = v.Email
	}
	if v.TotalSpent != "" {
		set["total_spent"] = v.TotalSpent
	}
	return bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": now},
	}
}
