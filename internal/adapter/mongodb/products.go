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

var _ port.ProductsStorage = (*ProductsCollection)(nil)

type productDoc struct {
	ID          string      `bson:"_id"`
	Name        string      `bson:"name"`
	Description string      `bson:"description"`
	Price       float64     `bson:"price"`
	Stock       int         `bson:"stock"`
	Category    string      `bson:"category"`
	Rating      float64     `bson:"rating"`
	Featured    bool        `bson:"featured"`
	Images      []string    `bson:"images"`
	Reviews     []reviewDoc `bson:"reviews"`
	CreatedAt   time.Time   `bson:"created_at"`
	UpdatedAt   time.Time   `bson:"updated_at"`
}

type reviewDoc struct {
	ID      string  `bson:"id"`
	Author  string  `bson:"author"`
	Rating  float64 `bson:"rating"`
	Comment string  `bson:"comment"`
	Date    string  `bson:"date"`
}

func toProductDoc(v domain.Product) productDoc {
	d := productDoc{
		ID:          v.ID,
		Name:        v.Name,
		Description: v.Description,
		Price:       v.Price,
		Stock:       v.Stock,
		Category:    v.Category,
		Rating:      v.Rating,
		Featured:    v.Featured,
		Images:      v.Images,
		Reviews:     make([]reviewDoc, len(v.Reviews)),
		CreatedAt:   v.CreatedAt.UTC(),
		UpdatedAt:   v.UpdatedAt.UTC(),
	}
	if d.Images == nil {
		d.Images = []string{}
	}
	for i, r := range v.Reviews {
		d.Reviews[i] = reviewDoc(r)
	}
	return d
}

func (d productDoc) toDomain() domain.Product {
	v := domain.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Stock:       d.Stock,
		Category:    d.Category,
		Rating:      d.Rating,
		Featured:    d.Featured,
		Images:      d.Images,
		Reviews:     make([]domain.Review, len(d.Reviews)),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	for i, r := range d.Reviews {
		v.Reviews[i] = domain.Review(r)
	}
	return v
}

type ProductsCollection struct {
	coll *mongo.Collection
}

func (c ProductsCollection) ReadProducts(
	ctx context.Context,
) ([]domain.Product, error) {
	const op = "ProductsCollection.ReadProducts"

	opts := options.Find().SetSort(
		bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
	)
	cursor, err := c.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	vs := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		vs = append(vs, d.toDomain())
	}
	return vs, nil
}

func (c ProductsCollection) ReadProduct(
	ctx context.Context, id string,
) (domain.Product, error) {
	const op = "ProductsCollection.ReadProduct"

	var d productDoc
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return d.toDomain(), nil
}

func (c ProductsCollection) StoreProducts(
	ctx context.Context, vs []domain.Product,
) error {
	const op = "ProductsCollection.StoreProducts"

	if len(vs) == 0 {
		return nil
	}

	_, err := c.coll.BulkWrite(ctx, upsertModels(vs), options.BulkWrite().SetOrdered(true))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c ProductsCollection) DeleteProduct(ctx context.Context, id string) error {
	const op = "ProductsCollection.DeleteProduct"

	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

// upsertModels overwrites products by ID and keeps the creation time
// of the stored ones.
func upsertModels(vs []domain.Product) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, len(vs))
	for _, v := range vs {
		d := toProductDoc(v)
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": d.ID}).
			SetUpdate(upsertUpdate(d)).
			SetUpsert(true),
		)
	}
	return models
}

func upsertUpdate(d productDoc) bson.M {
	return bson.M{
		"$set": bson.M{
			"name":        d.Name,
			"description": d.Description,
			"price":       d.Price,
			"stock":       d.Stock,
			"category":    d.Category,
			"rating":      d.Rating,
			"featured":    d.Featured,
			"images":      d.Images,
			"reviews":     d.Reviews,
			"updated_at":  d.UpdatedAt,
		},
		"$setOnInsert": bson.M{"created_at": d.CreatedAt},
	}
}
