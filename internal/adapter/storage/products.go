package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.ProductsStorage = (*ProductsRepository)(nil)

type productRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Price       float64   `db:"price"`
	Stock       int       `db:"stock"`
	Category    string    `db:"category"`
	Rating      float64   `db:"rating"`
	Featured    bool      `db:"featured"`
	Images      string    `db:"images"`
	Reviews     string    `db:"reviews"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type reviewDoc struct {
	ID      string  `json:"id"`
	Author  string  `json:"author"`
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment"`
	Date    string  `json:"date"`
}

func toProductRow(v domain.Product) (productRow, error) {
	images := v.Images
	if images == nil {
		images = []string{}
	}
	imgB, err := json.Marshal(images)
	if err != nil {
		return productRow{}, err
	}

	reviews := make([]reviewDoc, len(v.Reviews))
	for i, r := range v.Reviews {
		reviews[i] = reviewDoc(r)
	}
	revB, err := json.Marshal(reviews)
	if err != nil {
		return productRow{}, err
	}

	return productRow{
		ID:          v.ID,
		Name:        v.Name,
		Description: v.Description,
		Price:       v.Price,
		Stock:       v.Stock,
		Category:    v.Category,
		Rating:      v.Rating,
		Featured:    v.Featured,
		Images:      string(imgB),
		Reviews:     string(revB),
		CreatedAt:   v.CreatedAt.UTC(),
		UpdatedAt:   v.UpdatedAt.UTC(),
	}, nil
}

func (r productRow) toDomain() (domain.Product, error) {
	v := domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		Category:    r.Category,
		Rating:      r.Rating,
		Featured:    r.Featured,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}

	if err := json.Unmarshal([]byte(r.Images), &v.Images); err != nil {
		return domain.Product{}, fmt.Errorf("images: %w", err)
	}

	var reviews []reviewDoc
	if err := json.Unmarshal([]byte(r.Reviews), &reviews); err != nil {
		return domain.Product{}, fmt.Errorf("reviews: %w", err)
	}
	v.Reviews = make([]domain.Review, len(reviews))
	for i, rd := range reviews {
		v.Reviews[i] = domain.Review(rd)
	}
	return v, nil
}

const productColumns = `
	id, name, description, price, stock, category,
	rating, featured, images, reviews, created_at, updated_at`

type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

func (r ProductsRepository) ReadProducts(
	ctx context.Context,
) ([]domain.Product, error) {
	const op = "ProductsRepository.ReadProducts"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT` + productColumns + `
		FROM products ORDER BY created_at ASC, id ASC;`

	var rows []productRow
	if err := r.sqldb.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	vs := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		v, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%s: product %q: %w", op, row.ID, err)
		}
		vs = append(vs, v)
	}
	return vs, nil
}

func (r ProductsRepository) ReadProduct(
	ctx context.Context, id string,
) (domain.Product, error) {
	const op = "ProductsRepository.ReadProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT` + productColumns + `
		FROM products WHERE id = $1;`

	var row productRow
	err := r.sqldb.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	v, err := row.toDomain()
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func (r ProductsRepository) StoreProducts(
	ctx context.Context, vs []domain.Product,
) (storeErr error) {
	const op = "ProductsRepository.StoreProducts"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if len(vs) == 0 {
		return nil
	}

	rows := make([]productRow, 0, len(vs))
	for _, v := range vs {
		row, err := toProductRow(v)
		if err != nil {
			return fmt.Errorf("%s: product %q: %w", op, v.ID, err)
		}
		rows = append(rows, row)
	}

	tx, err := r.sqldb.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}

	defer func() {
		if storeErr == nil {
			if err := tx.Commit(); err != nil {
				storeErr = fmt.Errorf("%s: failed to commit %w", op, err)
			}
			return
		}

		err := tx.Rollback()
		if err != nil {
			log.Error("failed to rollback tx", "err", err)
		}
	}()

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES (
			:id, :name, :description, :price, :stock, :category,
			:rating, :featured, :images, :reviews, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			stock = EXCLUDED.stock,
			category = EXCLUDED.category,
			rating = EXCLUDED.rating,
			featured = EXCLUDED.featured,
			images = EXCLUDED.images,
			reviews = EXCLUDED.reviews,
			updated_at = EXCLUDED.updated_at;
	`

	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%s: failed to prepare stmt: %w", op, err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			log.Error("failed to close prepared stmt", "err", err)
		}
	}()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return fmt.Errorf("%s: failed to exec: %w", op, err)
		}
	}

	return nil
}

func (r ProductsRepository) DeleteProduct(
	ctx context.Context, id string,
) error {
	const op = "ProductsRepository.DeleteProduct"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := r.sqldb.ExecContext(ctx, `DELETE FROM products WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}
