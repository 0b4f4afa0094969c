package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.UsersStorage = (*UsersRepository)(nil)

type userRow struct {
	ID         string `db:"id"`
	Name       string `db:"name"`
	Email      string `db:"email"`
	Orders     int    `db:"orders"`
	TotalSpent string `db:"total_spent"`
}

func (r userRow) toDomain() domain.User {
	return domain.User(r)
}

const (
	userColumns       = `id, name, email, orders, total_spent`
	userSelectColumns = `id, name, COALESCE(email, '') AS email, orders, total_spent`
)

type UsersRepository struct {
	sqldb sqldb
}

func NewUsersRepository(sqldb sqldb) UsersRepository {
	return UsersRepository{sqldb}
}

func (r UsersRepository) ReadUsers(ctx context.Context) ([]domain.User, error) {
	const op = "UsersRepository.ReadUsers"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var rows []userRow
	query := `SELECT ` + userSelectColumns + ` FROM users ORDER BY created_at ASC, id ASC;`
	if err := r.sqldb.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	vs := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		vs = append(vs, row.toDomain())
	}
	return vs, nil
}

func (r UsersRepository) ReadUser(
	ctx context.Context, id string,
) (domain.User, error) {
	const op = "UsersRepository.ReadUser"
	query := `SELECT ` + userSelectColumns + ` FROM users WHERE id = $1;`
	return r.readOne(ctx, op, query, id)
}

func (r UsersRepository) ReadUserByEmail(
	ctx context.Context, email string,
) (domain.User, error) {
	const op = "UsersRepository.ReadUserByEmail"
	query := `SELECT ` + userSelectColumns + ` FROM users WHERE email = $1;`
	return r.readOne(ctx, op, query, email)
}

func (r UsersRepository) FirstUser(ctx context.Context) (domain.User, error) {
	const op = "UsersRepository.FirstUser"
	query := `SELECT ` + userSelectColumns + `
		FROM users ORDER BY created_at ASC, id ASC LIMIT 1;`
	return r.readOne(ctx, op, query)
}

// StoreUser inserts the user or merges the non-empty fields
// into the existing one.
func (r UsersRepository) StoreUser(ctx context.Context, v domain.User) error {
	const op = "UsersRepository.StoreUser"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (:id, :name, NULLIF(:email, ''), :orders, :total_spent)
		ON CONFLICT (id) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
			email = COALESCE(NULLIF(EXCLUDED.email, ''), users.email),
			orders = EXCLUDED.orders,
			total_spent = COALESCE(NULLIF(EXCLUDED.total_spent, ''), users.total_spent);
	`
	if _, err := r.sqldb.NamedExecContext(ctx, query, userRow(v)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r UsersRepository) readOne(
	ctx context.Context, op, query string, args ...any,
) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	var row userRow
	err := r.sqldb.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return row.toDomain(), nil
}
