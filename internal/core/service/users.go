package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
)

func (s Service) Users(ctx context.Context) ([]domain.User, error) {
	const op = "Service.Users"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	us, err := s.usersStorage.ReadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return us, nil
}

func (s Service) GetUser(ctx context.Context, id string) (domain.User, error) {
	const op = "Service.GetUser"

	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	u, err := s.usersStorage.ReadUser(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SaveUser creates the user or merges fields into the existing one.
func (s Service) SaveUser(ctx context.Context, u domain.User) error {
	const op = "Service.SaveUser"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("%s: user id is empty", op)
	}

	if err := s.usersStorage.StoreUser(ctx, u); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SampleUserID picks the user an order is attributed to.
//
// The admin has no user. Unknown emails fall back to the first stored user.
func (s Service) SampleUserID(ctx context.Context, email string) (string, error) {
	const op = "Service.SampleUserID"

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if s.adminEmail != "" && email == s.adminEmail {
		return "", fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	u, err := s.usersStorage.ReadUserByEmail(ctx, email)
	if err == nil {
		return u.ID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	u, err = s.usersStorage.FirstUser(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return u.ID, nil
}
