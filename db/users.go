package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/padraicbc/racingdb/models"
)

// ErrUserNotFound is returned by UserByName when no account matches.
var ErrUserNotFound = errors.New("user not found")

// UserStore reads and writes api_users through the pool.
type UserStore struct {
	pool *Pool
}

// NewUserStore returns a store backed by pool.
func NewUserStore(pool *Pool) *UserStore {
	return &UserStore{pool: pool}
}

// UserByName loads the account with the given username.
func (s *UserStore) UserByName(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.Run(ctx, func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().Model(user).
			Where("username = ?", username).
			Limit(1).
			Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

// Upsert inserts user or, when the username exists, replaces its password
// hash and role.
func (s *UserStore) Upsert(ctx context.Context, user *models.User) error {
	return s.pool.Run(ctx, func(ctx context.Context, db bun.IDB) error {
		_, err := db.NewInsert().Model(user).
			On("DUPLICATE KEY UPDATE").
			Set("password = VALUES(password)").
			Set("role = VALUES(role)").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}
		return nil
	})
}
