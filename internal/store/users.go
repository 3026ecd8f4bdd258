package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zigav/inventar/internal/model"
)

// CreateUser registers a new active user. Returns ErrConflict if the email
// or username is already taken.
func CreateUser(ctx context.Context, db *sql.DB, email, username, passwordHash string) (*model.User, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (email, username, password_hash) VALUES (?, ?, ?)`,
		email, username, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", wrapConflict(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return getUser(ctx, db, `id = ?`, id)
}

// GetUserByUsername returns a user by username, or nil if none exists.
func GetUserByUsername(ctx context.Context, db *sql.DB, username string) (*model.User, error) {
	return getUser(ctx, db, `username = ?`, username)
}

func getUser(ctx context.Context, db *sql.DB, where string, arg any) (*model.User, error) {
	u := &model.User{}
	err := db.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash, is_active, created_at
		 FROM users WHERE `+where, arg,
	).Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.IsActive, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}
