package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zigav/inventar/internal/model"
)

// CreateCategory creates a new category. Category names are globally
// unique; a duplicate returns ErrConflict.
func CreateCategory(ctx context.Context, db *sql.DB, name, description string) (*model.Category, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO categories (name, description) VALUES (?, ?)`,
		name, description,
	)
	if err != nil {
		return nil, fmt.Errorf("creating category: %w", wrapConflict(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting category id: %w", err)
	}

	c := &model.Category{}
	var desc sql.NullString
	err = db.QueryRowContext(ctx,
		`SELECT id, name, description FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &desc)
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	c.Description = desc.String
	return c, nil
}

// ListCategories returns categories ordered by id, paginated with
// skip/limit.
func ListCategories(ctx context.Context, db *sql.DB, skip, limit int) ([]model.Category, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, description FROM categories ORDER BY id LIMIT ? OFFSET ?`,
		limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		var description sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &description); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		c.Description = description.String
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
