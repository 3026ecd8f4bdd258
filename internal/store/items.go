package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zigav/inventar/internal/model"
)

// ItemFilter narrows and paginates ListItems results.
type ItemFilter struct {
	CategoryID *int64 // exact category match
	Search     string // case-insensitive substring match on name
	Skip       int
	Limit      int
}

// CreateItem inserts a new item owned by ownerID. The owner is fixed for
// the lifetime of the item. A categoryID pointing at no existing category
// is rejected with ErrConflict (enforced by the foreign key).
func CreateItem(ctx context.Context, db *sql.DB, ownerID int64, name string, quantity int, categoryID *int64) (*model.Item, error) {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (name, quantity, category_id, owner_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		name, quantity, categoryID, ownerID, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", wrapConflict(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, ownerID, id)
}

// GetItem returns the item with the given id if it is owned by ownerID,
// nil otherwise. Items of other users are indistinguishable from missing
// ones.
func GetItem(ctx context.Context, db *sql.DB, ownerID, id int64) (*model.Item, error) {
	item := &model.Item{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, quantity, image_src, category_id, owner_id, created_at, updated_at
		 FROM items WHERE id = ? AND owner_id = ?`, id, ownerID,
	).Scan(&item.ID, &item.Name, &item.Quantity, &item.ImageSrc, &item.CategoryID,
		&item.OwnerID, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns the items owned by ownerID matching the filter,
// ordered by id.
func ListItems(ctx context.Context, db *sql.DB, ownerID int64, f ItemFilter) ([]model.Item, error) {
	query := `SELECT id, name, quantity, image_src, category_id, owner_id, created_at, updated_at
	          FROM items WHERE owner_id = ?`
	args := []any{ownerID}

	if f.CategoryID != nil {
		query += ` AND category_id = ?`
		args = append(args, *f.CategoryID)
	}
	if f.Search != "" {
		query += ` AND instr(lower(name), lower(?)) > 0`
		args = append(args, f.Search)
	}

	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Skip)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Quantity, &item.ImageSrc,
			&item.CategoryID, &item.OwnerID, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem replaces every mutable field of an owned item and refreshes
// updated_at. Returns nil if no item with that id is owned by ownerID.
func UpdateItem(ctx context.Context, db *sql.DB, ownerID, id int64, name string, quantity int, categoryID *int64) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, quantity = ?, category_id = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		name, quantity, categoryID, time.Now().UTC(), id, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", wrapConflict(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	return GetItem(ctx, db, ownerID, id)
}

// DeleteItem removes an owned item. Reports whether a row was deleted.
func DeleteItem(ctx context.Context, db *sql.DB, ownerID, id int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM items WHERE id = ? AND owner_id = ?`, id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking delete result: %w", err)
	}
	return affected > 0, nil
}

// SetItemImage records the stored filename on an owned item and refreshes
// updated_at. Reports whether a row was updated.
func SetItemImage(ctx context.Context, db *sql.DB, ownerID, id int64, filename string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET image_src = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		filename, time.Now().UTC(), id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("setting item image: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking image update result: %w", err)
	}
	return affected > 0, nil
}
