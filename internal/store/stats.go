package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zigav/inventar/internal/model"
)

// GetStatistics aggregates a user's inventory: total item count, total
// summed quantity (0 for an empty inventory, never null) and a
// per-category breakdown. The breakdown inner-joins categories, so
// categories holding none of the user's items are omitted, as are
// uncategorized items.
func GetStatistics(ctx context.Context, db *sql.DB, ownerID int64) (*model.Statistics, error) {
	stats := &model.Statistics{Categories: []model.CategoryStats{}}

	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(quantity), 0) FROM items WHERE owner_id = ?`,
		ownerID,
	).Scan(&stats.TotalItems, &stats.TotalQuantity)
	if err != nil {
		return nil, fmt.Errorf("aggregating totals: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT c.name, COUNT(i.id), COALESCE(SUM(i.quantity), 0)
		 FROM items i
		 JOIN categories c ON c.id = i.category_id
		 WHERE i.owner_id = ?
		 GROUP BY c.id, c.name
		 ORDER BY c.name`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregating categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cs model.CategoryStats
		if err := rows.Scan(&cs.Category, &cs.ItemCount, &cs.TotalQuantity); err != nil {
			return nil, fmt.Errorf("scanning category stats: %w", err)
		}
		stats.Categories = append(stats.Categories, cs)
	}
	return stats, rows.Err()
}
