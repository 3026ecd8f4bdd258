package model

// CategoryStats is one row of the per-category breakdown: only categories
// holding at least one of the caller's items appear.
type CategoryStats struct {
	Category      string `json:"category"`
	ItemCount     int    `json:"item_count"`
	TotalQuantity int    `json:"total_quantity"`
}

// Statistics aggregates a single user's inventory.
type Statistics struct {
	TotalItems    int             `json:"total_items"`
	TotalQuantity int             `json:"total_quantity"`
	Categories    []CategoryStats `json:"categories"`
}
