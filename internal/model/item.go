package model

import "time"

// Item is an inventory entry owned by exactly one user. ImageSrc is nil
// until an image has been uploaded, CategoryID is nil for uncategorized
// items. The owner is fixed at creation.
type Item struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	ImageSrc   *string   `json:"image_src"`
	CategoryID *int64    `json:"category_id"`
	OwnerID    int64     `json:"owner_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
