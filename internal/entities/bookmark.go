package entities

import "time"

type BookmarkGroup struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Bookmark keeps the restaurant name and address as they were when the
// bookmark was created; later restaurant edits are not propagated.
type Bookmark struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	GroupID           string    `json:"group_id"`
	RestaurantID      string    `json:"restaurant_id"`
	RestaurantName    string    `json:"restaurant_name"`
	RestaurantAddress string    `json:"restaurant_address"`
	CreatedAt         time.Time `json:"created_at"`
}
