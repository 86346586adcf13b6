package entities

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Visit struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	RestaurantID   string    `json:"restaurant_id"`
	RestaurantName string    `json:"restaurant_name"`
	Rating         int       `json:"rating"`
	Memo           string    `json:"memo"`
	VisitedAt      time.Time `json:"visited_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ValidRating reports whether r is within the accepted 1..5 range.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
