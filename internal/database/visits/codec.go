package visits

import (
	"github.com/pkg/errors"

	"github.com/mrlokans/matjip/internal/docstore"
	"github.com/mrlokans/matjip/internal/entities"
)

func encode(v entities.Visit) docstore.Document {
	return docstore.Document{
		"userId":         v.UserID,
		"restaurantId":   v.RestaurantID,
		"restaurantName": v.RestaurantName,
		"rating":         v.Rating,
		"memo":           v.Memo,
		"visitedAt":      v.VisitedAt.UTC(),
		"createdAt":      v.CreatedAt.UTC(),
		"updatedAt":      v.UpdatedAt.UTC(),
	}
}

func decode(snap docstore.Snapshot) (*entities.Visit, error) {
	d := docstore.NewDecoder(snap.Data)
	v := &entities.Visit{
		ID:             snap.ID,
		UserID:         d.RequiredString("userId"),
		RestaurantID:   d.RequiredString("restaurantId"),
		RestaurantName: d.String("restaurantName"),
		Rating:         d.Int("rating"),
		Memo:           d.String("memo"),
		VisitedAt:      d.Time("visitedAt"),
		CreatedAt:      d.Time("createdAt"),
		UpdatedAt:      d.Time("updatedAt"),
	}
	if err := d.Err(); err != nil {
		return nil, errors.Wrapf(err, "visit %s", snap.ID)
	}
	return v, nil
}
