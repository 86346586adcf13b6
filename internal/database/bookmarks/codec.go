package bookmarks

import (
	"github.com/pkg/errors"

	"github.com/mrlokans/matjip/internal/docstore"
	"github.com/mrlokans/matjip/internal/entities"
)

func encodeGroup(g entities.BookmarkGroup) docstore.Document {
	return docstore.Document{
		"userId":    g.UserID,
		"groupName": g.Name,
		"createdAt": g.CreatedAt,
		"updatedAt": g.UpdatedAt,
	}
}

func decodeGroup(snap docstore.Snapshot) (*entities.BookmarkGroup, error) {
	d := docstore.NewDecoder(snap.Data)
	g := &entities.BookmarkGroup{
		ID:        snap.ID,
		UserID:    d.RequiredString("userId"),
		Name:      d.RequiredString("groupName"),
		CreatedAt: d.Time("createdAt"),
		UpdatedAt: d.Time("updatedAt"),
	}
	if err := d.Err(); err != nil {
		return nil, errors.Wrapf(err, "bookmark group %s", snap.ID)
	}
	return g, nil
}

func encodeBookmark(b entities.Bookmark) docstore.Document {
	return docstore.Document{
		"userId":            b.UserID,
		"groupId":           b.GroupID,
		"restaurantId":      b.RestaurantID,
		"restaurantName":    b.RestaurantName,
		"restaurantAddress": b.RestaurantAddress,
		"createdAt":         b.CreatedAt,
	}
}

func decodeBookmark(snap docstore.Snapshot) (*entities.Bookmark, error) {
	d := docstore.NewDecoder(snap.Data)
	b := &entities.Bookmark{
		ID:                snap.ID,
		UserID:            d.RequiredString("userId"),
		GroupID:           d.RequiredString("groupId"),
		RestaurantID:      d.RequiredString("restaurantId"),
		RestaurantName:    d.String("restaurantName"),
		RestaurantAddress: d.String("restaurantAddress"),
		CreatedAt:         d.Time("createdAt"),
	}
	if err := d.Err(); err != nil {
		return nil, errors.Wrapf(err, "bookmark %s", snap.ID)
	}
	return b, nil
}
