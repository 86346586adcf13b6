package restaurants

import (
	"github.com/pkg/errors"

	"github.com/mrlokans/matjip/internal/docstore"
	"github.com/mrlokans/matjip/internal/entities"
)

func encode(r entities.Restaurant) docstore.Document {
	doc := docstore.Document{
		"externalId":      r.ExternalID,
		"name":            r.Name,
		"address":         r.Address,
		"category":        r.Category,
		"region":          r.Region,
		"phone":           r.Phone,
		"businessHours":   r.BusinessHours,
		"menu":            r.Menu,
		"description":     r.Description,
		"seatCount":       r.SeatCount,
		"parking":         r.Parking,
		"homepage":        r.Homepage,
		"subway":          r.Subway,
		"bus":             r.Bus,
		"facilities":      r.Facilities,
		"foreignLanguage": r.ForeignLanguage,
		"breakfast":       r.Breakfast,
		"dessert":         r.Dessert,
		"reservation":     r.Reservation,
		"cachedAt":        r.CachedAt,
	}
	return doc
}

func decode(snap docstore.Snapshot) (*entities.Restaurant, error) {
	d := docstore.NewDecoder(snap.Data)
	r := &entities.Restaurant{
		ID:              snap.ID,
		ExternalID:      d.String("externalId"),
		Name:            d.RequiredString("name"),
		Address:         d.String("address"),
		Category:        d.String("category"),
		Region:          d.String("region"),
		Phone:           d.String("phone"),
		BusinessHours:   d.String("businessHours"),
		Menu:            d.String("menu"),
		Description:     d.String("description"),
		SeatCount:       d.String("seatCount"),
		Parking:         d.String("parking"),
		Homepage:        d.String("homepage"),
		Subway:          d.String("subway"),
		Bus:             d.String("bus"),
		Facilities:      d.String("facilities"),
		ForeignLanguage: d.String("foreignLanguage"),
		Breakfast:       d.String("breakfast"),
		Dessert:         d.String("dessert"),
		Reservation:     d.Bool("reservation"),
		CachedAt:        d.Time("cachedAt"),
	}
	if r.ExternalID == "" {
		// legacy documents kept the upstream identifier in "id"
		r.ExternalID = d.String("id")
	}
	if err := d.Err(); err != nil {
		return nil, errors.Wrapf(err, "restaurant %s", snap.ID)
	}
	return r, nil
}
