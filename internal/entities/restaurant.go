package entities

import "time"

// Restaurant is a cached copy of an upstream open-data record.
// ID is the store key; ExternalID is the upstream OPENDATA_ID.
type Restaurant struct {
	ID              string    `json:"id"`
	ExternalID      string    `json:"external_id"`
	Name            string    `json:"name"`
	Address         string    `json:"address"`
	Category        string    `json:"category"`
	Region          string    `json:"region"`
	Phone           string    `json:"phone,omitempty"`
	BusinessHours   string    `json:"business_hours,omitempty"`
	Menu            string    `json:"menu,omitempty"`
	Description     string    `json:"description,omitempty"`
	SeatCount       string    `json:"seat_count,omitempty"`
	Parking         string    `json:"parking,omitempty"`
	Homepage        string    `json:"homepage,omitempty"`
	Subway          string    `json:"subway,omitempty"`
	Bus             string    `json:"bus,omitempty"`
	Facilities      string    `json:"facilities,omitempty"`
	ForeignLanguage string    `json:"foreign_language,omitempty"`
	Breakfast       string    `json:"breakfast,omitempty"`
	Dessert         string    `json:"dessert,omitempty"`
	Reservation     bool      `json:"reservation"`
	CachedAt        time.Time `json:"cached_at"`
}
