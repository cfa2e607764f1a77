package model

import (
	"time"

	"github.com/kindledapp/kindled/internal/domain/enums"
)

type Profile struct {
	UserID           int64         `json:"user_id"`
	Name             string        `json:"name"`
	Age              int           `json:"age"`
	Bio              string        `json:"bio"`
	Gender           enums.Gender  `json:"gender"`
	InterestedIn     *enums.Gender `json:"interested_in"`
	Latitude         *float64      `json:"latitude"`
	Longitude        *float64      `json:"longitude"`
	MaxDistanceKM    int           `json:"max_distance_km"`
	MinAgePreference int           `json:"min_age_preference"`
	MaxAgePreference int           `json:"max_age_preference"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// HasCoordinates reports whether the profile carries a usable location.
func (p Profile) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}
