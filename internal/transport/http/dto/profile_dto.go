package dto

import "time"

type ProfileResponse struct {
	UserID           int64     `json:"user_id"`
	Name             string    `json:"name"`
	Age              int       `json:"age"`
	Bio              string    `json:"bio,omitempty"`
	Gender           string    `json:"gender"`
	InterestedIn     *string   `json:"interested_in,omitempty"`
	Latitude         *float64  `json:"latitude,omitempty"`
	Longitude        *float64  `json:"longitude,omitempty"`
	MaxDistanceKM    int       `json:"max_distance_km"`
	MinAgePreference int       `json:"min_age_preference"`
	MaxAgePreference int       `json:"max_age_preference"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type UpdateProfileRequest struct {
	Name             *string  `json:"name"`
	Age              *int     `json:"age"`
	Bio              *string  `json:"bio"`
	Gender           *string  `json:"gender"`
	InterestedIn     *string  `json:"interested_in"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	MaxDistanceKM    *int     `json:"max_distance_km"`
	MinAgePreference *int     `json:"min_age_preference"`
	MaxAgePreference *int     `json:"max_age_preference"`
}
