package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kindledapp/kindled/internal/domain/enums"
	"github.com/kindledapp/kindled/internal/domain/model"
	pgrepo "github.com/kindledapp/kindled/internal/repo/postgres"
	"github.com/kindledapp/kindled/internal/services/geo"
)

const (
	minAge = 18
	maxAge = 120

	maxNameLen = 100
	maxBioLen  = 500

	minDistanceKM = 1
	maxDistanceKM = 500
)

var (
	ErrValidation      = errors.New("validation error")
	ErrProfileNotFound = errors.New("profile not found")
)

type ProfileStore interface {
	Get(ctx context.Context, userID int64) (model.Profile, error)
	Save(ctx context.Context, profile model.Profile) (model.Profile, error)
}

type Service struct {
	store ProfileStore
}

// UpdateParams carries owner edits. Nil pointers leave the current value
// untouched so partial updates do not clobber the rest of the profile.
type UpdateParams struct {
	Name             *string
	Age              *int
	Bio              *string
	Gender           *string
	InterestedIn     *string
	Latitude         *float64
	Longitude        *float64
	MaxDistanceKM    *int
	MinAgePreference *int
	MaxAgePreference *int
}

func NewService(store ProfileStore) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, userID int64) (model.Profile, error) {
	if userID <= 0 {
		return model.Profile{}, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if s.store == nil {
		return model.Profile{}, fmt.Errorf("profile store is nil")
	}

	profile, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	return profile, nil
}

func (s *Service) Update(ctx context.Context, userID int64, params UpdateParams) (model.Profile, error) {
	if userID <= 0 {
		return model.Profile{}, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if s.store == nil {
		return model.Profile{}, fmt.Errorf("profile store is nil")
	}

	profile, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	if err := applyParams(&profile, params); err != nil {
		return model.Profile{}, err
	}
	if err := validateProfile(profile); err != nil {
		return model.Profile{}, err
	}

	saved, err := s.store.Save(ctx, profile)
	if err != nil {
		return model.Profile{}, fmt.Errorf("save profile: %w", err)
	}

	return saved, nil
}

func applyParams(profile *model.Profile, params UpdateParams) error {
	if params.Name != nil {
		profile.Name = strings.TrimSpace(*params.Name)
	}
	if params.Age != nil {
		profile.Age = *params.Age
	}
	if params.Bio != nil {
		profile.Bio = strings.TrimSpace(*params.Bio)
	}
	if params.Gender != nil {
		profile.Gender = enums.Gender(strings.ToLower(strings.TrimSpace(*params.Gender)))
	}
	if params.InterestedIn != nil {
		value := strings.ToLower(strings.TrimSpace(*params.InterestedIn))
		if value == "" {
			profile.InterestedIn = nil
		} else {
			gender := enums.Gender(value)
			profile.InterestedIn = &gender
		}
	}
	if params.Latitude != nil || params.Longitude != nil {
		// Coordinates only move as a pair.
		if params.Latitude == nil || params.Longitude == nil {
			return fmt.Errorf("latitude and longitude must be set together: %w", ErrValidation)
		}
		lat, lon := *params.Latitude, *params.Longitude
		if err := geo.ValidateCoordinates(lat, lon); err != nil {
			return fmt.Errorf("invalid coordinates: %w", ErrValidation)
		}
		profile.Latitude = &lat
		profile.Longitude = &lon
	}
	if params.MaxDistanceKM != nil {
		profile.MaxDistanceKM = *params.MaxDistanceKM
	}
	if params.MinAgePreference != nil {
		profile.MinAgePreference = *params.MinAgePreference
	}
	if params.MaxAgePreference != nil {
		profile.MaxAgePreference = *params.MaxAgePreference
	}
	return nil
}

func validateProfile(profile model.Profile) error {
	if profile.Name == "" || utf8.RuneCountInString(profile.Name) > maxNameLen {
		return fmt.Errorf("invalid name: %w", ErrValidation)
	}
	if profile.Age < minAge || profile.Age > maxAge {
		return fmt.Errorf("age must be between %d and %d: %w", minAge, maxAge, ErrValidation)
	}
	if utf8.RuneCountInString(profile.Bio) > maxBioLen {
		return fmt.Errorf("bio too long: %w", ErrValidation)
	}
	if !profile.Gender.Valid() {
		return fmt.Errorf("invalid gender: %w", ErrValidation)
	}
	if profile.InterestedIn != nil && !profile.InterestedIn.Valid() {
		return fmt.Errorf("invalid interested_in: %w", ErrValidation)
	}
	if profile.MaxDistanceKM < minDistanceKM || profile.MaxDistanceKM > maxDistanceKM {
		return fmt.Errorf("max_distance_km must be between %d and %d: %w", minDistanceKM, maxDistanceKM, ErrValidation)
	}
	if profile.MinAgePreference < minAge || profile.MaxAgePreference > maxAge || profile.MinAgePreference > profile.MaxAgePreference {
		return fmt.Errorf("invalid age preference bounds: %w", ErrValidation)
	}
	return nil
}
