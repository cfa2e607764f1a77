package discovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/kindledapp/kindled/internal/domain/model"
	pgrepo "github.com/kindledapp/kindled/internal/repo/postgres"
	"github.com/kindledapp/kindled/internal/services/geo"
)

const (
	minFilterAge = 18
	maxFilterAge = 120

	minFilterDistanceKM = 1
	maxFilterDistanceKM = 500

	minFilterLimit = 1
	maxFilterLimit = 50
)

var (
	ErrValidation      = errors.New("validation error")
	ErrProfileNotFound = errors.New("profile not found")
)

type CandidateSource interface {
	ListCandidates(ctx context.Context, query pgrepo.CandidateQuery) ([]pgrepo.CandidateRecord, error)
}

type ProfileSource interface {
	Get(ctx context.Context, userID int64) (model.Profile, error)
}

type StatsSource interface {
	Stats(ctx context.Context, userID int64) (model.SwipeStats, error)
}

// Filters are the viewer-supplied overrides. Nil fields fall back to the
// stored preferences and then to the configured defaults.
type Filters struct {
	MinAge        *int
	MaxAge        *int
	MaxDistanceKM *int
	Limit         *int
}

type Candidate struct {
	Profile    model.Profile
	DistanceKM *float64
}

type Config struct {
	DefaultAgeMin int
	DefaultAgeMax int
	DefaultLimit  int
	MaxLimit      int
}

type Dependencies struct {
	Candidates CandidateSource
	Profiles   ProfileSource
	Stats      StatsSource
}

type Service struct {
	candidates CandidateSource
	profiles   ProfileSource
	stats      StatsSource
	cfg        Config
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.DefaultAgeMin <= 0 {
		cfg.DefaultAgeMin = 18
	}
	if cfg.DefaultAgeMax <= 0 {
		cfg.DefaultAgeMax = 100
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = maxFilterLimit
	}

	return &Service{
		candidates: deps.Candidates,
		profiles:   deps.Profiles,
		stats:      deps.Stats,
		cfg:        cfg,
	}
}

// Discover returns swipe candidates for the viewer. The viewer never sees
// themselves or anyone they already swiped in either direction.
func (s *Service) Discover(ctx context.Context, userID int64, filters Filters) ([]Candidate, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if s.candidates == nil || s.profiles == nil {
		return nil, fmt.Errorf("discovery dependencies are nil")
	}

	if err := validateFilters(filters); err != nil {
		return nil, err
	}

	viewer, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get viewer profile: %w", err)
	}

	query := s.buildQuery(viewer, filters)
	records, err := s.candidates.ListCandidates(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	candidates := make([]Candidate, 0, len(records))
	for _, record := range records {
		candidate := Candidate{Profile: record.Profile, DistanceKM: record.DistanceKM}
		if candidate.DistanceKM == nil && viewer.HasCoordinates() && record.Profile.HasCoordinates() {
			d := geo.HaversineKM(*viewer.Latitude, *viewer.Longitude, *record.Profile.Latitude, *record.Profile.Longitude)
			candidate.DistanceKM = &d
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

func (s *Service) Stats(ctx context.Context, userID int64) (model.SwipeStats, error) {
	if userID <= 0 {
		return model.SwipeStats{}, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if s.stats == nil {
		return model.SwipeStats{}, fmt.Errorf("stats source is nil")
	}

	stats, err := s.stats.Stats(ctx, userID)
	if err != nil {
		return model.SwipeStats{}, fmt.Errorf("load swipe stats: %w", err)
	}

	return stats, nil
}

// buildQuery resolves the effective bounds: explicit filter first, then the
// viewer's stored preference, then the configured default.
func (s *Service) buildQuery(viewer model.Profile, filters Filters) pgrepo.CandidateQuery {
	ageMin := s.cfg.DefaultAgeMin
	if viewer.MinAgePreference > 0 {
		ageMin = viewer.MinAgePreference
	}
	if filters.MinAge != nil {
		ageMin = *filters.MinAge
	}

	ageMax := s.cfg.DefaultAgeMax
	if viewer.MaxAgePreference > 0 {
		ageMax = viewer.MaxAgePreference
	}
	if filters.MaxAge != nil {
		ageMax = *filters.MaxAge
	}

	limit := s.cfg.DefaultLimit
	if filters.Limit != nil {
		limit = *filters.Limit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	query := pgrepo.CandidateQuery{
		ViewerID: viewer.UserID,
		AgeMin:   ageMin,
		AgeMax:   ageMax,
		Limit:    limit,
	}

	if viewer.InterestedIn != nil {
		query.Gender = string(*viewer.InterestedIn)
	}

	// The distance cut needs both an explicit filter and viewer coords.
	if filters.MaxDistanceKM != nil && viewer.HasCoordinates() {
		query.ApplyDistance = true
		query.ViewerLat = *viewer.Latitude
		query.ViewerLon = *viewer.Longitude
		query.MaxDistanceKM = float64(*filters.MaxDistanceKM)
	}

	return query
}

func validateFilters(filters Filters) error {
	if filters.MinAge != nil && (*filters.MinAge < minFilterAge || *filters.MinAge > maxFilterAge) {
		return fmt.Errorf("min_age must be between %d and %d: %w", minFilterAge, maxFilterAge, ErrValidation)
	}
	if filters.MaxAge != nil && (*filters.MaxAge < minFilterAge || *filters.MaxAge > maxFilterAge) {
		return fmt.Errorf("max_age must be between %d and %d: %w", minFilterAge, maxFilterAge, ErrValidation)
	}
	if filters.MinAge != nil && filters.MaxAge != nil && *filters.MinAge > *filters.MaxAge {
		return fmt.Errorf("min_age exceeds max_age: %w", ErrValidation)
	}
	if filters.MaxDistanceKM != nil && (*filters.MaxDistanceKM < minFilterDistanceKM || *filters.MaxDistanceKM > maxFilterDistanceKM) {
		return fmt.Errorf("max_distance_km must be between %d and %d: %w", minFilterDistanceKM, maxFilterDistanceKM, ErrValidation)
	}
	if filters.Limit != nil && (*filters.Limit < minFilterLimit || *filters.Limit > maxFilterLimit) {
		return fmt.Errorf("limit must be between %d and %d: %w", minFilterLimit, maxFilterLimit, ErrValidation)
	}
	return nil
}
