package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kindledapp/kindled/internal/domain/enums"
	"github.com/kindledapp/kindled/internal/domain/model"
)

type DiscoveryRepo struct {
	pool *pgxpool.Pool
}

func NewDiscoveryRepo(pool *pgxpool.Pool) *DiscoveryRepo {
	return &DiscoveryRepo{pool: pool}
}

type CandidateQuery struct {
	ViewerID      int64
	AgeMin        int
	AgeMax        int
	Gender        string // empty = no gender restriction
	ApplyDistance bool
	ViewerLat     float64
	ViewerLon     float64
	MaxDistanceKM float64
	Limit         int
}

type CandidateRecord struct {
	Profile    model.Profile
	DistanceKM *float64
}

// ListCandidates returns the filtered candidate pool: everyone except
// the viewer, anyone the viewer has already swiped on in either
// direction, and deactivated accounts. Distance is great-circle,
// computed in SQL, inclusive at the boundary; profiles without
// coordinates drop out when the distance filter is active.
func (r *DiscoveryRepo) ListCandidates(ctx context.Context, q CandidateQuery) ([]CandidateRecord, error) {
	if q.ViewerID <= 0 {
		return nil, fmt.Errorf("invalid viewer id")
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if r.pool == nil {
		return []CandidateRecord{}, nil
	}

	gender := strings.ToLower(strings.TrimSpace(q.Gender))
	applyGender := gender != ""

	rows, err := r.pool.Query(ctx, `
SELECT
	p.user_id,
	p.name,
	p.age,
	p.bio,
	p.gender,
	p.interested_in,
	p.latitude,
	p.longitude,
	p.max_distance_km,
	p.min_age_preference,
	p.max_age_preference,
	p.created_at,
	p.updated_at,
	CASE
		WHEN $6::boolean = TRUE AND p.latitude IS NOT NULL AND p.longitude IS NOT NULL
		THEN 6371.0 * ACOS(LEAST(1.0, GREATEST(-1.0,
			COS(RADIANS($7::float8)) * COS(RADIANS(p.latitude)) * COS(RADIANS(p.longitude) - RADIANS($8::float8))
			+ SIN(RADIANS($7::float8)) * SIN(RADIANS(p.latitude))
		)))
		ELSE NULL
	END AS distance_km
FROM profiles p
JOIN users u ON u.id = p.user_id
WHERE
	u.is_active
	AND p.user_id <> $1
	AND p.age BETWEEN $2 AND $3
	AND ($4::boolean = FALSE OR LOWER(p.gender) = $5)
	AND NOT EXISTS (
		SELECT 1
		FROM swipes s
		WHERE s.swiper_id = $1 AND s.target_id = p.user_id
	)
	AND (
		$6::boolean = FALSE
		OR (
			p.latitude IS NOT NULL
			AND p.longitude IS NOT NULL
			AND (
				6371.0 * ACOS(LEAST(1.0, GREATEST(-1.0,
					COS(RADIANS($7::float8)) * COS(RADIANS(p.latitude)) * COS(RADIANS(p.longitude) - RADIANS($8::float8))
					+ SIN(RADIANS($7::float8)) * SIN(RADIANS(p.latitude))
				)))
			) <= $9::float8
		)
	)
ORDER BY p.updated_at DESC, p.user_id DESC
LIMIT $10
`,
		q.ViewerID,      // $1
		q.AgeMin,        // $2
		q.AgeMax,        // $3
		applyGender,     // $4
		gender,          // $5
		q.ApplyDistance, // $6
		q.ViewerLat,     // $7
		q.ViewerLon,     // $8
		q.MaxDistanceKM, // $9
		q.Limit,         // $10
	)
	if err != nil {
		return nil, fmt.Errorf("list discovery candidates: %w", err)
	}
	defer rows.Close()

	items := make([]CandidateRecord, 0, q.Limit)
	for rows.Next() {
		var (
			rec          CandidateRecord
			genderVal    string
			interestedIn *string
		)
		if err := rows.Scan(
			&rec.Profile.UserID,
			&rec.Profile.Name,
			&rec.Profile.Age,
			&rec.Profile.Bio,
			&genderVal,
			&interestedIn,
			&rec.Profile.Latitude,
			&rec.Profile.Longitude,
			&rec.Profile.MaxDistanceKM,
			&rec.Profile.MinAgePreference,
			&rec.Profile.MaxAgePreference,
			&rec.Profile.CreatedAt,
			&rec.Profile.UpdatedAt,
			&rec.DistanceKM,
		); err != nil {
			return nil, fmt.Errorf("scan discovery candidate: %w", err)
		}
		rec.Profile.Gender = enums.Gender(genderVal)
		if interestedIn != nil {
			g := enums.Gender(*interestedIn)
			rec.Profile.InterestedIn = &g
		}
		items = append(items, rec)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate discovery candidates: %w", rows.Err())
	}

	return items, nil
}
