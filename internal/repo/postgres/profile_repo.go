package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kindledapp/kindled/internal/domain/enums"
	"github.com/kindledapp/kindled/internal/domain/model"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

const profileColumns = `
	user_id,
	name,
	age,
	bio,
	gender,
	interested_in,
	latitude,
	longitude,
	max_distance_km,
	min_age_preference,
	max_age_preference,
	created_at,
	updated_at`

func (r *ProfileRepo) Get(ctx context.Context, userID int64) (model.Profile, error) {
	if userID <= 0 {
		return model.Profile{}, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return model.Profile{}, ErrProfileNotFound
	}

	row := r.pool.QueryRow(ctx, `
SELECT`+profileColumns+`
FROM profiles
WHERE user_id = $1
`, userID)

	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	return profile, nil
}

// Save upserts the owner's profile attributes and bumps updated_at,
// which doubles as the discovery recency signal.
func (r *ProfileRepo) Save(ctx context.Context, p model.Profile) (model.Profile, error) {
	if p.UserID <= 0 {
		return model.Profile{}, fmt.Errorf("invalid profile payload")
	}
	if r.pool == nil {
		return model.Profile{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO profiles (
	user_id,
	name,
	age,
	bio,
	gender,
	interested_in,
	latitude,
	longitude,
	max_distance_km,
	min_age_preference,
	max_age_preference,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
ON CONFLICT (user_id) DO UPDATE SET
	name = EXCLUDED.name,
	age = EXCLUDED.age,
	bio = EXCLUDED.bio,
	gender = EXCLUDED.gender,
	interested_in = EXCLUDED.interested_in,
	latitude = EXCLUDED.latitude,
	longitude = EXCLUDED.longitude,
	max_distance_km = EXCLUDED.max_distance_km,
	min_age_preference = EXCLUDED.min_age_preference,
	max_age_preference = EXCLUDED.max_age_preference,
	updated_at = NOW()
RETURNING`+profileColumns+`
`,
		p.UserID,
		p.Name,
		p.Age,
		p.Bio,
		string(p.Gender),
		genderOrNil(p.InterestedIn),
		p.Latitude,
		p.Longitude,
		p.MaxDistanceKM,
		p.MinAgePreference,
		p.MaxAgePreference,
	)

	saved, err := scanProfile(row)
	if err != nil {
		return model.Profile{}, fmt.Errorf("save profile: %w", err)
	}

	return saved, nil
}

func scanProfile(row pgx.Row) (model.Profile, error) {
	var (
		p            model.Profile
		gender       string
		interestedIn *string
	)
	if err := row.Scan(
		&p.UserID,
		&p.Name,
		&p.Age,
		&p.Bio,
		&gender,
		&interestedIn,
		&p.Latitude,
		&p.Longitude,
		&p.MaxDistanceKM,
		&p.MinAgePreference,
		&p.MaxAgePreference,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return model.Profile{}, err
	}

	p.Gender = enums.Gender(gender)
	if interestedIn != nil {
		g := enums.Gender(*interestedIn)
		p.InterestedIn = &g
	}
	return p, nil
}

func genderOrNil(g *enums.Gender) *string {
	if g == nil {
		return nil
	}
	s := string(*g)
	return &s
}
