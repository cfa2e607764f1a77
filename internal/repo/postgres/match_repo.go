package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kindledapp/kindled/internal/domain/model"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepo struct {
	pool *pgxpool.Pool
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

const matchColumns = `id, user_a_id, user_b_id, is_active, matched_at, unmatched_at`

// CreateActive inserts the canonical ordered pair. The partial unique
// index on active pairs absorbs concurrent double-detection: the loser
// of the race hits ON CONFLICT DO NOTHING and gets the winner's row
// back, so exactly one match exists either way.
func (r *MatchRepo) CreateActive(ctx context.Context, tx pgx.Tx, userID, targetID int64, now time.Time) (model.Match, bool, error) {
	if userID <= 0 || targetID <= 0 || userID == targetID {
		return model.Match{}, false, fmt.Errorf("invalid match payload")
	}
	if tx == nil {
		return model.Match{}, false, fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	userA, userB := userID, targetID
	if userA > userB {
		userA, userB = userB, userA
	}

	row := tx.QueryRow(ctx, `
INSERT INTO matches (
	user_a_id,
	user_b_id,
	is_active,
	matched_at
) VALUES ($1, $2, TRUE, $3)
ON CONFLICT (user_a_id, user_b_id) WHERE is_active DO NOTHING
RETURNING `+matchColumns+`
`, userA, userB, now.UTC())

	match, err := scanMatch(row)
	if err == nil {
		return match, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Match{}, false, fmt.Errorf("create match: %w", err)
	}

	existing, err := scanMatch(tx.QueryRow(ctx, `
SELECT `+matchColumns+`
FROM matches
WHERE user_a_id = $1 AND user_b_id = $2 AND is_active
`, userA, userB))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, false, ErrMatchNotFound
		}
		return model.Match{}, false, fmt.Errorf("load existing match: %w", err)
	}

	return existing, false, nil
}

func (r *MatchRepo) GetByID(ctx context.Context, matchID int64) (model.Match, error) {
	if matchID <= 0 {
		return model.Match{}, fmt.Errorf("invalid match id")
	}
	if r.pool == nil {
		return model.Match{}, ErrMatchNotFound
	}

	match, err := scanMatch(r.pool.QueryRow(ctx, `
SELECT `+matchColumns+`
FROM matches
WHERE id = $1
`, matchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, fmt.Errorf("get match: %w", err)
	}

	return match, nil
}

func (r *MatchRepo) ListActiveForUser(ctx context.Context, userID int64, limit int) ([]model.Match, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 100
	}
	if r.pool == nil {
		return []model.Match{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+matchColumns+`
FROM matches
WHERE (user_a_id = $1 OR user_b_id = $1) AND is_active
ORDER BY matched_at DESC, id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list active matches: %w", err)
	}
	defer rows.Close()

	items := make([]model.Match, 0, limit)
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan active match: %w", err)
		}
		items = append(items, match)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate active matches: %w", rows.Err())
	}

	return items, nil
}

// Deactivate performs the one-way unmatch transition. Rows already
// inactive are left untouched.
func (r *MatchRepo) Deactivate(ctx context.Context, matchID int64, now time.Time) error {
	if matchID <= 0 {
		return fmt.Errorf("invalid match id")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	result, err := r.pool.Exec(ctx, `
UPDATE matches
SET is_active = FALSE, unmatched_at = $2
WHERE id = $1 AND is_active
`, matchID, now.UTC())
	if err != nil {
		return fmt.Errorf("deactivate match: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrMatchNotFound
	}

	return nil
}

func scanMatch(row pgx.Row) (model.Match, error) {
	var m model.Match
	if err := row.Scan(
		&m.ID,
		&m.UserAID,
		&m.UserBID,
		&m.IsActive,
		&m.MatchedAt,
		&m.UnmatchedAt,
	); err != nil {
		return model.Match{}, err
	}
	return m, nil
}
