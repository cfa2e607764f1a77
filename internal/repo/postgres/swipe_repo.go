package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kindledapp/kindled/internal/domain/enums"
	"github.com/kindledapp/kindled/internal/domain/model"
)

// ErrSwipeExists surfaces the swipes_one_per_pair unique violation:
// the ledger is append-only and a pair is decided exactly once.
var ErrSwipeExists = errors.New("swipe already recorded for this pair")

type SwipeRepo struct {
	pool *pgxpool.Pool
}

func NewSwipeRepo(pool *pgxpool.Pool) *SwipeRepo {
	return &SwipeRepo{pool: pool}
}

func (r *SwipeRepo) Create(ctx context.Context, tx pgx.Tx, swiperID, targetID int64, direction enums.SwipeDirection, now time.Time) (model.Swipe, error) {
	if swiperID <= 0 || targetID <= 0 || !direction.Valid() {
		return model.Swipe{}, fmt.Errorf("invalid swipe payload")
	}
	if tx == nil {
		return model.Swipe{}, fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var (
		rec model.Swipe
		dir string
	)
	err := tx.QueryRow(ctx, `
INSERT INTO swipes (
	swiper_id,
	target_id,
	direction,
	created_at
) VALUES ($1, $2, $3, $4)
RETURNING id, swiper_id, target_id, direction, created_at
`, swiperID, targetID, string(direction), now.UTC()).Scan(
		&rec.ID,
		&rec.SwiperID,
		&rec.TargetID,
		&dir,
		&rec.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.Swipe{}, ErrSwipeExists
		}
		return model.Swipe{}, fmt.Errorf("create swipe: %w", err)
	}

	rec.Direction = enums.SwipeDirection(dir)
	return rec, nil
}

// HasRightSwipe checks for the reciprocal like inside the same
// transaction that just recorded the new swipe.
func (r *SwipeRepo) HasRightSwipe(ctx context.Context, tx pgx.Tx, swiperID, targetID int64) (bool, error) {
	if swiperID <= 0 || targetID <= 0 {
		return false, fmt.Errorf("invalid swipe lookup payload")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	var one int
	err := tx.QueryRow(ctx, `
SELECT 1
FROM swipes
WHERE swiper_id = $1 AND target_id = $2 AND direction = 'right'
LIMIT 1
`, swiperID, targetID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup reciprocal swipe: %w", err)
	}

	return true, nil
}

func (r *SwipeRepo) Stats(ctx context.Context, userID int64) (model.SwipeStats, error) {
	if userID <= 0 {
		return model.SwipeStats{}, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return model.SwipeStats{}, nil
	}

	var stats model.SwipeStats
	err := r.pool.QueryRow(ctx, `
SELECT
	(SELECT COUNT(*) FROM swipes WHERE swiper_id = $1),
	(SELECT COUNT(*) FROM swipes WHERE swiper_id = $1 AND direction = 'right'),
	(SELECT COUNT(*) FROM swipes WHERE swiper_id = $1 AND direction = 'left'),
	(SELECT COUNT(*) FROM swipes WHERE target_id = $1 AND direction = 'right')
`, userID).Scan(
		&stats.TotalSwipes,
		&stats.Likes,
		&stats.Skips,
		&stats.ReceivedLikes,
	)
	if err != nil {
		return model.SwipeStats{}, fmt.Errorf("read swipe stats: %w", err)
	}

	return stats, nil
}
